package app_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/volunteerops/volmatch/internal/adapters/repository"
	"github.com/volunteerops/volmatch/internal/app"
	"github.com/volunteerops/volmatch/internal/domain/matching"
	"github.com/volunteerops/volmatch/internal/domain/model"
	"github.com/volunteerops/volmatch/internal/domain/ranking"
	"github.com/volunteerops/volmatch/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeBackend serves canned profiles, events, history and records
// notifications.
type fakeBackend struct {
	mu            sync.Mutex
	profiles      map[string]model.Profile
	events        []model.Event
	history       map[string][]model.ParticipationRecord
	notifications []model.Notification
	notifyErr     error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles: make(map[string]model.Profile),
		history:  make(map[string][]model.ParticipationRecord),
	}
}

func (b *fakeBackend) Profile(_ context.Context, userID string) (model.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.profiles[userID]
	if !ok {
		return model.Profile{}, fmt.Errorf("profile %s not found", userID)
	}
	return p, nil
}

func (b *fakeBackend) Events(_ context.Context) ([]model.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Event, len(b.events))
	copy(out, b.events)
	return out, nil
}

func (b *fakeBackend) Notify(_ context.Context, n model.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.notifyErr != nil {
		return b.notifyErr
	}
	b.notifications = append(b.notifications, n)
	return nil
}

func (b *fakeBackend) History(_ context.Context, userID string) ([]model.ParticipationRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history[userID], nil
}

func (b *fakeBackend) AllHistory(_ context.Context) ([]model.ParticipationRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var all []model.ParticipationRecord
	for _, recs := range b.history {
		all = append(all, recs...)
	}
	return all, nil
}

func (b *fakeBackend) sentNotifications() []model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Notification, len(b.notifications))
	copy(out, b.notifications)
	return out
}

// fixedResolver serves a fixed distance for every pair.
type fixedResolver struct {
	miles float64
}

func (r fixedResolver) Between(_ context.Context, _, _ string) (model.DistanceInfo, error) {
	return model.DistanceInfo{DistanceValue: r.miles}, nil
}

func seedBackend() *fakeBackend {
	b := newFakeBackend()
	b.profiles["u1"] = model.Profile{
		UserID:  "u1",
		Skills:  []string{"cooking", "driving"},
		Address: model.Address{Line1: "1 Main St", City: "Houston", State: "TX"},
	}
	b.events = []model.Event{
		{
			ID:             "kitchen",
			Name:           "Community Kitchen",
			Urgency:        model.UrgencyHigh,
			RequiredSkills: []string{"cooking"},
			Address:        model.Address{Line1: "5 Oak St", City: "Houston", State: "TX"},
		},
		{
			ID:             "coding",
			Name:           "Teach Coding",
			Urgency:        model.UrgencyLow,
			RequiredSkills: []string{"programming"},
			Address:        model.Address{Line1: "9 Elm St", City: "Houston", State: "TX"},
		},
		{
			ID:             "open",
			Name:           "Open Day",
			Urgency:        model.UrgencyMedium,
			RequiredSkills: nil,
			Address:        model.Address{Line1: "2 Pine St", City: "Houston", State: "TX"},
		},
	}
	return b
}

func startService(t *testing.T, b app.Backend, opts ...app.Option) *app.Service {
	t.Helper()
	svc := app.New(append([]app.Option{app.WithBackend(b)}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service without a backend", t, func() {
		svc := app.New()

		Convey("Then Start refuses", func() {
			So(errors.Is(svc.Start(context.Background()), app.ErrNoBackend), ShouldBeTrue)
		})

		Convey("Then operations refuse before a start", func() {
			_, err := svc.MatchVolunteer(context.Background(), app.MatchRequest{UserID: "u1"})
			So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a configured service", t, func() {
		svc := startService(t, seedBackend())

		Convey("Then starting twice is harmless", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})

		Convey("Then stats report the running state", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["queue_length"], ShouldEqual, 0)
		})
	})
}

func TestMatchVolunteer(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService(t, seedBackend())

		Convey("When matching a volunteer", func() {
			results, err := svc.MatchVolunteer(ctx, app.MatchRequest{UserID: "u1"})

			Convey("Then every event is evaluated", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 3)
			})

			Convey("Then results come back best first", func() {
				for i := 1; i < len(results); i++ {
					So(results[i-1].Score, ShouldBeGreaterThanOrEqualTo, results[i].Score)
				}
			})

			Convey("Then eligibility reflects the skill overlap", func() {
				byID := map[string]matching.Result{}
				for _, r := range results {
					byID[r.EventID] = r
				}
				So(byID["kitchen"].Eligible, ShouldBeTrue)
				So(byID["coding"].Eligible, ShouldBeFalse)
				So(byID["open"].Eligible, ShouldBeTrue)
			})
		})

		Convey("When the volunteer is unknown", func() {
			_, err := svc.MatchVolunteer(ctx, app.MatchRequest{UserID: "ghost"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a service with cached distances", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(store.Put(ctx, "u1", "kitchen", model.DistanceInfo{DistanceValue: 3}), ShouldBeNil)
		So(store.Put(ctx, "u1", "coding", model.DistanceInfo{DistanceValue: 80}), ShouldBeNil)

		svc := startService(t, seedBackend(),
			app.WithStore(store),
			app.WithDistanceResolver(fixedResolver{miles: 3}),
		)

		Convey("When matching with the default radius", func() {
			results, err := svc.MatchVolunteer(ctx, app.MatchRequest{UserID: "u1"})

			Convey("Then events with a known distance beyond the radius are dropped", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 2)
				for _, r := range results {
					So(r.EventID, ShouldNotEqual, "coding")
				}
			})
		})

		Convey("When a tighter radius is requested", func() {
			results, err := svc.MatchVolunteer(ctx, app.MatchRequest{UserID: "u1", MaxDistance: 2})

			Convey("Then only unknown-distance events survive", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 1)
				So(results[0].EventID, ShouldEqual, "open")
			})
		})
	})
}

func TestMatchedEvents(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(t, seedBackend())

		Convey("When listing matched events", func() {
			events, err := svc.MatchedEvents(context.Background(), "u1")

			Convey("Then only eligible events appear, in backend order", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 2)
				So(events[0].ID, ShouldEqual, "kitchen")
				So(events[1].ID, ShouldEqual, "open")
			})
		})
	})
}

func TestRankEvents(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		b := seedBackend()
		b.events[0].Date = time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)
		b.events[1].Date = time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
		b.events[2].Date = time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
		svc := startService(t, b)

		Convey("When ranking by date ascending", func() {
			out, err := svc.RankEvents(ctx, app.EventQuery{
				Criterion: ranking.ByDate,
				Direction: ranking.Ascending,
			})

			Convey("Then the soonest event leads", func() {
				So(err, ShouldBeNil)
				So(out[0].ID, ShouldEqual, "coding")
				So(out[2].ID, ShouldEqual, "kitchen")
			})
		})

		Convey("When ranking by priority descending", func() {
			out, err := svc.RankEvents(ctx, app.EventQuery{
				Criterion: ranking.ByPriority,
				Direction: ranking.Descending,
			})
			So(err, ShouldBeNil)
			So(out[0].ID, ShouldEqual, "kitchen")
		})

		Convey("When a volunteer with cached distances is identified", func() {
			store := repository.NewMemoryStore()
			So(store.Put(ctx, "u1", "kitchen", model.DistanceInfo{DistanceValue: 3}), ShouldBeNil)
			svc2 := startService(t, seedBackend(), app.WithStore(store))

			out, err := svc2.RankEvents(ctx, app.EventQuery{
				UserID:    "u1",
				Criterion: ranking.ByDistance,
			})

			Convey("Then annotated events sort ahead of unknown ones", func() {
				So(err, ShouldBeNil)
				So(out[0].ID, ShouldEqual, "kitchen")
				So(out[0].Distance, ShouldNotBeNil)
				So(out[1].Distance, ShouldBeNil)
			})
		})
	})
}

func TestNotifyMatches(t *testing.T) {
	Convey("Given match results for a volunteer", t, func() {
		ctx := context.Background()
		b := seedBackend()
		svc := startService(t, b)

		results := []matching.Result{
			{EventID: "kitchen", EventName: "Community Kitchen", Eligible: true, Score: 80},
			{EventID: "coding", EventName: "Teach Coding", Eligible: false, Score: 90},
			{EventID: "open", EventName: "Open Day", Eligible: true, Score: 20},
		}

		Convey("When notifying", func() {
			sent, err := svc.NotifyMatches(ctx, "u1", results)

			Convey("Then only strong eligible matches are delivered", func() {
				So(err, ShouldBeNil)
				So(sent, ShouldEqual, 1)
				notes := b.sentNotifications()
				So(notes, ShouldHaveLength, 1)
				So(notes[0].EventID, ShouldEqual, "kitchen")
				So(notes[0].Type, ShouldEqual, "match")
				So(notes[0].ID, ShouldNotBeEmpty)
			})

			Convey("And a repeat pass sends nothing new", func() {
				again, err := svc.NotifyMatches(ctx, "u1", results)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, 0)
				So(b.sentNotifications(), ShouldHaveLength, 1)
			})
		})

		Convey("When delivery fails", func() {
			b.notifyErr = errors.New("backend down")
			sent, err := svc.NotifyMatches(ctx, "u1", results)
			So(err, ShouldBeNil)
			So(sent, ShouldEqual, 0)

			Convey("Then the pair can be retried after recovery", func() {
				b.mu.Lock()
				b.notifyErr = nil
				b.mu.Unlock()
				sent, err := svc.NotifyMatches(ctx, "u1", results)
				So(err, ShouldBeNil)
				So(sent, ShouldEqual, 1)
			})
		})
	})
}

func TestReporting(t *testing.T) {
	Convey("Given participation history", t, func() {
		ctx := context.Background()
		b := seedBackend()
		b.history["u1"] = []model.ParticipationRecord{
			{ID: "h1", UserID: "u1", EventID: "kitchen", Status: model.ParticipationAttended},
			{ID: "h2", UserID: "u1", EventID: "gone", Status: model.ParticipationMissed},
		}
		b.history["u2"] = []model.ParticipationRecord{
			{ID: "h3", UserID: "u2", EventID: "kitchen", Status: model.ParticipationSignedUp},
		}
		svc := startService(t, b)

		Convey("When fetching a volunteer's history", func() {
			entries, err := svc.VolunteerHistory(ctx, "u1")

			Convey("Then records join against event details", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].EventName, ShouldEqual, "Community Kitchen")
			})

			Convey("Then records for deleted events keep their ids", func() {
				So(entries[1].EventID, ShouldEqual, "gone")
				So(entries[1].EventName, ShouldBeEmpty)
			})
		})

		Convey("When building the event summary", func() {
			summary, err := svc.EventSummaryReport(ctx)

			Convey("Then counts aggregate across volunteers", func() {
				So(err, ShouldBeNil)
				So(summary, ShouldHaveLength, 3)
				byID := map[string]int{}
				for _, s := range summary {
					byID[s.EventID] = s.VolunteerCount
				}
				So(byID["kitchen"], ShouldEqual, 2)
				So(byID["coding"], ShouldEqual, 0)
			})
		})
	})
}
