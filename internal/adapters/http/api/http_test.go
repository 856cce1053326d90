package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/volunteerops/volmatch/internal/adapters/http/api"
	"github.com/volunteerops/volmatch/internal/app"
	"github.com/volunteerops/volmatch/internal/domain/matching"
	"github.com/volunteerops/volmatch/internal/domain/model"
	"github.com/volunteerops/volmatch/internal/domain/ranking"
	"github.com/volunteerops/volmatch/internal/domain/types"
)

// fakeService implements api.Dependencies and api.StatsProvider with
// canned responses.
type fakeService struct {
	matchResults []matching.Result
	matchErr     error
	notified     int
	events       []model.Event
	eventsErr    error
	lastQuery    app.EventQuery
	history      []types.HistoryEntry
	summary      []types.EventSummary
}

func (f *fakeService) MatchVolunteer(_ context.Context, req app.MatchRequest) ([]matching.Result, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	return f.matchResults, nil
}

func (f *fakeService) MatchedEvents(_ context.Context, userID string) ([]model.Event, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events, nil
}

func (f *fakeService) RankEvents(_ context.Context, q app.EventQuery) ([]model.Event, error) {
	f.lastQuery = q
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events, nil
}

func (f *fakeService) NotifyMatches(_ context.Context, _ string, results []matching.Result) (int, error) {
	return f.notified, nil
}

func (f *fakeService) VolunteerHistory(_ context.Context, _ string) ([]types.HistoryEntry, error) {
	return f.history, nil
}

func (f *fakeService) EventSummaryReport(_ context.Context) ([]types.EventSummary, error) {
	return f.summary, nil
}

func (f *fakeService) GetStats() map[string]any {
	return map[string]any{"started": true}
}

func newTestServer(f *fakeService) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(f, f).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestHandleMatch(t *testing.T) {
	Convey("Given the match endpoint", t, func() {
		f := &fakeService{
			matchResults: []matching.Result{
				{EventID: "e1", EventName: "Food Drive", Eligible: true, Score: 85},
			},
			notified: 1,
		}
		srv := newTestServer(f)
		Reset(srv.Close)

		Convey("When posting a valid request", func() {
			resp, err := http.Post(srv.URL+"/match", "application/json",
				strings.NewReader(`{"user_id": "u1"}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the matches come back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					UserID  string            `json:"user_id"`
					Matches []matching.Result `json:"matches"`
					Total   int               `json:"total_events"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.UserID, ShouldEqual, "u1")
				So(body.Matches, ShouldHaveLength, 1)
				So(body.Total, ShouldEqual, 1)
			})
		})

		Convey("When notify is requested", func() {
			resp, err := http.Post(srv.URL+"/match", "application/json",
				strings.NewReader(`{"user_id": "u1", "notify": true}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var body struct {
				Notified int `json:"notified"`
			}
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body.Notified, ShouldEqual, 1)
		})

		Convey("When the body is not JSON", func() {
			resp, err := http.Post(srv.URL+"/match", "application/json",
				strings.NewReader(`not json`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When user_id is missing", func() {
			resp, err := http.Post(srv.URL+"/match", "application/json",
				strings.NewReader(`{"max_distance": 10}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the volunteer is unknown", func() {
			f.matchErr = errors.New("profile u9 not found")
			resp, err := http.Post(srv.URL+"/match", "application/json",
				strings.NewReader(`{"user_id": "u9"}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Get(srv.URL + "/match")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleGetEvents(t *testing.T) {
	Convey("Given the events endpoint", t, func() {
		f := &fakeService{
			events: []model.Event{{ID: "e1"}, {ID: "e2"}},
		}
		srv := newTestServer(f)
		Reset(srv.Close)

		Convey("When listing with sort parameters", func() {
			resp, err := http.Get(srv.URL + "/events?sort_by=priority&order=high-to-low&user_id=u1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the query is translated for the service", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(f.lastQuery.Criterion, ShouldEqual, ranking.ByPriority)
				So(f.lastQuery.Direction, ShouldEqual, ranking.Descending)
				So(f.lastQuery.UserID, ShouldEqual, "u1")
				So(f.lastQuery.RestrictToMax, ShouldBeFalse)
			})
		})

		Convey("When a max distance is given", func() {
			resp, err := http.Get(srv.URL + "/events?max_distance=20")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(f.lastQuery.MaxDistance, ShouldEqual, 20)
			So(f.lastQuery.RestrictToMax, ShouldBeTrue)
		})

		Convey("When the max distance is malformed", func() {
			resp, err := http.Get(srv.URL + "/events?max_distance=close")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the response is shaped", func() {
			resp, err := http.Get(srv.URL + "/events")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var body struct {
				Events []model.Event `json:"events"`
				Total  int           `json:"total"`
			}
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body.Total, ShouldEqual, 2)
			So(body.Events, ShouldHaveLength, 2)
		})
	})
}

func TestHandleGetMatched(t *testing.T) {
	Convey("Given the matched-events endpoint", t, func() {
		f := &fakeService{events: []model.Event{{ID: "e1"}}}
		srv := newTestServer(f)
		Reset(srv.Close)

		Convey("When a user id is supplied", func() {
			resp, err := http.Get(srv.URL + "/matched-events/u1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When the user id is missing", func() {
			resp, err := http.Get(srv.URL + "/matched-events/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the path nests too deep", func() {
			resp, err := http.Get(srv.URL + "/matched-events/u1/extra")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service reports not found", func() {
			f.eventsErr = errors.New("profile u1 not found")
			resp, err := http.Get(srv.URL + "/matched-events/u1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleHistoryAndReports(t *testing.T) {
	Convey("Given history and reporting endpoints", t, func() {
		f := &fakeService{
			history: []types.HistoryEntry{{RecordID: "h1", EventID: "e1", Status: "Attended"}},
			summary: []types.EventSummary{{EventID: "e1", Name: "Food Drive", VolunteerCount: 4}},
		}
		srv := newTestServer(f)
		Reset(srv.Close)

		Convey("When fetching history", func() {
			resp, err := http.Get(srv.URL + "/history/u1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var body struct {
				UserID  string               `json:"user_id"`
				Entries []types.HistoryEntry `json:"entries"`
			}
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body.UserID, ShouldEqual, "u1")
			So(body.Entries, ShouldHaveLength, 1)
		})

		Convey("When fetching the event summary", func() {
			resp, err := http.Get(srv.URL + "/reports/events")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var body struct {
				Events []types.EventSummary `json:"events"`
				Total  int                  `json:"total"`
			}
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body.Total, ShouldEqual, 1)
			So(body.Events[0].VolunteerCount, ShouldEqual, 4)
		})
	})
}

func TestHandleStats(t *testing.T) {
	Convey("Given the stats endpoint", t, func() {
		srv := newTestServer(&fakeService{})
		Reset(srv.Close)

		Convey("When fetching stats", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)
			So(stats["started"], ShouldBeTrue)
		})
	})
}

func TestHandleHealth(t *testing.T) {
	Convey("Given the health endpoint", t, func() {
		srv := newTestServer(&fakeService{})
		Reset(srv.Close)

		Convey("When scraping", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the metrics registry is served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}
