package repository_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/volunteerops/volmatch/internal/adapters/repository"
	"github.com/volunteerops/volmatch/internal/domain/model"
)

// fakeClock is a controllable time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStore(t *testing.T) {
	Convey("Given an in-memory distance cache", t, func() {
		ctx := context.Background()
		clock := &fakeClock{t: time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)}
		store := repository.NewMemoryStore(
			repository.WithTTL(time.Hour),
			repository.WithClock(clock.now),
		)

		info := model.DistanceInfo{
			DistanceText:  "4.7 mi",
			DistanceValue: 4.7,
			DurationText:  "12 mins",
			DurationValue: 720,
		}

		Convey("When a pair has never been stored", func() {
			_, ok, err := store.Get(ctx, "u1", "e1")

			Convey("Then the read is a clean miss", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a distance has been stored", func() {
			So(store.Put(ctx, "u1", "e1", info), ShouldBeNil)

			Convey("Then a read within the TTL hits", func() {
				got, ok, err := store.Get(ctx, "u1", "e1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.DistanceValue, ShouldEqual, 4.7)

				Convey("And the hit is flagged as cached", func() {
					So(got.Cached, ShouldBeTrue)
				})
			})

			Convey("Then other pairs stay independent", func() {
				_, ok, _ := store.Get(ctx, "u1", "e2")
				So(ok, ShouldBeFalse)
				_, ok, _ = store.Get(ctx, "u2", "e1")
				So(ok, ShouldBeFalse)
			})

			Convey("When the TTL elapses", func() {
				clock.advance(time.Hour + time.Minute)

				Convey("Then the read misses and the entry is dropped", func() {
					_, ok, err := store.Get(ctx, "u1", "e1")
					So(err, ShouldBeNil)
					So(ok, ShouldBeFalse)
					So(store.Count(ctx), ShouldEqual, 0)
				})
			})

			Convey("When the entry is refreshed just before expiry", func() {
				clock.advance(59 * time.Minute)
				So(store.Put(ctx, "u1", "e1", info), ShouldBeNil)
				clock.advance(30 * time.Minute)

				Convey("Then the TTL restarts from the refresh", func() {
					_, ok, _ := store.Get(ctx, "u1", "e1")
					So(ok, ShouldBeTrue)
				})
			})

			Convey("When the entry is deleted", func() {
				So(store.Delete(ctx, "u1", "e1"), ShouldBeNil)

				Convey("Then the next read misses", func() {
					_, ok, _ := store.Get(ctx, "u1", "e1")
					So(ok, ShouldBeFalse)
				})
			})
		})

		Convey("When several entries age past the TTL", func() {
			So(store.Put(ctx, "u1", "e1", info), ShouldBeNil)
			So(store.Put(ctx, "u1", "e2", info), ShouldBeNil)
			clock.advance(2 * time.Hour)
			So(store.Put(ctx, "u1", "e3", info), ShouldBeNil)

			Convey("Then Sweep drops exactly the expired ones", func() {
				So(store.Sweep(ctx), ShouldEqual, 2)
				So(store.Count(ctx), ShouldEqual, 1)
				_, ok, _ := store.Get(ctx, "u1", "e3")
				So(ok, ShouldBeTrue)
			})
		})
	})
}
