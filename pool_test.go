package qhash

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQ(t *testing.T) {
	Convey("Given a pool and a hasher", t, func() {
		q := newTestQ(4)
		hasher := newTestHasher(6)

		Reset(func() {
			q.Close()
		})

		Convey("Hash jobs should come back in full", func() {
			channels := make([]chan Outcome, 16)
			for i := range channels {
				input := []byte{byte(i), byte(i * 7)}
				channels[i] = q.Schedule(fmt.Sprintf("hash-%d", i), func() (any, error) {
					return hasher.Hash(input, ModeExpectation, true)
				})
			}

			for i, ch := range channels {
				outcome := awaitOutcome(t, ch)
				So(outcome.Error, ShouldBeNil)

				result := outcome.Value.(*Result)
				want, err := hasher.Hash([]byte{byte(i), byte(i * 7)}, ModeExpectation, true)
				So(err, ShouldBeNil)
				So(result.Bytes, ShouldResemble, want.Bytes)
			}

			So(q.ExportMetrics()["scheduled"], ShouldEqual, int64(16))
		})

		Convey("A hash error should reach the caller unwrapped", func() {
			outcome := awaitOutcome(t, q.Schedule("empty", func() (any, error) {
				return hasher.Hash(nil, ModeExpectation, false)
			}))
			So(outcome.Error, ShouldEqual, ErrEmptyInput)
		})

		Convey("Close should be safe to call twice", func() {
			q.Close()
			So(func() { q.Close() }, ShouldNotPanic)
		})
	})

	Convey("Given a pool whose queue never drains", t, func() {
		config := NewConfig()
		config.Workers = 1
		config.SchedulingTimeout = 20 * time.Millisecond

		ctx, cancel := context.WithCancel(context.Background())
		q := NewQ(ctx, config)
		// no worker will pick anything up
		cancel()
		q.wg.Wait()

		for i := 0; i < cap(q.jobs); i++ {
			q.jobs <- Job{ID: fmt.Sprintf("filler-%d", i)}
		}

		Reset(func() {
			q.Close()
		})

		Convey("Schedule should time out with an error", func() {
			outcome := awaitOutcome(t, q.Schedule("late", func() (any, error) {
				return nil, nil
			}))

			So(outcome.Error, ShouldNotBeNil)
			So(q.ExportMetrics()["scheduling_failures"], ShouldEqual, int64(1))
		})
	})
}
