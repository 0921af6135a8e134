package qhash

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given fresh metrics", t, func() {
		metrics := NewMetrics()

		Convey("Recording should track counts and success rate", func() {
			start := time.Now().Add(-2 * time.Millisecond)
			metrics.recordHash(start, true)
			metrics.recordHash(start, true)
			metrics.recordHash(start, true)
			metrics.recordHash(start, false)

			exported := metrics.ExportMetrics()
			So(exported["hash_count"], ShouldEqual, int64(4))
			So(exported["error_count"], ShouldEqual, int64(1))
			So(exported["success_rate"], ShouldAlmostEqual, 0.75)
			So(metrics.AverageLatency, ShouldBeGreaterThanOrEqualTo, 2*time.Millisecond)
			So(metrics.P99Latency, ShouldBeGreaterThanOrEqualTo, metrics.P95Latency)
		})

		Convey("The latency window should stay bounded", func() {
			for i := 0; i < metrics.windowSize+10; i++ {
				metrics.recordHash(time.Now(), true)
			}
			So(len(metrics.latencyWindow), ShouldEqual, metrics.windowSize)
		})
	})
}
