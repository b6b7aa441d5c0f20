package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register metrics on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.sessionsOpened.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("pre"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names should carry namespace, subsystem and prefix", func() {
				manager.sessionsOpened.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_pre_sessions_opened_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording payload delivery", func() {
			before := value(globalManager.payloadsSent.WithLabelValues("scores"))
			RecordPayloadSent("scores", 1024)

			Convey("Then the sent counter should advance", func() {
				after := value(globalManager.payloadsSent.WithLabelValues("scores"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When recording a dropped payload", func() {
			before := value(globalManager.payloadsDropped.WithLabelValues("comments", "closed"))
			RecordPayloadDropped("comments", "closed")

			Convey("Then the dropped counter should advance", func() {
				after := value(globalManager.payloadsDropped.WithLabelValues("comments", "closed"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When opening and closing a session", func() {
			before := value(globalManager.sessionsActive)
			RecordSessionOpened()
			mid := value(globalManager.sessionsActive)
			RecordSessionClosed("client_closed", 3*time.Second)
			after := value(globalManager.sessionsActive)

			Convey("Then the active gauge should return to its prior value", func() {
				So(mid, ShouldEqual, before+1)
				So(after, ShouldEqual, before)
			})
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordSourceRead("scores", "ok", 1.5)
				RecordWatchEvent("change")
				UpdateQueueCapacity(64)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueRejected("full")
				RecordPdfParsed("ok", 120)
				RecordPdfPage()
				RecordRowsExtracted("pattern", 12)
				RecordStoreApplied("adjudication")
				RecordStoreRowsDropped(2)
				RecordHTTPRequest("stats", "GET", "200")
				RecordHTTPRequestDuration("stats", "GET", "200", 3)
				RecordErrorByComponent("source", "parse_error")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
				UpdateActiveSessions(0)
			}, ShouldNotPanic)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		defer Configure(WithMetricsEnabled(true), WithRefreshInterval(defaultRefreshInterval))

		Convey("When recording is disabled", func() {
			Configure(WithMetricsEnabled(false))
			before := value(globalManager.payloadsSent.WithLabelValues("historical_comments"))
			RecordPayloadSent("historical_comments", 10)
			after := value(globalManager.payloadsSent.WithLabelValues("historical_comments"))

			Convey("Then nothing should be recorded", func() {
				So(Enabled(), ShouldBeFalse)
				So(after, ShouldEqual, before)
			})

			Convey("Then enabling it again should resume recording", func() {
				Configure(WithMetricsEnabled(true))
				RecordPayloadSent("historical_comments", 10)
				So(value(globalManager.payloadsSent.WithLabelValues("historical_comments")), ShouldEqual, before+1)
			})
		})

		Convey("When setting the refresh interval", func() {
			Configure(WithRefreshInterval(3 * time.Second))
			Configure(WithRefreshInterval(0))

			Convey("Then the last positive interval should apply", func() {
				So(RefreshInterval(), ShouldEqual, 3*time.Second)
				So(Enabled(), ShouldBeTrue)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordWatchEvent("add")
		families, err := GetRegistry().Gather()

		Convey("Then it should expose bandboard metrics", func() {
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(strings.Join(names, ","), ShouldContainSubstring, "bandboard_watch_events_total")
		})
	})
}

// value reads the current value of a counter or gauge.
func value(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		panic(err)
	}
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}
