package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When a prefix lacks its separator", func() {
			manager := NewManager(WithPrefix("v2"))

			Convey("Then one should be added", func() {
				So(manager.metricPrefix, ShouldEqual, "v2_")
				So(NewManager(WithPrefix("v2_")).metricPrefix, ShouldEqual, "v2_")
			})
		})

		Convey("When names would be rejected by Prometheus", func() {
			manager := NewManager(
				WithNamespace("soc-gpa"),
				WithSubsystem("9api"),
				WithPrefix("x-y"),
				WithConstLabels(map[string]string{"__reserved": "a", "bad-label": "b", "region": "kz"}),
			)

			Convey("Then they should be ignored", func() {
				So(manager.namespace, ShouldEqual, "socgpa")
				So(manager.subsystem, ShouldEqual, "api")
				So(manager.metricPrefix, ShouldBeEmpty)
				So(manager.customLabels, ShouldResemble, map[string]string{"region": "kz"})
			})
		})

		Convey("When latency buckets are not strictly increasing", func() {
			manager := NewManager(WithLatencyBuckets([]float64{1, 1, 2}))

			Convey("Then the defaults should be kept", func() {
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})

		Convey("When latency buckets are valid", func() {
			buckets := []float64{5, 50, 500}
			manager := NewManager(WithLatencyBuckets(buckets))
			buckets[0] = 1000

			Convey("Then a copy should be used", func() {
				So(manager.histogramBuckets, ShouldResemble, []float64{5, 50, 500})
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should be enabled with the default refresh interval", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithPrefix("x_"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithEnabled(false),
				WithRefreshInterval(10*time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithRegistry(registry),
			)
			manager.achievementsSubmitted.Inc()

			Convey("Then names and labels should follow the options", func() {
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 10*time.Second)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_x_achievements_submitted_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording classifications", func() {
			before := testutil.ToFloat64(current().classifications.WithLabelValues("local_fallback"))
			RecordClassification("local_fallback")
			RecordClassification("local_fallback")

			Convey("Then the provider counter should grow", func() {
				after := testutil.ToFloat64(current().classifications.WithLabelValues("local_fallback"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording strategy failures and remote latency", func() {
			So(func() {
				RecordStrategyFailure("openrouter", "timeout")
				RecordRemoteClassifyLatency("error", 40000)
				RecordRemoteClassifyLatency("ok", 850)
			}, ShouldNotPanic)
		})

		Convey("When awarding coins", func() {
			before := testutil.ToFloat64(current().coinsAwarded)
			RecordCoinsAwarded(45)
			RecordCoinsAwarded(0)
			RecordCoinsAwarded(-3)

			Convey("Then only positive amounts should count", func() {
				So(testutil.ToFloat64(current().coinsAwarded)-before, ShouldEqual, 45)
			})
		})

		Convey("When recording business and system metrics", func() {
			So(func() {
				RecordAchievementSubmitted()
				RecordScoreComputation(20.91)
				UpdateTotalUsers(12)
				UpdateTotalAchievements(40)
				RecordHTTPRequest("/achievements", "POST", "201")
				RecordHTTPRequestDuration("/achievements", "POST", "201", 12.5)
				RecordRepositoryQueryLatency("approved_by_user", 1.5)
				RecordErrorByComponent("repository", "not_found")
				RecordErrorByEndpoint("/achievements/{id}", "GET", "not_found")
				UpdateSystemMemoryUsage(1024 * 1024 * 100)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(1.0)
			}, ShouldNotPanic)

			Convey("Then the gauges should hold the last value", func() {
				So(testutil.ToFloat64(current().totalUsers), ShouldEqual, 12)
				So(testutil.ToFloat64(current().totalAchievements), ShouldEqual, 40)
			})
		})
	})
}

func TestRegistryExposition(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordClassification("openrouter")
		families, err := GetRegistry().Gather()

		Convey("Then it should expose namespaced metrics only", func() {
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "socgpa_api_"), ShouldBeTrue)
			}
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			done := make(chan bool, 10)

			for i := 0; i < 10; i++ {
				go func() {
					for j := 0; j < 100; j++ {
						RecordClassification("local_fallback")
						RecordHTTPRequest("/classify", "POST", "200")
						RecordScoreComputation(float64(j % 40))
					}
					done <- true
				}()
			}

			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then it should handle concurrent access without panics", func() {
				So(true, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsOptionsValidation(t *testing.T) {
	Convey("Given metrics options validation", t, func() {
		Convey("When options carry empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithPrefix(""),
				WithLatencyBuckets(nil),
				WithConstLabels(nil),
				WithRefreshInterval(-1*time.Second),
				WithRegistry(nil),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "socgpa")
				So(manager.subsystem, ShouldEqual, "api")
				So(manager.metricPrefix, ShouldBeEmpty)
				So(manager.customLabels, ShouldBeEmpty)
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.Registry(), ShouldNotBeNil)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a reconfigured global manager", t, func() {
		previous := current()
		Reset(func() { global.Store(previous) })

		reg := Configure(
			WithNamespace("campus"),
			WithEnabled(true),
			WithRefreshInterval(3*time.Second),
			WithConstLabels(map[string]string{"region": "kz"}),
		)
		RecordAchievementSubmitted()

		Convey("Then the package functions should use the new registry", func() {
			So(GetRegistry(), ShouldEqual, reg)
			So(RefreshInterval(), ShouldEqual, 3*time.Second)
			So(Enabled(), ShouldBeTrue)

			families, err := reg.Gather()
			So(err, ShouldBeNil)
			found := false
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "campus_api_"), ShouldBeTrue)
				if f.GetName() == "campus_api_achievements_submitted_total" {
					found = true
					So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1)
					So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "kz")
				}
			}
			So(found, ShouldBeTrue)
		})

		Convey("When recording is disabled", func() {
			Configure(WithEnabled(false))
			RecordAchievementSubmitted()
			RecordHTTPRequest("/healthz", "GET", "200")
			UpdateTotalUsers(7)

			Convey("Then nothing should be recorded", func() {
				So(Enabled(), ShouldBeFalse)
				So(testutil.ToFloat64(current().achievementsSubmitted), ShouldEqual, 0)
				So(testutil.ToFloat64(current().totalUsers), ShouldEqual, 0)
				So(testutil.CollectAndCount(current().httpRequests), ShouldEqual, 0)
			})
		})
	})
}
