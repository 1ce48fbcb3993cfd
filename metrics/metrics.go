// metrics/metrics.go
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/gewnthar/flightbrief/notify"
)

// Recorder collects the figures of a single run. Batch jobs do not live long
// enough to be scraped, so the values are pushed to a Pushgateway at the end.
type Recorder struct {
	registry *prometheus.Registry

	fetched    prometheus.Gauge
	recent     prometheus.Gauge
	windowed   prometheus.Gauge
	deliveries *prometheus.GaugeVec
	duration   prometheus.Gauge
	lastRun    prometheus.Gauge
}

// NewRecorder registers the run metrics on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flightbrief_flights_fetched",
			Help: "Flight records returned by the provider in the last run.",
		}),
		recent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flightbrief_flights_recent",
			Help: "Flights inside the lookback window in the last run.",
		}),
		windowed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flightbrief_flights_windowed",
			Help: "Flights counted in the histogram windows in the last run.",
		}),
		deliveries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flightbrief_delivery_success",
			Help: "1 when the channel delivered in the last run, 0 otherwise.",
		}, []string{"channel"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flightbrief_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flightbrief_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.fetched, r.recent, r.windowed, r.deliveries, r.duration, r.lastRun)
	return r
}

// Registry exposes the underlying registry (used by the preview server).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveCounts(fetched, recent, windowed int) {
	r.fetched.Set(float64(fetched))
	r.recent.Set(float64(recent))
	r.windowed.Set(float64(windowed))
}

func (r *Recorder) ObserveDelivery(res notify.Result) {
	v := 0.0
	if res.OK {
		v = 1
	}
	r.deliveries.WithLabelValues(res.Channel).Set(v)
}

func (r *Recorder) ObserveRun(started, finished time.Time) {
	r.duration.Set(finished.Sub(started).Seconds())
	r.lastRun.Set(float64(finished.Unix()))
}

// Push sends the collected metrics to the Pushgateway at url, grouped by
// airport and report kind so departures and arrivals do not overwrite
// each other.
func (r *Recorder) Push(url, job, airport, kind string) error {
	err := push.New(url, job).
		Gatherer(r.registry).
		Grouping("airport", airport).
		Grouping("kind", kind).
		Push()
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
