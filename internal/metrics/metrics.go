package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rickgao/casualty-monitor/internal/model"
	"github.com/rickgao/casualty-monitor/internal/pipeline"
)

const namespace = "casualty_monitor"

// Fetch status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	fetchTotal        *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	skippedTotal      *prometheus.CounterVec
	totalDeaths       prometheus.Gauge
	injured           prometheus.Gauge
	children          prometheus.Gauge
	men               prometheus.Gauge
	women             prometheus.Gauge
	lastSnapshot      prometheus.Gauge
	streamSubscribers prometheus.Gauge
	apiErrors         *prometheus.CounterVec
}

// New registers all collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_fetch_total",
				Help:      "Total number of dataset fetches by dataset and status",
			},
			[]string{"dataset", "status"},
		),
		fetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dataset_fetch_duration_seconds",
				Help:      "Dataset fetch duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"dataset"},
		),
		skippedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "malformed_elements_skipped_total",
				Help:      "Total number of dataset elements skipped as malformed",
			},
			[]string{"dataset"},
		),
		totalDeaths: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_deaths",
			Help:      "Highest cumulative killed count in the current snapshot",
		}),
		injured: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cumulative_injured",
			Help:      "Highest cumulative injured count in the current snapshot",
		}),
		children: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "children_killed",
			Help:      "Named records with a known age under 18",
		}),
		men: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "men_killed",
			Help:      "Named records with sex male",
		}),
		women: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "women_killed",
			Help:      "Named records with sex female",
		}),
		lastSnapshot: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_timestamp_seconds",
			Help:      "Unix time the current snapshot was fetched",
		}),
		streamSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_subscribers",
			Help:      "Currently connected live stream subscribers",
		}),
		apiErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by code, endpoint, and status",
			},
			[]string{"code", "endpoint", "status"},
		),
	}
}

// ObserveFetch records the outcome of one dataset fetch.
func (m *Metrics) ObserveFetch(dataset string, duration time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.fetchTotal.WithLabelValues(dataset, status).Inc()
	m.fetchDuration.WithLabelValues(dataset).Observe(duration.Seconds())
}

// ObserveSkipped records elements dropped while decoding a dataset.
func (m *Metrics) ObserveSkipped(dataset string, count int) {
	if count <= 0 {
		return
	}
	m.skippedTotal.WithLabelValues(dataset).Add(float64(count))
}

// ObserveSnapshot updates the headline gauges from a newly loaded snapshot.
func (m *Metrics) ObserveSnapshot(snap *model.Snapshot) {
	if snap == nil {
		return
	}
	s := pipeline.Summarize(snap.Records, snap.Reports)
	m.totalDeaths.Set(float64(s.TotalDeaths))
	m.injured.Set(float64(s.CumulativeInjured))
	m.children.Set(float64(s.ChildrenCount))
	m.men.Set(float64(s.MenCount))
	m.women.Set(float64(s.WomenCount))
	m.lastSnapshot.Set(float64(snap.FetchedAt.Unix()))
}

// SubscriberAdded increments the stream subscriber gauge.
func (m *Metrics) SubscriberAdded() { m.streamSubscribers.Inc() }

// SubscriberRemoved decrements the stream subscriber gauge.
func (m *Metrics) SubscriberRemoved() { m.streamSubscribers.Dec() }

// ObserveAPIError counts an error response from the HTTP API.
func (m *Metrics) ObserveAPIError(code, endpoint string, status int) {
	m.apiErrors.WithLabelValues(code, endpoint, strconv.Itoa(status)).Inc()
}
