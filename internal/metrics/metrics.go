package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/snapshot"
	"github.com/marcella-castro/check-pesquisa-mj/internal/validation"
)

const namespace = "checkpesquisa"

// Recorder holds the service's Prometheus collectors.
type Recorder struct {
	validations     prometheus.Counter
	records         *prometheus.CounterVec
	faults          *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	responses       *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		validations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "The total number of validation runs",
		}),
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_records_total",
			Help:      "Error records and notes produced, by category",
		}, []string{"category"}),
		faults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_faults_total",
			Help:      "Category validators that failed and were isolated",
		}, []string{"category"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_refreshes_total",
			Help:      "Snapshot refreshes by outcome",
		}, []string{"outcome"}),
		refreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_refresh_duration_seconds",
			Help:      "Time spent downloading a snapshot",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		responses: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_responses",
			Help:      "Responses held in the current snapshot, by category",
		}, []string{"category"}),
	}
}

// ObserveReport counts one validation run.
func (r *Recorder) ObserveReport(report *validation.Report) {
	r.validations.Inc()
	for c := range report.Errors {
		r.records.WithLabelValues(string(c)).Add(float64(report.Count(c)))
	}
	r.records.WithLabelValues(string(models.General)).Add(float64(len(report.General)))
	for _, c := range report.Faults {
		r.faults.WithLabelValues(string(c)).Inc()
	}
}

// RefreshDone implements snapshot.Observer.
func (r *Recorder) RefreshDone(err error, took time.Duration, s *snapshot.Snapshot) {
	r.refreshDuration.Observe(took.Seconds())
	if err != nil {
		r.refreshes.WithLabelValues("error").Inc()
		return
	}
	r.refreshes.WithLabelValues("success").Inc()
	for c, n := range s.Counts() {
		r.responses.WithLabelValues(c).Set(float64(n))
	}
}
