package httpapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"yashubustudio/segmenter/segmenter"
)

// Metrics are the prediction counters exposed on /metrics.
type Metrics struct {
	predictions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics registers the segmenter collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segmenter_predictions_total",
			Help: "Predictions served, by assigned cluster.",
		}, []string{"cluster"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segmenter_rejected_inputs_total",
			Help: "Prediction requests rejected for an out of range field.",
		}, []string{"field"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "segmenter_prediction_duration_seconds",
			Help:    "Time spent predicting and building the segment view.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
	}
	for _, c := range []prometheus.Collector{m.predictions, m.rejected, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observePrediction(id segmenter.ClusterID, elapsed time.Duration) {
	m.predictions.WithLabelValues(strconv.Itoa(int(id))).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeRejected(field string) {
	m.rejected.WithLabelValues(field).Inc()
}
