package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deepfake-detector/internal/domain/entity"
	"deepfake-detector/internal/domain/port"
)

const namespace = "deepfake_detector"

// Recorder собирает метрики конвейера в собственный реестр Prometheus.
type Recorder struct {
	registry *prometheus.Registry
	stages   *prometheus.HistogramVec
	verdicts *prometheus.CounterVec
	regions  prometheus.Histogram
	failures *prometheus.CounterVec
}

// NewRecorder регистрирует метрики конвейера и стандартные метрики процесса.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"stage"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Verdicts by label.",
		}, []string{"label"}),
		regions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "regions_per_image",
			Help:      "Number of detector regions per image.",
			Buckets:   []float64{0, 1, 2, 5, 10, 50, 300},
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed detections by error kind.",
		}, []string{"kind"}),
	}

	r.registry.MustRegister(
		r.stages, r.verdicts, r.regions, r.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveStage записывает длительность этапа.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordVerdict учитывает вердикт и число областей.
func (r *Recorder) RecordVerdict(v entity.Verdict, regions int) {
	r.verdicts.WithLabelValues(string(v.Label)).Inc()
	r.regions.Observe(float64(regions))
}

// RecordFailure учитывает неудачный запрос.
func (r *Recorder) RecordFailure(kind string) {
	r.failures.WithLabelValues(kind).Inc()
}

// Handler возвращает обработчик /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

var _ port.MetricsRecorder = (*Recorder)(nil)
