// Package metrics exports Prometheus metrics for the model pipelines.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lanternworks/lanternworks/ai/gateway"
)

// Pipeline label values.
const (
	PipelineBriefing     = "briefing"
	PipelineStorytelling = "storytelling"
)

// Recorder registers and updates pipeline metrics. A nil *Recorder is a
// valid no-op so call sites never need to guard.
type Recorder struct {
	registry *prometheus.Registry

	pipelineRuns     *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec

	modelCalls    *prometheus.CounterVec
	modelTokens   *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lanternworks_pipeline_runs_total",
			Help: "Pipeline run outcomes by pipeline and status.",
		}, []string{"pipeline", "status"}),
		pipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lanternworks_pipeline_duration_seconds",
			Help:    "End-to-end pipeline run duration.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"pipeline"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lanternworks_model_calls_total",
			Help: "Model call outcomes by pipeline, step and status.",
		}, []string{"pipeline", "step", "status"}),
		modelTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lanternworks_model_tokens_total",
			Help: "Token usage by pipeline, step and direction.",
		}, []string{"pipeline", "step", "direction"}),
		modelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lanternworks_model_call_duration_seconds",
			Help:    "Single model call duration.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"pipeline", "step"}),
	}

	registry.MustRegister(r.pipelineRuns, r.pipelineDuration, r.modelCalls, r.modelTokens, r.modelDuration)
	return r
}

// Handler returns the HTTP handler serving this recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObservePipelineRun records one completed or failed pipeline run.
func (r *Recorder) ObservePipelineRun(pipeline string, ok bool, duration time.Duration) {
	if r == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	r.pipelineRuns.WithLabelValues(pipeline, status).Inc()
	r.pipelineDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
}

// ObserveModelCall records one model call, including token usage when the
// gateway returned stats.
func (r *Recorder) ObserveModelCall(pipeline, step string, stats *gateway.CallStats, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.modelCalls.WithLabelValues(pipeline, step, status).Inc()
	if stats != nil {
		r.modelTokens.WithLabelValues(pipeline, step, "prompt").Add(float64(stats.PromptTokens))
		r.modelTokens.WithLabelValues(pipeline, step, "completion").Add(float64(stats.CompletionTokens))
		r.modelDuration.WithLabelValues(pipeline, step).Observe(float64(stats.TotalDurationMs) / 1000)
	}
}
