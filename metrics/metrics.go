// Package metrics provides a prometheus-backed usage recorder for chat
// clients. Mount promhttp.Handler() to expose the counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/modelfleet/modelfleet/chat"
)

// Recorder counts requests and token usage per provider and model.
type Recorder struct {
	requests         *prometheus.CounterVec
	promptTokens     *prometheus.CounterVec
	completionTokens *prometheus.CounterVec
}

var _ chat.UsageRecorder = (*Recorder)(nil)

// NewRecorder builds a Recorder and registers its collectors. Pass
// prometheus.DefaultRegisterer unless you run a dedicated registry.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelfleet",
			Name:      "requests_total",
			Help:      "Completed chat requests by provider and model.",
		}, []string{"provider", "model"}),
		promptTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelfleet",
			Name:      "prompt_tokens_total",
			Help:      "Prompt tokens consumed by provider and model.",
		}, []string{"provider", "model"}),
		completionTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelfleet",
			Name:      "completion_tokens_total",
			Help:      "Completion tokens produced by provider and model.",
		}, []string{"provider", "model"}),
	}
	for _, c := range []prometheus.Collector{r.requests, r.promptTokens, r.completionTokens} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecordUsage adds one request's usage to the counters.
func (r *Recorder) RecordUsage(provider, model string, usage chat.RequestUsage) {
	labels := prometheus.Labels{"provider": provider, "model": model}
	r.requests.With(labels).Inc()
	r.promptTokens.With(labels).Add(float64(usage.PromptTokens))
	r.completionTokens.With(labels).Add(float64(usage.CompletionTokens))
}
