package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the dialogue engine.
// A nil receiver is a no-op so tests can skip wiring.
type ConversationMetrics struct {
	turnsTotal    *prometheus.CounterVec
	toolRunsTotal *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	turnLatency   prometheus.Histogram
	leadHandoffs  prometheus.Counter
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brenda",
			Subsystem: "engine",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"stage", "outcome"}),
		toolRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brenda",
			Subsystem: "tools",
			Name:      "runs_total",
			Help:      "Total tool invocations",
		}, []string{"tool", "result"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "brenda",
			Subsystem: "llm",
			Name:      "completion_latency_seconds",
			Help:      "Latency of LLM completions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "brenda",
			Subsystem: "engine",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one turn",
			Buckets:   prometheus.DefBuckets,
		}),
		leadHandoffs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brenda",
			Subsystem: "advisor",
			Name:      "handoffs_total",
			Help:      "Total advisor emails dispatched",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.toolRunsTotal, m.llmLatency, m.turnLatency, m.leadHandoffs)
	return m
}

func (m *ConversationMetrics) ObserveTurn(stage, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(stage, outcome).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *ConversationMetrics) ObserveToolRun(tool, result string) {
	if m == nil {
		return
	}
	m.toolRunsTotal.WithLabelValues(tool, result).Inc()
}

func (m *ConversationMetrics) ObserveLLMLatency(path string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(path).Observe(seconds)
}

func (m *ConversationMetrics) ObserveHandoff() {
	if m == nil {
		return
	}
	m.leadHandoffs.Inc()
}
