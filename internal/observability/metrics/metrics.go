package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat dispatch flow.
type ChatMetrics struct {
	inboundTotal  *prometheus.CounterVec
	toolCallTotal *prometheus.CounterVec
	turnLatency   *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "dispatch",
			Name:      "inbound_total",
			Help:      "Total inbound chat messages by reply outcome",
		}, []string{"outcome"}),
		toolCallTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "dispatch",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations requested by the model",
		}, []string{"function"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatbot",
			Subsystem: "dispatch",
			Name:      "model_turn_seconds",
			Help:      "Latency of model turns",
			Buckets:   prometheus.DefBuckets,
		}, []string{"turn"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.toolCallTotal, m.turnLatency)
	return m
}

func (m *ChatMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveToolCall(function string) {
	if m == nil {
		return
	}
	m.toolCallTotal.WithLabelValues(function).Inc()
}

func (m *ChatMetrics) ObserveTurnLatency(turn string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(turn).Observe(seconds)
}
