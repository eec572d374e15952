package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulletin_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StoreMutations counts store transactions by operation and result (committed, aborted, failed).
	StoreMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulletin_store_mutations_total",
		Help: "Total number of entity store mutations by operation and result",
	}, []string{"operation", "result"})

	// StoreMutationLatency records how long the global mutation boundary is held.
	StoreMutationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bulletin_store_mutation_latency_seconds",
		Help:    "Entity store mutation latency in seconds, including the durable flush",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// StoreReinitTotal counts re-initializations from the seed state.
	StoreReinitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulletin_store_reinit_total",
		Help: "Total number of times durable state was replaced by the seed state",
	}, []string{"reason"})

	// NotificationsTotal counts notification delivery attempts by kind and result.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulletin_notifications_total",
		Help: "Total number of notification delivery attempts",
	}, []string{"kind", "result"})

	// ConversationsOpen is the gauge of open multi-step conversations.
	ConversationsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bulletin_conversations_open",
		Help: "Number of users with an open multi-step conversation",
	})

	// ConversationTransitions counts conversation events by flow and outcome.
	ConversationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulletin_conversation_transitions_total",
		Help: "Total conversation transitions by flow and outcome",
	}, []string{"flow", "outcome"})

	// DispatchEvents counts dispatcher entry point invocations by outcome (ok, refused, error).
	DispatchEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulletin_dispatch_events_total",
		Help: "Total dispatcher events by entry point and outcome",
	}, []string{"entry", "outcome"})
)

// TrackMutation returns a function that records mutation latency when called (e.g. defer).
func TrackMutation(operation string) func() {
	start := time.Now()
	return func() {
		StoreMutationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
