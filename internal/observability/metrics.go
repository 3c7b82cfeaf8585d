package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsPublished counts events the relay wrote to the stream, by type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joverflow_events_published_total",
		Help: "Total number of domain events published to the event stream",
	}, []string{"event_type"})

	// EventsConsumed counts events the projector processed, by type and result.
	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joverflow_events_consumed_total",
		Help: "Total number of domain events consumed from the event stream",
	}, []string{"event_type", "result"})

	// EventsDiscarded counts malformed or stale deliveries dropped by consumers.
	EventsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joverflow_events_discarded_total",
		Help: "Total number of deliveries discarded (malformed or stale)",
	}, []string{"reason"})

	// OutboxPending is the gauge of committed events not yet published.
	OutboxPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "joverflow_outbox_pending",
		Help: "Number of outbox events awaiting publication",
	})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joverflow_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)
