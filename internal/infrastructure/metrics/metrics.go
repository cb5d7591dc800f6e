package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "akvora"

var (
	IdentifiersIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identifiers_issued_total",
		Help:      "Registrant identifiers issued.",
	})

	NotificationWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_writes_total",
		Help:      "Per-recipient notification record writes by result.",
	}, []string{"result"})

	PushAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_attempts_total",
		Help:      "Web-push delivery attempts by outcome.",
	}, []string{"outcome"})

	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_connections",
		Help:      "Open websocket connections on this instance.",
	})

	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_events_total",
		Help:      "Realtime events emitted by name.",
	}, []string{"event"})
)

// Label values.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"

	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
	OutcomeGone   = "gone"
)
