package channel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediasoup",
		Subsystem: "channel",
		Name:      "requests_total",
		Help:      "Requests sent to workers by method and outcome",
	}, []string{"channel", "method", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mediasoup",
		Subsystem: "channel",
		Name:      "request_duration_seconds",
		Help:      "Time from enqueue to worker response",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 5},
	}, []string{"channel", "method"})

	requestsInflight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mediasoup",
		Subsystem: "channel",
		Name:      "requests_inflight",
		Help:      "Requests waiting for a worker response",
	}, []string{"channel"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediasoup",
		Subsystem: "channel",
		Name:      "notifications_total",
		Help:      "Notifications received from workers",
	}, []string{"channel", "event"})

	notificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediasoup",
		Subsystem: "channel",
		Name:      "notifications_dropped_total",
		Help:      "Buffered notifications dropped before their target registered",
	}, []string{"channel", "reason"})

	unexpectedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediasoup",
		Subsystem: "channel",
		Name:      "unexpected_messages_total",
		Help:      "Frames that were neither JSON nor worker log lines",
	}, []string{"channel"})
)

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeTimeout  = "timeout"
	outcomeClosed   = "closed"
	outcomeCanceled = "canceled"
)
