// Package metrics exposes the bot's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesHandled counts inbound messages by outcome.
	MessagesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surgepay_messages_handled_total",
		Help: "Inbound WhatsApp messages processed, by outcome.",
	}, []string{"outcome"})

	// SendFailures counts outbound deliveries that errored.
	SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surgepay_send_failures_total",
		Help: "Outbound messages that failed to deliver.",
	})

	// ActiveJobs tracks running background jobs.
	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surgepay_active_jobs",
		Help: "Background jobs currently running.",
	})

	// TransfersCreated counts quotes issued.
	TransfersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surgepay_transfers_created_total",
		Help: "Transfer quotes created.",
	})

	// TransfersSettled counts transfers confirmed for payment.
	TransfersSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surgepay_transfers_settled_total",
		Help: "Transfers confirmed and moved into settlement.",
	})
)
