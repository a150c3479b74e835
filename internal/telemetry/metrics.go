package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_resolutions_total",
		Help: "Active payment resolutions by outcome (user, global, none).",
	}, []string{"outcome"})

	DisplayLogs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_display_logs_total",
		Help: "Display log calls by result (created, deduplicated).",
	}, []string{"result"})

	TransactionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transactions_submitted_total",
		Help: "Payment proof submissions by result (created, duplicate).",
	}, []string{"result"})

	TransactionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transaction_transitions_total",
		Help: "Reviewer status changes by target status.",
	}, []string{"to"})

	PaymentSetWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_set_writes_total",
		Help: "Payment configuration writes by operation.",
	}, []string{"op"})
)
