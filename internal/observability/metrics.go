package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the orchestrator.
type Metrics struct {
	TransitionsTotal *prometheus.CounterVec
	WebhooksTotal    *prometheus.CounterVec
	SweepRunsTotal   *prometheus.CounterVec
	TicketErrors     *prometheus.CounterVec
}

// NewMetrics registers the orchestrator collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_status_transitions_total",
			Help: "Ticket status transitions handled, by new status slug.",
		}, []string{"status"}),
		WebhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_webhook_deliveries_total",
			Help: "Inbound webhook deliveries, by verification result.",
		}, []string{"result"}),
		SweepRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_sweep_runs_total",
			Help: "Reconciliation sweep runs, by sweep name.",
		}, []string{"sweep"}),
		TicketErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_ticket_errors_total",
			Help: "Workflow failures written to tickets, by error kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.TransitionsTotal, m.WebhooksTotal, m.SweepRunsTotal, m.TicketErrors)
	return m
}
