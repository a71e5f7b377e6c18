package tenancy

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects tenancy counters. A nil *Metrics records nothing.
type Metrics struct {
	Resolutions      *prometheus.CounterVec
	ResolveFailures  *prometheus.CounterVec
	ResolveDuration  prometheus.Histogram
	Decisions        *prometheus.CounterVec
	CrossTenant      *prometheus.CounterVec
	Switches         *prometheus.CounterVec
	AuditWriteErrors prometheus.Counter
}

// NewMetrics registers the tenancy collectors with reg.
// Nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_resolutions_total",
			Help: "Tenant resolutions by the source that produced the tenant",
		}, []string{"source"}),
		ResolveFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_resolve_failures_total",
			Help: "Failed tenant resolutions by error kind",
		}, []string{"kind"}),
		ResolveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tenancy_resolve_duration_seconds",
			Help:    "Duration of uncached tenant resolutions",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_decisions_total",
			Help: "Access decisions by action, resource kind and outcome",
		}, []string{"action", "kind", "decision"}),
		CrossTenant: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_cross_tenant_attempts_total",
			Help: "Accesses to resources of another tenant",
		}, []string{"decision"}),
		Switches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_switches_total",
			Help: "Tenant switch attempts by outcome",
		}, []string{"decision"}),
		AuditWriteErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "tenancy_audit_write_errors_total",
			Help: "Audit records that could not be stored",
		}),
	}
}

func (m *Metrics) observeResolve(source Source, err error, start time.Time) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.ResolveFailures.WithLabelValues(errorKind(err)).Inc()
		return
	}
	m.Resolutions.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) observeDecision(action Action, kind ResourceKind, d Decision) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(string(action), string(kind), d.String()).Inc()
}

func (m *Metrics) observeCrossTenant(d Decision) {
	if m == nil {
		return
	}
	m.CrossTenant.WithLabelValues(d.String()).Inc()
}

func (m *Metrics) observeSwitch(d Decision) {
	if m == nil {
		return
	}
	m.Switches.WithLabelValues(d.String()).Inc()
}

func (m *Metrics) observeAuditError() {
	if m == nil {
		return
	}
	m.AuditWriteErrors.Inc()
}

// errorKind maps an error onto a low-cardinality label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrContextMissing):
		return "context_missing"
	case errors.Is(err, ErrTenantInactive):
		return "tenant_inactive"
	case errors.Is(err, ErrCrossTenantAccess):
		return "cross_tenant"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	default:
		return "internal"
	}
}
