package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger.
type Metrics struct {
	// Ledger operation metrics
	EntriesWritten    *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	EntryAmount       prometheus.Histogram

	// Account metrics
	AccountsRegistered prometheus.Counter
	BalanceReads       prometheus.Counter

	// Audit metrics
	AuditChecks   prometheus.Counter
	AuditFailures prometheus.Counter
}

// New creates all metrics and registers them on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics and registers them on reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntriesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_entries_written_total",
				Help: "Total number of ledger entries written, by direction",
			},
			[]string{"direction"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operation_errors_total",
				Help: "Total number of failed ledger operations, by operation and error kind",
			},
			[]string{"operation", "error"},
		),
		EntryAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_entry_amount",
			Help:    "Entry amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		AccountsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_registered_total",
			Help: "Total number of accounts registered in the directory",
		}),
		BalanceReads: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_balance_reads_total",
			Help: "Total number of balance derivations",
		}),
		AuditChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_audit_checks_total",
			Help: "Total number of audit checks performed",
		}),
		AuditFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_audit_failures_total",
			Help: "Total number of audit checks that found an inconsistency",
		}),
	}
}
