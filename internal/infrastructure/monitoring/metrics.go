package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
	TxTotal       *prometheus.CounterVec
}

type BusinessMetrics struct {
	LedgerMovementsTotal    *prometheus.CounterVec
	LoanDecisionsTotal      *prometheus.CounterVec
	InstallmentPaymentTotal *prometheus.CounterVec
	NotificationsTotal      *prometheus.CounterVec
	OverdueLoansTotal       prometheus.Counter
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bank_backoffice_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
		TxTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_backoffice_db_transactions_total",
				Help: "Total number of database transactions by outcome.",
			},
			[]string{"outcome"},
		),
	}

	Business = BusinessMetrics{
		LedgerMovementsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_backoffice_ledger_movements_total",
				Help: "Total number of ledger movements by kind and status.",
			},
			[]string{"kind", "status"},
		),
		LoanDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_backoffice_loan_decisions_total",
				Help: "Total number of loan decisions by outcome.",
			},
			[]string{"decision", "status"},
		),
		InstallmentPaymentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_backoffice_installment_payments_total",
				Help: "Total number of installment payments by status.",
			},
			[]string{"status"},
		),
		NotificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_backoffice_notifications_total",
				Help: "Total number of notifications by kind and status.",
			},
			[]string{"kind", "status"},
		),
		OverdueLoansTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bank_backoffice_overdue_loans_total",
				Help: "Total number of loans found with overdue installments.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordTx(outcome string) {
	DB.TxTotal.WithLabelValues(outcome).Inc()
}

func RecordLedgerMovement(kind, status string) {
	Business.LedgerMovementsTotal.WithLabelValues(kind, status).Inc()
}

func RecordLoanDecision(decision, status string) {
	Business.LoanDecisionsTotal.WithLabelValues(decision, status).Inc()
}

func RecordInstallmentPayment(status string) {
	Business.InstallmentPaymentTotal.WithLabelValues(status).Inc()
}

func RecordNotification(kind, status string) {
	Business.NotificationsTotal.WithLabelValues(kind, status).Inc()
}

func RecordOverdueLoan() {
	Business.OverdueLoansTotal.Inc()
}

// Outcome maps an error to the status label used by the counters above.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
