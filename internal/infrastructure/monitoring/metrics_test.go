package monitoring

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLedgerMovement(t *testing.T) {
	Business.LedgerMovementsTotal.Reset()

	RecordLedgerMovement("deposit", "success")
	RecordLedgerMovement("deposit", "success")
	RecordLedgerMovement("withdrawal", "error")

	expected := `
		# HELP bank_backoffice_ledger_movements_total Total number of ledger movements by kind and status.
		# TYPE bank_backoffice_ledger_movements_total counter
		bank_backoffice_ledger_movements_total{kind="deposit",status="success"} 2
		bank_backoffice_ledger_movements_total{kind="withdrawal",status="error"} 1
	`
	if err := testutil.CollectAndCompare(Business.LedgerMovementsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics for ledger movements: %v", err)
	}
}

func TestRecordDBQuery(t *testing.T) {
	DB.QueryDuration.Reset()

	RecordDBQuery("LockAccount", "success", 3*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(DB.QueryDuration))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}
