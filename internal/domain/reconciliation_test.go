package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReconciliation(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 23, 59, 59, 999999999, time.UTC)

	t.Run("valid run", func(t *testing.T) {
		rec, err := NewReconciliation("merchant-1", ReconciliationTypeAutomatic, start, end)
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, ReconciliationStatusPending, rec.Status)
		assert.Equal(t, ReconciliationTypeAutomatic, rec.Type)
		assert.Zero(t, rec.TotalAmountCents)
		assert.Zero(t, rec.MatchedAmountCents)
		assert.Empty(t, rec.Matches)
	})

	t.Run("window widened to whole days", func(t *testing.T) {
		rec, err := NewReconciliation("merchant-1", ReconciliationTypeAutomatic,
			time.Date(2026, 8, 1, 14, 30, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 9, 15, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, start, rec.StartDate)
		assert.Equal(t, end, rec.EndDate)
	})

	t.Run("equal start and end dates allowed", func(t *testing.T) {
		_, err := NewReconciliation("merchant-1", ReconciliationTypeManual, start, start)
		require.NoError(t, err)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := NewReconciliation("merchant-1", ReconciliationTypeAutomatic, end, start)
		require.Error(t, err)
		assert.Equal(t, ErrorCodeValidationDateRange, GetErrorCode(err))
	})

	t.Run("missing merchant rejected", func(t *testing.T) {
		_, err := NewReconciliation("", ReconciliationTypeAutomatic, start, end)
		require.Error(t, err)
		assert.Equal(t, ErrorCodeValidationMissingField, GetErrorCode(err))
	})
}

func TestReconciliation_StartProcessing(t *testing.T) {
	rec := newTestReconciliation(t)

	require.NoError(t, rec.StartProcessing(10000))
	assert.Equal(t, ReconciliationStatusProcessing, rec.Status)
	assert.Equal(t, int64(10000), rec.TotalAmountCents)

	err := rec.StartProcessing(10000)
	require.Error(t, err)
	assert.Equal(t, ErrorCodeInvalidStateTransition, GetErrorCode(err))
}

func TestReconciliation_AddMatch(t *testing.T) {
	t.Run("keeps matched amount in lock-step with matches", func(t *testing.T) {
		rec := newTestReconciliation(t)
		require.NoError(t, rec.StartProcessing(10000))

		require.NoError(t, rec.AddMatch("charge-1", 4000, "txn-1"))
		require.NoError(t, rec.AddMatch("charge-2", 3000, "txn-2"))

		assert.Len(t, rec.Matches, 2)
		assert.Equal(t, int64(7000), rec.MatchedAmountCents)
		assert.Equal(t, "charge-1", rec.Matches[0].ChargeID)
		assert.Equal(t, "txn-1", rec.Matches[0].TransactionID)
		assert.False(t, rec.Matches[0].MatchedAt.IsZero())
	})

	t.Run("rejected outside processing", func(t *testing.T) {
		rec := newTestReconciliation(t)

		err := rec.AddMatch("charge-1", 4000, "txn-1")
		require.Error(t, err)
		assert.Equal(t, ErrorCodeInvalidStateTransition, GetErrorCode(err))
	})
}

func TestReconciliation_UnmatchedSetsAreDeduped(t *testing.T) {
	rec := newTestReconciliation(t)
	require.NoError(t, rec.StartProcessing(10000))

	require.NoError(t, rec.AddUnmatchedCharge("charge-9"))
	require.NoError(t, rec.AddUnmatchedCharge("charge-9"))
	require.NoError(t, rec.AddUnmatchedTransaction("txn-9"))
	require.NoError(t, rec.AddUnmatchedTransaction("txn-9"))

	assert.Equal(t, []string{"charge-9"}, rec.UnmatchedCharges)
	assert.Equal(t, []string{"txn-9"}, rec.UnmatchedTransactions)
}

func TestReconciliation_Complete(t *testing.T) {
	t.Run("completed when everything matched", func(t *testing.T) {
		rec := newTestReconciliation(t)
		require.NoError(t, rec.StartProcessing(7000))
		require.NoError(t, rec.AddMatch("charge-1", 7000, "txn-1"))

		require.NoError(t, rec.Complete())
		assert.Equal(t, ReconciliationStatusCompleted, rec.Status)
		assert.NotNil(t, rec.ProcessedAt)
		assert.True(t, rec.IsTerminal())
	})

	t.Run("partial when any unmatched entry remains", func(t *testing.T) {
		rec := newTestReconciliation(t)
		require.NoError(t, rec.StartProcessing(10000))
		require.NoError(t, rec.AddMatch("charge-1", 4000, "txn-1"))
		require.NoError(t, rec.AddUnmatchedCharge("charge-2"))

		require.NoError(t, rec.Complete())
		assert.Equal(t, ReconciliationStatusPartial, rec.Status)
		assert.True(t, rec.IsTerminal())
	})

	t.Run("partial on unmatched transaction only", func(t *testing.T) {
		rec := newTestReconciliation(t)
		require.NoError(t, rec.StartProcessing(10000))
		require.NoError(t, rec.AddUnmatchedTransaction("txn-2"))

		require.NoError(t, rec.Complete())
		assert.Equal(t, ReconciliationStatusPartial, rec.Status)
	})

	t.Run("only processing runs can complete", func(t *testing.T) {
		rec := newTestReconciliation(t)

		err := rec.Complete()
		require.Error(t, err)
		assert.Equal(t, ErrorCodeInvalidStateTransition, GetErrorCode(err))
	})
}

func TestReconciliation_Fail_RetainsPartialData(t *testing.T) {
	rec := newTestReconciliation(t)
	require.NoError(t, rec.StartProcessing(10000))
	require.NoError(t, rec.AddMatch("charge-1", 4000, "txn-1"))
	require.NoError(t, rec.AddUnmatchedCharge("charge-2"))

	require.NoError(t, rec.Fail("statement download aborted"))
	assert.Equal(t, ReconciliationStatusFailed, rec.Status)
	assert.Equal(t, "statement download aborted", rec.FailureReason)
	assert.Len(t, rec.Matches, 1)
	assert.Equal(t, int64(4000), rec.MatchedAmountCents)
	assert.Equal(t, []string{"charge-2"}, rec.UnmatchedCharges)

	// no further mutation after failure
	err := rec.AddMatch("charge-3", 1000, "txn-3")
	require.Error(t, err)
	assert.Equal(t, ErrorCodeInvalidStateTransition, GetErrorCode(err))
}

func TestReconciliation_MatchRate(t *testing.T) {
	tests := []struct {
		name         string
		totalCents   int64
		matchedCents []int64
		want         float64
	}{
		{"seventy percent", 10000, []int64{4000, 3000}, 70},
		{"full match", 7000, []int64{7000}, 100},
		{"zero total", 0, nil, 0},
		{"no matches", 10000, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestReconciliation(t)
			require.NoError(t, rec.StartProcessing(tt.totalCents))
			for _, cents := range tt.matchedCents {
				require.NoError(t, rec.AddMatch("charge", cents, "txn"))
			}

			assert.InDelta(t, tt.want, rec.MatchRate(), 0.0001)
		})
	}
}

func newTestReconciliation(t *testing.T) *Reconciliation {
	t.Helper()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	rec, err := NewReconciliation("merchant-1", ReconciliationTypeAutomatic, start, end)
	require.NoError(t, err)
	return rec
}
