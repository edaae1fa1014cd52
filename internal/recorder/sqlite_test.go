package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder(t *testing.T) {
	r, err := OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, r.RecordEvaluation(Evaluation{
			ChallengeID:     "c1",
			UserID:          "u1",
			Trigger:         "trade",
			Status:          types.ChallengeStatusActive,
			Equity:          decimal.NewFromInt(5000),
			CashBalance:     decimal.NewFromInt(5000),
			DailyHighEquity: decimal.NewFromInt(5000),
			At:              time.Now(),
		}))
	}
	require.NoError(t, r.RecordReset(Reset{ChallengeID: "c1", Equity: decimal.NewFromInt(5000), At: time.Now()}))

	n, err := r.CountEvaluations("c1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = r.CountEvaluations("c2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNoop(t *testing.T) {
	var r Recorder = NewNoop()
	assert.NoError(t, r.RecordEvaluation(Evaluation{}))
	assert.NoError(t, r.RecordReset(Reset{}))
	assert.NoError(t, r.Close())
}
