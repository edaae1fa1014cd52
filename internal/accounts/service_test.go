package accounts

import (
	"context"
	"testing"

	"lv-tradesense/internal/model"
	"lv-tradesense/internal/plans"
	"lv-tradesense/internal/store"
	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCopiesPlan(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory(), plans.Default())

	c, err := svc.Create(ctx, "u1", "Pro")
	require.NoError(t, err)
	assert.Equal(t, types.PlanTierPro, c.Plan)
	assert.Equal(t, types.ChallengeStatusActive, c.Status)
	for _, v := range []decimal.Decimal{c.InitialBalance, c.CashBalance, c.Equity, c.DailyHighEquity} {
		assert.True(t, v.Equal(decimal.NewFromInt(10000)))
	}
	assert.Equal(t, "0.05", c.Rules.DailyMaxLoss.String())
	assert.Nil(t, c.EndDate)
}

func TestCreateRules(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewService(st, plans.Default())

	_, err := svc.Create(ctx, "u1", "gold")
	assert.ErrorIs(t, err, ErrInvalidPlan)

	first, err := svc.Create(ctx, "u1", "starter")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", "elite")
	assert.ErrorIs(t, err, ErrActiveExists)

	// Once the first one finishes a new one may start.
	first.Status = types.ChallengeStatusFailed
	_, err = st.Apply(ctx, store.Changeset{Challenge: first})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "u1", "elite")
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	active, err := svc.Active(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestGetIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory(), plans.Default())
	c, err := svc.Create(ctx, "u1", "starter")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Active(ctx, "u2")
	assert.ErrorIs(t, err, ErrNoActive)

	got, err := svc.Resolve(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestStatusAndMetrics(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewService(st, plans.Default())
	c, err := svc.Create(ctx, "u1", "starter")
	require.NoError(t, err)

	c.Equity = decimal.NewFromInt(4700)
	profit := decimal.NewFromInt(-300)
	_, err = st.Apply(ctx, store.Changeset{Challenge: c, Trade: &model.Trade{ID: "t1", ChallengeID: c.ID, Sequence: 1, RealizedProfit: &profit}})
	require.NoError(t, err)

	report, err := svc.Status(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "-6", report.Rules.TotalLoss.Current.String())
	assert.False(t, report.Rules.TotalLoss.Breached)

	m, err := svc.Metrics(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, m.TotalTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.Equal(t, "-300", m.LargestLoss.String())
}
