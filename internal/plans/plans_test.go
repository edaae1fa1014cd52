package plans

import (
	"testing"

	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat := Default()
	tests := []struct {
		tier    types.PlanTier
		balance int64
		price   int64
	}{
		{types.PlanTierStarter, 5000, 200},
		{types.PlanTierPro, 10000, 500},
		{types.PlanTierElite, 25000, 1000},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			p, ok := cat.Lookup(tt.tier)
			require.True(t, ok)
			assert.True(t, p.InitialBalance.Equal(decimal.NewFromInt(tt.balance)))
			assert.True(t, p.PriceDH.Equal(decimal.NewFromInt(tt.price)))
			assert.Equal(t, "0.05", p.DailyMaxLoss.String())
			assert.Equal(t, "0.1", p.TotalMaxLoss.String())
			assert.Equal(t, "0.1", p.ProfitTarget.String())
		})
	}

	list := cat.List()
	require.Len(t, list, 3)
	assert.Equal(t, types.PlanTierStarter, list[0].Tier)
	assert.Equal(t, types.PlanTierElite, list[2].Tier)
}

func TestLookupReturnsCopy(t *testing.T) {
	cat := Default()
	p, _ := cat.Lookup(types.PlanTierPro)
	p.Features[0] = "changed"
	again, _ := cat.Lookup(types.PlanTierPro)
	assert.NotEqual(t, "changed", again.Features[0])
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" Elite ")
	require.NoError(t, err)
	assert.Equal(t, types.PlanTierElite, tier)

	_, err = ParseTier("platinum")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestParseOverrides(t *testing.T) {
	raw := []byte(`
plans:
  starter:
    initial_balance: "7500"
    daily_max_loss: "0.04"
`)
	cat, err := Parse(raw)
	require.NoError(t, err)
	p, _ := cat.Lookup(types.PlanTierStarter)
	assert.True(t, p.InitialBalance.Equal(decimal.NewFromInt(7500)))
	assert.Equal(t, "0.04", p.DailyMaxLoss.String())
	assert.Equal(t, "0.1", p.TotalMaxLoss.String())
	assert.Equal(t, "Starter", p.Name)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown tier", "plans:\n  gold:\n    name: Gold\n"},
		{"fraction too large", "plans:\n  pro:\n    total_max_loss: \"1.5\"\n"},
		{"negative balance", "plans:\n  pro:\n    initial_balance: \"-10\"\n"},
		{"not yaml", "plans: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}
