package challenge

import (
	"testing"

	"lv-tradesense/internal/model"
	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func profit(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestReport(t *testing.T) {
	c := starter()
	c.Equity = d("4600")
	c.DailyHighEquity = d("4800")

	r := Report(*c)
	assert.Equal(t, "-4", r.Rules.DailyLoss.Current.String())
	assert.Equal(t, "-5", r.Rules.DailyLoss.Limit.String())
	assert.False(t, r.Rules.DailyLoss.Breached)
	assert.Equal(t, "-8", r.Rules.TotalLoss.Current.String())
	assert.False(t, r.Rules.TotalLoss.Breached)
	assert.False(t, r.Rules.ProfitTarget.Achieved)

	c.Equity = d("5600")
	c.DailyHighEquity = d("5600")
	r = Report(*c)
	assert.True(t, r.Rules.ProfitTarget.Achieved)
}

func TestComputeMetrics(t *testing.T) {
	c := starter()
	c.Equity = d("5150")
	c.DailyRealizedPnL = d("-50")
	c.TotalRealizedPnL = d("150")
	trades := []model.Trade{
		{Side: types.TradeSideBuy},
		{Side: types.TradeSideSell, RealizedProfit: profit("200")},
		{Side: types.TradeSideBuy},
		{Side: types.TradeSideSell, RealizedProfit: profit("-50")},
	}

	m := ComputeMetrics(*c, trades)
	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 1, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.Equal(t, "25", m.WinRate.String())
	assert.Equal(t, "200", m.LargestWin.String())
	assert.Equal(t, "-50", m.LargestLoss.String())
	assert.Equal(t, "150", m.TotalPnL.String())
	assert.Equal(t, "3", m.TotalPnLPercent.String())
	assert.Equal(t, "1", m.Rules.DailyLossUsed.String())
	assert.Equal(t, "0", m.Rules.TotalLossUsed.String())
	assert.Equal(t, "3", m.Rules.ProfitAchieved.String())
	assert.Equal(t, "10", m.Rules.ProfitTarget.String())
}

func TestComputeMetricsNoTrades(t *testing.T) {
	m := ComputeMetrics(*starter(), nil)
	assert.Equal(t, 0, m.TotalTrades)
	assert.True(t, m.WinRate.IsZero())
}
