package challenge

import (
	"lv-tradesense/internal/model"
	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
)

type LossRule struct {
	Current  decimal.Decimal `json:"current"`
	Limit    decimal.Decimal `json:"limit"`
	Breached bool            `json:"breached"`
}

type TargetRule struct {
	Current  decimal.Decimal `json:"current"`
	Target   decimal.Decimal `json:"target"`
	Achieved bool            `json:"achieved"`
}

type Rules struct {
	DailyLoss    LossRule   `json:"daily_loss"`
	TotalLoss    LossRule   `json:"total_loss"`
	ProfitTarget TargetRule `json:"profit_target"`
}

type StatusReport struct {
	Challenge model.Challenge `json:"challenge"`
	Rules     Rules           `json:"rules"`
}

// Report describes rule progress from the cached equity. Loss figures are negative
// percentages of the initial balance.
func Report(c model.Challenge) StatusReport {
	daily := percentOf(c.DailyHighEquity.Sub(c.Equity), c.InitialBalance).Neg()
	total := percentOf(c.Equity.Sub(c.InitialBalance), c.InitialBalance)
	dailyLimit := c.Rules.DailyMaxLoss.Mul(hundred).Neg()
	totalLimit := c.Rules.TotalMaxLoss.Mul(hundred).Neg()
	target := c.Rules.ProfitTarget.Mul(hundred)
	return StatusReport{
		Challenge: c,
		Rules: Rules{
			DailyLoss:    LossRule{Current: daily, Limit: dailyLimit, Breached: daily.LessThanOrEqual(dailyLimit)},
			TotalLoss:    LossRule{Current: total, Limit: totalLimit, Breached: total.LessThanOrEqual(totalLimit)},
			ProfitTarget: TargetRule{Current: total, Target: target, Achieved: total.GreaterThanOrEqual(target)},
		},
	}
}

type RuleUsage struct {
	DailyLossLimit decimal.Decimal `json:"daily_loss_limit"`
	TotalLossLimit decimal.Decimal `json:"total_loss_limit"`
	ProfitTarget   decimal.Decimal `json:"profit_target"`
	DailyLossUsed  decimal.Decimal `json:"daily_loss_used"`
	TotalLossUsed  decimal.Decimal `json:"total_loss_used"`
	ProfitAchieved decimal.Decimal `json:"profit_achieved"`
}

type Metrics struct {
	ChallengeID      string                `json:"challenge_id"`
	Status           types.ChallengeStatus `json:"status"`
	Plan             types.PlanTier        `json:"plan"`
	InitialBalance   decimal.Decimal       `json:"initial_balance"`
	CurrentEquity    decimal.Decimal       `json:"current_equity"`
	TotalPnL         decimal.Decimal       `json:"total_pnl"`
	TotalPnLPercent  decimal.Decimal       `json:"total_pnl_percent"`
	DailyPnL         decimal.Decimal       `json:"daily_pnl"`
	DailyPnLPercent  decimal.Decimal       `json:"daily_pnl_percent"`
	TotalRealizedPnL decimal.Decimal       `json:"total_realized_pnl"`
	TotalTrades      int                   `json:"total_trades"`
	WinningTrades    int                   `json:"winning_trades"`
	LosingTrades     int                   `json:"losing_trades"`
	WinRate          decimal.Decimal       `json:"win_rate"`
	LargestWin       decimal.Decimal       `json:"largest_win"`
	LargestLoss      decimal.Decimal       `json:"largest_loss"`
	Rules            RuleUsage             `json:"rules"`
}

func ComputeMetrics(c model.Challenge, trades []model.Trade) Metrics {
	totalPnL := c.Equity.Sub(c.InitialBalance)
	totalPct := percentOf(totalPnL, c.InitialBalance)
	dailyPct := percentOf(c.DailyRealizedPnL, c.InitialBalance)
	m := Metrics{
		ChallengeID:      c.ID,
		Status:           c.Status,
		Plan:             c.Plan,
		InitialBalance:   c.InitialBalance,
		CurrentEquity:    c.Equity,
		TotalPnL:         totalPnL.Round(2),
		TotalPnLPercent:  totalPct,
		DailyPnL:         c.DailyRealizedPnL.Round(2),
		DailyPnLPercent:  dailyPct,
		TotalRealizedPnL: c.TotalRealizedPnL.Round(2),
		TotalTrades:      len(trades),
		WinRate:          decimal.Zero,
		LargestWin:       decimal.Zero,
		LargestLoss:      decimal.Zero,
	}
	for _, t := range trades {
		if t.RealizedProfit == nil {
			continue
		}
		p := *t.RealizedProfit
		switch {
		case p.IsPositive():
			m.WinningTrades++
		case p.IsNegative():
			m.LosingTrades++
		}
		if p.GreaterThan(m.LargestWin) {
			m.LargestWin = p
		}
		if p.LessThan(m.LargestLoss) {
			m.LargestLoss = p
		}
	}
	m.LargestWin = m.LargestWin.Round(2)
	m.LargestLoss = m.LargestLoss.Round(2)
	if m.TotalTrades > 0 {
		m.WinRate = decimal.NewFromInt(int64(m.WinningTrades)).Div(decimal.NewFromInt(int64(m.TotalTrades))).Mul(hundred).Round(1)
	}
	m.Rules = RuleUsage{
		DailyLossLimit: c.Rules.DailyMaxLoss.Mul(hundred),
		TotalLossLimit: c.Rules.TotalMaxLoss.Mul(hundred),
		ProfitTarget:   c.Rules.ProfitTarget.Mul(hundred),
		DailyLossUsed:  decimal.Min(dailyPct, decimal.Zero).Abs(),
		TotalLossUsed:  decimal.Min(totalPct, decimal.Zero).Abs(),
		ProfitAchieved: decimal.Max(totalPct, decimal.Zero),
	}
	return m
}

func percentOf(v, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return v.Div(base).Mul(hundred).Round(2)
}
