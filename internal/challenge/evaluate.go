// Package challenge decides whether a challenge continues, passes or fails.
// Everything here is pure; callers serialize access per challenge.
package challenge

import (
	"fmt"
	"time"

	"lv-tradesense/internal/ledger"
	"lv-tradesense/internal/model"
	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Result struct {
	Status types.ChallengeStatus `json:"status"`
	Reason string                `json:"reason"`
	// Transitioned is true only for the pass that moved the challenge out of active.
	Transitioned bool `json:"transitioned"`
}

// Evaluate recomputes equity from cash and marked positions and applies the loss and
// profit rules in order against that single snapshot. The first breach wins. A
// challenge that is already terminal is returned untouched with its stored reason.
func Evaluate(c *model.Challenge, positions []model.Position, now time.Time) Result {
	if c.Status.Terminal() {
		return Result{Status: c.Status, Reason: c.StatusReason}
	}

	equity := c.CashBalance.Add(ledger.MarketValue(positions))
	c.Equity = equity
	if equity.GreaterThan(c.DailyHighEquity) {
		c.DailyHighEquity = equity
	}
	c.UpdatedAt = now

	initial := c.InitialBalance
	dailyDrawdown := c.DailyHighEquity.Sub(equity).Div(initial)
	if dailyDrawdown.GreaterThanOrEqual(c.Rules.DailyMaxLoss) {
		return finish(c, types.ChallengeStatusFailed, fmt.Sprintf("Daily loss limit exceeded: -%s%% (max -%s%%)",
			pct(dailyDrawdown), limitPct(c.Rules.DailyMaxLoss)), now)
	}

	totalDrawdown := initial.Sub(equity).Div(initial)
	if totalDrawdown.GreaterThanOrEqual(c.Rules.TotalMaxLoss) {
		return finish(c, types.ChallengeStatusFailed, fmt.Sprintf("Total loss limit exceeded: -%s%% (max -%s%%)",
			pct(totalDrawdown), limitPct(c.Rules.TotalMaxLoss)), now)
	}

	gain := equity.Sub(initial).Div(initial)
	if gain.GreaterThanOrEqual(c.Rules.ProfitTarget) {
		return finish(c, types.ChallengeStatusPassed, fmt.Sprintf("Profit target reached: +%s%% (target +%s%%)",
			pct(gain), limitPct(c.Rules.ProfitTarget)), now)
	}

	sign := "+"
	if gain.IsNegative() {
		sign = "-"
	}
	return Result{
		Status: types.ChallengeStatusActive,
		Reason: fmt.Sprintf("Challenge continues. P&L: %s%s%%", sign, pct(gain.Abs())),
	}
}

func finish(c *model.Challenge, status types.ChallengeStatus, reason string, now time.Time) Result {
	c.Status = status
	c.StatusReason = reason
	if c.EndDate == nil {
		end := now
		c.EndDate = &end
	}
	return Result{Status: status, Reason: reason, Transitioned: true}
}

// ResetDay starts a new trading day: the high-water mark drops to current equity and
// the daily realized PnL is cleared. Applying it twice is the same as applying it once.
func ResetDay(c *model.Challenge, now time.Time) {
	c.DailyHighEquity = c.Equity
	c.DailyRealizedPnL = decimal.Zero
	at := now
	c.DailyResetAt = &at
	c.UpdatedAt = now
}

func pct(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).StringFixed(2)
}

func limitPct(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).String()
}
