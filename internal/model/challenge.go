package model

import (
	"time"

	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
)

// Rules are the plan limits frozen into a challenge when it is created.
// Fractions apply to InitialBalance for the life of the account.
type Rules struct {
	DailyMaxLoss decimal.Decimal `json:"daily_max_loss"`
	TotalMaxLoss decimal.Decimal `json:"total_max_loss"`
	ProfitTarget decimal.Decimal `json:"profit_target"`
}

type Challenge struct {
	ID               string                `json:"id"`
	UserID           string                `json:"user_id"`
	Plan             types.PlanTier        `json:"plan"`
	Rules            Rules                 `json:"rules"`
	InitialBalance   decimal.Decimal       `json:"initial_balance"`
	CashBalance      decimal.Decimal       `json:"cash_balance"`
	Equity           decimal.Decimal       `json:"equity"`
	DailyRealizedPnL decimal.Decimal       `json:"daily_realized_pnl"`
	TotalRealizedPnL decimal.Decimal       `json:"total_realized_pnl"`
	DailyHighEquity  decimal.Decimal       `json:"daily_high_equity"`
	Status           types.ChallengeStatus `json:"status"`
	StatusReason     string                `json:"status_reason,omitempty"`
	TradeCount       int64                 `json:"trade_count"`
	LastTradeHash    string                `json:"-"`
	Version          int64                 `json:"-"`
	StartDate        time.Time             `json:"start_date"`
	EndDate          *time.Time            `json:"end_date,omitempty"`
	DailyResetAt     *time.Time            `json:"daily_reset_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

func (c Challenge) Active() bool {
	return c.Status == types.ChallengeStatusActive
}

// ProfitPercent is (equity - initial) / initial expressed in percent.
func (c Challenge) ProfitPercent() decimal.Decimal {
	if !c.InitialBalance.IsPositive() {
		return decimal.Zero
	}
	return c.Equity.Sub(c.InitialBalance).Div(c.InitialBalance).Mul(decimal.NewFromInt(100)).Round(2)
}
