package model

import (
	"time"

	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
)

// Trade is an append-only journal entry. A sell records the position's cost basis as
// EntryPrice and the fill as ExitPrice.
type Trade struct {
	ID             string            `json:"id"`
	ChallengeID    string            `json:"challenge_id"`
	UserID         string            `json:"user_id"`
	Sequence       int64             `json:"sequence"`
	Symbol         string            `json:"symbol"`
	Side           types.TradeSide   `json:"side"`
	Status         types.TradeStatus `json:"status"`
	Quantity       decimal.Decimal   `json:"quantity"`
	EntryPrice     decimal.Decimal   `json:"entry_price"`
	ExitPrice      *decimal.Decimal  `json:"exit_price,omitempty"`
	RealizedProfit *decimal.Decimal  `json:"realized_profit,omitempty"`
	ExecutedAt     time.Time         `json:"executed_at"`
	ClosedAt       *time.Time        `json:"closed_at,omitempty"`
	PrevHash       string            `json:"prev_hash,omitempty"`
	Hash           string            `json:"hash"`
}

// FillPrice is the price the trade executed at.
func (t Trade) FillPrice() decimal.Decimal {
	if t.ExitPrice != nil {
		return *t.ExitPrice
	}
	return t.EntryPrice
}

func (t Trade) Value() decimal.Decimal {
	return t.Quantity.Mul(t.FillPrice())
}

type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"as_of"`
}
