package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a long holding of one symbol inside one challenge. A flat symbol has no
// Position at all.
type Position struct {
	ChallengeID       string          `json:"challenge_id"`
	Symbol            string          `json:"symbol"`
	Quantity          decimal.Decimal `json:"quantity"`
	AverageEntryPrice decimal.Decimal `json:"average_entry_price"`
	MarkPrice         decimal.Decimal `json:"mark_price"`
	UnrealizedPnL     decimal.Decimal `json:"unrealized_pnl"`
	OpenedAt          time.Time       `json:"opened_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (p Position) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.MarkPrice)
}
