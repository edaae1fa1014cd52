// Package ledger keeps per-challenge holdings and the tamper-evident trade journal.
package ledger

import (
	"errors"
	"time"

	"lv-tradesense/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidPrice         = errors.New("price must be positive")
	ErrInsufficientPosition = errors.New("insufficient position")
)

// ApplyBuy accumulates qty units at price. A zero-quantity pos is treated as flat and
// opens a new position keyed by pos.ChallengeID and pos.Symbol.
func ApplyBuy(pos model.Position, qty, price decimal.Decimal, at time.Time) (model.Position, error) {
	if !qty.IsPositive() {
		return pos, ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return pos, ErrInvalidPrice
	}
	if !pos.Quantity.IsPositive() {
		pos.Quantity = decimal.Zero
		pos.AverageEntryPrice = decimal.Zero
		pos.OpenedAt = at
	}
	newQty := pos.Quantity.Add(qty)
	cost := pos.Quantity.Mul(pos.AverageEntryPrice).Add(qty.Mul(price))
	pos.AverageEntryPrice = cost.Div(newQty)
	pos.Quantity = newQty
	return Mark(pos, price, at), nil
}

// ApplySell reduces the position by qty at price. The average entry price is left
// unchanged. closed is true when nothing remains and the position must be removed.
func ApplySell(pos model.Position, qty, price decimal.Decimal, at time.Time) (next model.Position, realized decimal.Decimal, closed bool, err error) {
	if !qty.IsPositive() {
		return pos, decimal.Zero, false, ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return pos, decimal.Zero, false, ErrInvalidPrice
	}
	if pos.Quantity.LessThan(qty) {
		return pos, decimal.Zero, false, ErrInsufficientPosition
	}
	realized = price.Sub(pos.AverageEntryPrice).Mul(qty)
	pos.Quantity = pos.Quantity.Sub(qty)
	if !pos.Quantity.IsPositive() {
		pos.Quantity = decimal.Zero
		pos.MarkPrice = price
		pos.UnrealizedPnL = decimal.Zero
		pos.UpdatedAt = at
		return pos, realized, true, nil
	}
	return Mark(pos, price, at), realized, false, nil
}

// Mark refreshes the mark price and the derived unrealized PnL.
func Mark(pos model.Position, price decimal.Decimal, at time.Time) model.Position {
	pos.MarkPrice = price
	pos.UnrealizedPnL = price.Sub(pos.AverageEntryPrice).Mul(pos.Quantity)
	pos.UpdatedAt = at
	return pos
}

// MarketValue sums quantity x mark price across positions.
func MarketValue(positions []model.Position) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.MarketValue())
	}
	return total
}
