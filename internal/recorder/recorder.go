// Package recorder journals rule evaluations and daily resets for later analysis.
package recorder

import (
	"time"

	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
)

type Evaluation struct {
	ChallengeID     string
	UserID          string
	Trigger         string
	Status          types.ChallengeStatus
	Reason          string
	Equity          decimal.Decimal
	CashBalance     decimal.Decimal
	DailyHighEquity decimal.Decimal
	Transitioned    bool
	At              time.Time
}

type Reset struct {
	ChallengeID   string
	Equity        decimal.Decimal
	PrevDailyHigh decimal.Decimal
	PrevDailyPnL  decimal.Decimal
	At            time.Time
}

type Recorder interface {
	RecordEvaluation(e Evaluation) error
	RecordReset(r Reset) error
	Close() error
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) RecordEvaluation(Evaluation) error { return nil }
func (Noop) RecordReset(Reset) error           { return nil }
func (Noop) Close() error                      { return nil }
