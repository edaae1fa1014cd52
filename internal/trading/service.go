package trading

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lv-tradesense/internal/challenge"
	"lv-tradesense/internal/id"
	"lv-tradesense/internal/ledger"
	"lv-tradesense/internal/marketdata"
	"lv-tradesense/internal/model"
	"lv-tradesense/internal/recorder"
	"lv-tradesense/internal/session"
	"lv-tradesense/internal/store"
	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
)

const (
	triggerTrade    = "trade"
	triggerEvaluate = "evaluate"
	triggerSweep    = "sweep"
)

type Service struct {
	store  store.Store
	prices marketdata.Provider
	locks  *session.Locks
	bus    *marketdata.Bus
	rec    recorder.Recorder
	now    func() time.Time
}

// NewService wires the settlement core. bus and rec may be nil.
func NewService(st store.Store, prices marketdata.Provider, locks *session.Locks, bus *marketdata.Bus, rec recorder.Recorder) *Service {
	if rec == nil {
		rec = recorder.NewNoop()
	}
	return &Service{store: st, prices: prices, locks: locks, bus: bus, rec: rec, now: time.Now}
}

const (
	// minQuantityExponent allows at most 8 decimal places.
	minQuantityExponent = -8
	maxQuantityExponent = 12
)

var maxQuantity = decimal.New(1, maxQuantityExponent)

// validQuantity bounds the exponent before any arithmetic so that decimal rescaling
// stays cheap while the challenge lock is held.
func validQuantity(q decimal.Decimal) bool {
	exp := q.Exponent()
	if exp < minQuantityExponent || exp > maxQuantityExponent {
		return false
	}
	return q.IsPositive() && q.LessThanOrEqual(maxQuantity)
}

type TradeRequest struct {
	ChallengeID string
	// UserID, when set, must own the challenge.
	UserID   string
	Symbol   string
	Side     types.TradeSide
	Quantity decimal.Decimal
}

type Settlement struct {
	Trade     model.Trade      `json:"trade"`
	Challenge model.Challenge  `json:"challenge"`
	Result    challenge.Result `json:"result"`
}

// SettleTrade applies one trade and the follow-up rule evaluation as a single unit
// under the challenge lock. Every rejection happens before anything is written.
func (s *Service) SettleTrade(ctx context.Context, req TradeRequest) (Settlement, error) {
	symbol := marketdata.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return Settlement{}, ErrInvalidSymbol
	}
	if !req.Side.Valid() {
		return Settlement{}, ErrInvalidSide
	}
	if !validQuantity(req.Quantity) {
		return Settlement{}, ErrInvalidQuantity
	}

	release, err := s.locks.Acquire(ctx, req.ChallengeID)
	if err != nil {
		return Settlement{}, translate(err)
	}
	defer release()

	c, err := s.load(ctx, req.ChallengeID, req.UserID)
	if err != nil {
		return Settlement{}, err
	}
	if !c.Active() {
		return Settlement{}, ErrAccountNotActive
	}
	positions, err := s.store.Positions(ctx, c.ID)
	if err != nil {
		return Settlement{}, err
	}
	quotes, err := s.quotes(ctx, symbol, positions)
	if err != nil {
		return Settlement{}, err
	}
	price := quotes[symbol].Price
	now := s.clock()

	held := model.Position{ChallengeID: c.ID, Symbol: symbol}
	for _, p := range positions {
		if p.Symbol == symbol {
			held = p
			break
		}
	}

	trade := model.Trade{
		ID:          id.At(now),
		ChallengeID: c.ID,
		UserID:      c.UserID,
		Symbol:      symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		ExecutedAt:  now,
	}
	var removed []string
	switch req.Side {
	case types.TradeSideBuy:
		value := req.Quantity.Mul(price)
		if value.GreaterThan(c.CashBalance) {
			return Settlement{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, value.StringFixed(2), c.CashBalance.StringFixed(2))
		}
		next, err := ledger.ApplyBuy(held, req.Quantity, price, now)
		if err != nil {
			return Settlement{}, err
		}
		held = next
		c.CashBalance = c.CashBalance.Sub(value)
		trade.Status = types.TradeStatusOpen
		trade.EntryPrice = price
	case types.TradeSideSell:
		if held.Quantity.LessThan(req.Quantity) {
			return Settlement{}, fmt.Errorf("%w: hold %s %s", ErrInsufficientPosition, held.Quantity.String(), symbol)
		}
		basis := held.AverageEntryPrice
		next, realized, closed, err := ledger.ApplySell(held, req.Quantity, price, now)
		if err != nil {
			return Settlement{}, err
		}
		held = next
		if closed {
			removed = append(removed, symbol)
		}
		c.CashBalance = c.CashBalance.Add(req.Quantity.Mul(price))
		c.DailyRealizedPnL = c.DailyRealizedPnL.Add(realized)
		c.TotalRealizedPnL = c.TotalRealizedPnL.Add(realized)
		exit := price
		closedAt := now
		trade.Status = types.TradeStatusClosed
		trade.EntryPrice = basis
		trade.ExitPrice = &exit
		trade.RealizedProfit = &realized
		trade.ClosedAt = &closedAt
	}

	marked := markAll(positions, quotes, now)
	marked = replacePosition(marked, held, len(removed) > 0)

	ledger.Seal(&trade, c.TradeCount+1, c.LastTradeHash)
	c.TradeCount++
	c.LastTradeHash = trade.Hash

	res := challenge.Evaluate(&c, marked, now)
	saved, err := s.store.Apply(ctx, store.Changeset{
		Challenge: c,
		Positions: marked,
		Removed:   removed,
		Trade:     &trade,
	})
	if err != nil {
		return Settlement{}, translate(err)
	}

	out := Settlement{Trade: trade, Challenge: saved, Result: res}
	log.Printf("[settle] challenge=%s %s %s %s @ %s -> %s", saved.ID, trade.Side, trade.Quantity, symbol, price, res.Status)
	s.journal(saved, res, triggerTrade, now)
	s.publish(types.EventTypeTradeSettled, saved.UserID, out)
	s.publish(types.EventTypeChallengeStatus, saved.UserID, statusEvent(saved, res))
	return out, nil
}

// EvaluateRules re-marks every position and runs the rule evaluator. Terminal
// challenges return their stored outcome and are not touched.
func (s *Service) EvaluateRules(ctx context.Context, challengeID string) (challenge.Result, error) {
	return s.evaluate(ctx, challengeID, triggerEvaluate)
}

func (s *Service) evaluate(ctx context.Context, challengeID, trigger string) (challenge.Result, error) {
	release, err := s.locks.Acquire(ctx, challengeID)
	if err != nil {
		return challenge.Result{}, translate(err)
	}
	defer release()

	c, err := s.load(ctx, challengeID, "")
	if err != nil {
		return challenge.Result{}, err
	}
	if c.Status.Terminal() {
		return challenge.Result{Status: c.Status, Reason: c.StatusReason}, nil
	}
	positions, err := s.store.Positions(ctx, c.ID)
	if err != nil {
		return challenge.Result{}, err
	}
	quotes, err := s.quotes(ctx, "", positions)
	if err != nil {
		return challenge.Result{}, err
	}
	now := s.clock()
	marked := markAll(positions, quotes, now)
	res := challenge.Evaluate(&c, marked, now)
	saved, err := s.store.Apply(ctx, store.Changeset{Challenge: c, Positions: marked})
	if err != nil {
		return challenge.Result{}, translate(err)
	}
	if res.Transitioned {
		log.Printf("[evaluate] challenge=%s %s: %s", saved.ID, res.Status, res.Reason)
	}
	s.journal(saved, res, trigger, now)
	s.publish(types.EventTypeChallengeStatus, saved.UserID, statusEvent(saved, res))
	return res, nil
}

// DailyReset starts a new trading day for every active challenge and returns how many
// were reset. It is safe to run more than once per day.
func (s *Service) DailyReset(ctx context.Context) (int, error) {
	ids, err := s.store.ActiveChallengeIDs(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	var errs []error
	for _, cid := range ids {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		ok, err := s.resetOne(ctx, cid)
		if err != nil {
			errs = append(errs, fmt.Errorf("reset %s: %w", cid, err))
			continue
		}
		if ok {
			count++
		}
	}
	log.Printf("[daily-reset] reset %d of %d active challenges", count, len(ids))
	return count, errors.Join(errs...)
}

func (s *Service) resetOne(ctx context.Context, challengeID string) (bool, error) {
	reset := false
	err := s.locks.WithLock(ctx, challengeID, func() error {
		c, err := s.load(ctx, challengeID, "")
		if err != nil {
			return err
		}
		if !c.Active() {
			return nil
		}
		prevHigh, prevPnL := c.DailyHighEquity, c.DailyRealizedPnL
		now := s.clock()
		challenge.ResetDay(&c, now)
		saved, err := s.store.Apply(ctx, store.Changeset{Challenge: c})
		if err != nil {
			return err
		}
		reset = true
		if err := s.rec.RecordReset(recorder.Reset{
			ChallengeID:   saved.ID,
			Equity:        saved.Equity,
			PrevDailyHigh: prevHigh,
			PrevDailyPnL:  prevPnL,
			At:            now,
		}); err != nil {
			log.Printf("[recorder] reset %s: %v", saved.ID, err)
		}
		s.publish(types.EventTypeDailyReset, saved.UserID, saved)
		return nil
	})
	return reset, translate(err)
}

// Sweep re-evaluates every active challenge against current prices. Challenges whose
// quotes are unavailable are skipped and stay active.
func (s *Service) Sweep(ctx context.Context) (evaluated, terminal int, err error) {
	ids, err := s.store.ActiveChallengeIDs(ctx)
	if err != nil {
		return 0, 0, err
	}
	var errs []error
	for _, cid := range ids {
		if err := ctx.Err(); err != nil {
			return evaluated, terminal, err
		}
		res, err := s.evaluate(ctx, cid, triggerSweep)
		if err != nil {
			if errors.Is(err, ErrPriceUnavailable) {
				log.Printf("[sweep] skip %s: %v", cid, err)
				continue
			}
			errs = append(errs, fmt.Errorf("sweep %s: %w", cid, err))
			continue
		}
		evaluated++
		if res.Transitioned {
			terminal++
		}
	}
	log.Printf("[sweep] evaluated=%d terminal=%d active=%d", evaluated, terminal, len(ids))
	return evaluated, terminal, errors.Join(errs...)
}

// VerifyTrades checks the challenge's trade journal hash chain and that its head
// matches the trade count and last hash stored on the challenge.
func (s *Service) VerifyTrades(ctx context.Context, challengeID string) (int, error) {
	c, err := s.load(ctx, challengeID, "")
	if err != nil {
		return 0, err
	}
	trades, err := s.store.Trades(ctx, c.ID, 0)
	if err != nil {
		return 0, err
	}
	if err := ledger.VerifyChain(trades); err != nil {
		return len(trades), err
	}
	head := ""
	if n := len(trades); n > 0 {
		head = trades[n-1].Hash
	}
	if int64(len(trades)) != c.TradeCount || head != c.LastTradeHash {
		return len(trades), fmt.Errorf("%w: challenge head is %d/%s, journal has %d/%s",
			ledger.ErrChainBroken, c.TradeCount, c.LastTradeHash, len(trades), head)
	}
	return len(trades), nil
}

func (s *Service) load(ctx context.Context, challengeID, userID string) (model.Challenge, error) {
	if strings.TrimSpace(challengeID) == "" {
		return model.Challenge{}, ErrAccountNotFound
	}
	c, err := s.store.Challenge(ctx, challengeID)
	if err != nil {
		return model.Challenge{}, translate(err)
	}
	if userID != "" && c.UserID != userID {
		return model.Challenge{}, ErrAccountNotFound
	}
	return c, nil
}

// quotes fetches a price for the traded symbol and every held symbol. Any miss aborts.
func (s *Service) quotes(ctx context.Context, traded string, positions []model.Position) (map[string]model.Quote, error) {
	symbols := make([]string, 0, len(positions)+1)
	if traded != "" {
		symbols = append(symbols, traded)
	}
	for _, p := range positions {
		if p.Symbol != traded {
			symbols = append(symbols, p.Symbol)
		}
	}
	out := make(map[string]model.Quote, len(symbols))
	for _, sym := range symbols {
		q, err := s.prices.GetPrice(ctx, sym)
		if err != nil {
			return nil, translate(err)
		}
		if !q.Price.IsPositive() {
			return nil, fmt.Errorf("%w: %s has no positive price", ErrPriceUnavailable, sym)
		}
		out[sym] = q
	}
	return out, nil
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) journal(c model.Challenge, res challenge.Result, trigger string, at time.Time) {
	err := s.rec.RecordEvaluation(recorder.Evaluation{
		ChallengeID:     c.ID,
		UserID:          c.UserID,
		Trigger:         trigger,
		Status:          res.Status,
		Reason:          res.Reason,
		Equity:          c.Equity,
		CashBalance:     c.CashBalance,
		DailyHighEquity: c.DailyHighEquity,
		Transitioned:    res.Transitioned,
		At:              at,
	})
	if err != nil {
		log.Printf("[recorder] evaluation %s: %v", c.ID, err)
	}
}

func (s *Service) publish(kind types.EventType, userID string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(marketdata.Event{Type: kind, UserID: userID, Data: data})
}

type StatusEvent struct {
	ChallengeID string                `json:"challenge_id"`
	Status      types.ChallengeStatus `json:"status"`
	Reason      string                `json:"reason"`
	Equity      decimal.Decimal       `json:"equity"`
	CashBalance decimal.Decimal       `json:"cash_balance"`
	EndDate     *time.Time            `json:"end_date,omitempty"`
}

func statusEvent(c model.Challenge, res challenge.Result) StatusEvent {
	return StatusEvent{
		ChallengeID: c.ID,
		Status:      res.Status,
		Reason:      res.Reason,
		Equity:      c.Equity,
		CashBalance: c.CashBalance,
		EndDate:     c.EndDate,
	}
}

func markAll(positions []model.Position, quotes map[string]model.Quote, now time.Time) []model.Position {
	out := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		if q, ok := quotes[p.Symbol]; ok {
			p = ledger.Mark(p, q.Price, now)
		}
		out = append(out, p)
	}
	return out
}

// replacePosition swaps in the traded position, appending it if new, or drops it when
// remove is set.
func replacePosition(positions []model.Position, p model.Position, remove bool) []model.Position {
	out := positions[:0]
	found := false
	for _, existing := range positions {
		if existing.Symbol == p.Symbol {
			found = true
			if remove {
				continue
			}
			existing = p
		}
		out = append(out, existing)
	}
	if !found && !remove {
		out = append(out, p)
	}
	return out
}
