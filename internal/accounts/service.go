// Package accounts manages the lifecycle of challenge accounts owned by users.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"lv-tradesense/internal/challenge"
	"lv-tradesense/internal/id"
	"lv-tradesense/internal/model"
	"lv-tradesense/internal/plans"
	"lv-tradesense/internal/store"
	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("challenge not found")
	ErrNoActive     = errors.New("no active challenge found")
	ErrActiveExists = errors.New("you already have an active challenge")
	ErrInvalidPlan  = errors.New("invalid plan type")
)

type Service struct {
	store   store.Store
	catalog *plans.Catalog
	now     func() time.Time
}

func NewService(st store.Store, catalog *plans.Catalog) *Service {
	return &Service{store: st, catalog: catalog, now: time.Now}
}

func (s *Service) Plans() []plans.Config {
	return s.catalog.List()
}

// Create opens a new active challenge on the given plan. The plan's limits are copied
// into the challenge and never looked up again.
func (s *Service) Create(ctx context.Context, userID, plan string) (model.Challenge, error) {
	if userID == "" {
		return model.Challenge{}, errors.New("user_id is required")
	}
	tier, err := plans.ParseTier(plan)
	if err != nil {
		return model.Challenge{}, ErrInvalidPlan
	}
	cfg, ok := s.catalog.Lookup(tier)
	if !ok {
		return model.Challenge{}, ErrInvalidPlan
	}
	if _, err := s.store.ActiveChallenge(ctx, userID); err == nil {
		return model.Challenge{}, ErrActiveExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.Challenge{}, err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	c := model.Challenge{
		ID:               id.At(now),
		UserID:           userID,
		Plan:             tier,
		Rules:            cfg.Rules(),
		InitialBalance:   cfg.InitialBalance,
		CashBalance:      cfg.InitialBalance,
		Equity:           cfg.InitialBalance,
		DailyHighEquity:  cfg.InitialBalance,
		DailyRealizedPnL: decimal.Zero,
		TotalRealizedPnL: decimal.Zero,
		Status:           types.ChallengeStatusActive,
		StartDate:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateChallenge(ctx, c); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return model.Challenge{}, ErrActiveExists
		}
		return model.Challenge{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, userID, challengeID string) (model.Challenge, error) {
	c, err := s.store.Challenge(ctx, strings.TrimSpace(challengeID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Challenge{}, ErrNotFound
		}
		return model.Challenge{}, err
	}
	if c.UserID != userID {
		return model.Challenge{}, ErrNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]model.Challenge, error) {
	return s.store.ChallengesByUser(ctx, userID)
}

func (s *Service) Active(ctx context.Context, userID string) (model.Challenge, error) {
	c, err := s.store.ActiveChallenge(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Challenge{}, ErrNoActive
	}
	return c, err
}

// Resolve returns the requested challenge, or the user's active one when none is named.
func (s *Service) Resolve(ctx context.Context, userID, requestedID string) (model.Challenge, error) {
	if strings.TrimSpace(requestedID) != "" {
		return s.Get(ctx, userID, requestedID)
	}
	return s.Active(ctx, userID)
}

func (s *Service) Status(ctx context.Context, userID, challengeID string) (challenge.StatusReport, error) {
	c, err := s.Get(ctx, userID, challengeID)
	if err != nil {
		return challenge.StatusReport{}, err
	}
	return challenge.Report(c), nil
}

func (s *Service) Metrics(ctx context.Context, userID, challengeID string) (challenge.Metrics, error) {
	c, err := s.Get(ctx, userID, challengeID)
	if err != nil {
		return challenge.Metrics{}, err
	}
	trades, err := s.store.Trades(ctx, c.ID, 0)
	if err != nil {
		return challenge.Metrics{}, err
	}
	return challenge.ComputeMetrics(c, trades), nil
}

func (s *Service) Positions(ctx context.Context, userID, challengeID string) ([]model.Position, error) {
	c, err := s.Resolve(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}
	return s.store.Positions(ctx, c.ID)
}

func (s *Service) Trades(ctx context.Context, userID, challengeID string, limit int) ([]model.Trade, error) {
	c, err := s.Resolve(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}
	return s.store.Trades(ctx, c.ID, limit)
}
