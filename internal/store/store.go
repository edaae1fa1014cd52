// Package store persists users, challenges, positions and the trade journal.
package store

import (
	"context"
	"errors"

	"lv-tradesense/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStale means the challenge changed since it was read.
	ErrStale = errors.New("stale challenge version")
	// ErrConflict covers duplicate emails and a second active challenge for one user.
	ErrConflict = errors.New("conflict")
)

// Changeset is everything one settlement or evaluation writes. Apply commits it as a
// single unit: the challenge row is written only if its stored version still equals
// Challenge.Version, and the new version is returned.
type Changeset struct {
	Challenge model.Challenge
	Positions []model.Position
	Removed   []string
	Trade     *model.Trade
}

type Store interface {
	CreateUser(ctx context.Context, u model.User) error
	UserByEmail(ctx context.Context, email string) (model.User, error)
	UserByID(ctx context.Context, id string) (model.User, error)

	CreateChallenge(ctx context.Context, c model.Challenge) error
	Challenge(ctx context.Context, id string) (model.Challenge, error)
	ChallengesByUser(ctx context.Context, userID string) ([]model.Challenge, error)
	ActiveChallenge(ctx context.Context, userID string) (model.Challenge, error)
	ActiveChallengeIDs(ctx context.Context) ([]string, error)

	Positions(ctx context.Context, challengeID string) ([]model.Position, error)
	// Trades returns the journal in sequence order. limit > 0 keeps only the newest entries.
	Trades(ctx context.Context, challengeID string, limit int) ([]model.Trade, error)

	Apply(ctx context.Context, cs Changeset) (model.Challenge, error)
}
