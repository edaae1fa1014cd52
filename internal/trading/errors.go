package trading

import (
	"errors"
	"fmt"

	"lv-tradesense/internal/marketdata"
	"lv-tradesense/internal/session"
	"lv-tradesense/internal/store"
)

var (
	ErrAccountNotActive     = errors.New("challenge is not active")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrPriceUnavailable     = errors.New("price unavailable")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrAccountNotFound      = errors.New("challenge not found")
	ErrLockTimeout          = errors.New("challenge is busy, retry")
	ErrInvalidSide          = errors.New("side must be buy or sell")
	ErrInvalidSymbol        = errors.New("symbol is required")
	ErrStaleState           = errors.New("challenge changed concurrently, retry")
)

// Retryable reports whether the same request may succeed if sent again unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrStaleState)
}

// translate maps collaborator errors onto this package's taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrTimeout):
		return ErrLockTimeout
	case errors.Is(err, store.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, store.ErrStale):
		return ErrStaleState
	case errors.Is(err, marketdata.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	return err
}
