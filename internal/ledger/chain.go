package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lv-tradesense/internal/model"

	"github.com/shopspring/decimal"
)

var ErrChainBroken = errors.New("trade chain broken")

// Seal assigns the journal position and hash of t, chaining it to prevHash.
func Seal(t *model.Trade, seq int64, prevHash string) {
	t.Sequence = seq
	t.PrevHash = prevHash
	t.Hash = computeHash(*t)
}

func computeHash(t model.Trade) string {
	buf := t.ID + "|" + t.ChallengeID + "|" + strconv.FormatInt(t.Sequence, 10) + "|" +
		t.Symbol + "|" + string(t.Side) + "|" + t.Quantity.String() + "|" + t.EntryPrice.String() + "|" +
		optionalDecimal(t.ExitPrice) + "|" + optionalDecimal(t.RealizedProfit) + "|" +
		t.ExecutedAt.UTC().Format(time.RFC3339Nano) + "|" + t.PrevHash
	sum := sha256.Sum256([]byte(buf))
	return hex.EncodeToString(sum[:])
}

func optionalDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// VerifyChain checks trades, ordered by sequence, for gaps, relinked entries and
// modified fields.
func VerifyChain(trades []model.Trade) error {
	prev := ""
	for i, t := range trades {
		want := int64(i + 1)
		if t.Sequence != want {
			return fmt.Errorf("%w: expected sequence %d, got %d", ErrChainBroken, want, t.Sequence)
		}
		if t.PrevHash != prev {
			return fmt.Errorf("%w: trade %s does not link to sequence %d", ErrChainBroken, t.ID, want-1)
		}
		if computeHash(t) != t.Hash {
			return fmt.Errorf("%w: trade %s hash mismatch", ErrChainBroken, t.ID)
		}
		prev = t.Hash
	}
	return nil
}
