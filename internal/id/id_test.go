package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIsSortableAndUnique(t *testing.T) {
	ids := make([]string, 0, 1000)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		v := New()
		_, dup := seen[v]
		assert.False(t, dup)
		seen[v] = struct{}{}
		ids = append(ids, v)
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestAtOrdersByTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Less(t, At(base), At(base.Add(time.Second)))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(New()))
	assert.False(t, Valid("not-an-id"))
	assert.False(t, Valid(""))
}
