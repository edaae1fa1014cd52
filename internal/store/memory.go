package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lv-tradesense/internal/model"
	"lv-tradesense/internal/types"
)

// Memory is a Store kept in process memory. It backs development mode and tests.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]model.User
	emails     map[string]string
	challenges map[string]model.Challenge
	positions  map[string]map[string]model.Position
	trades     map[string][]model.Trade
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]model.User),
		emails:     make(map[string]string),
		challenges: make(map[string]model.Challenge),
		positions:  make(map[string]map[string]model.Position),
		trades:     make(map[string][]model.Trade),
	}
}

func (m *Memory) CreateUser(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.emails[key]; ok {
		return ErrConflict
	}
	m.users[u.ID] = u
	m.emails[key] = u.ID
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) UserByID(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) CreateChallenge(_ context.Context, c model.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.challenges[c.ID]; ok {
		return ErrConflict
	}
	if c.Status == types.ChallengeStatusActive {
		for _, existing := range m.challenges {
			if existing.UserID == c.UserID && existing.Status == types.ChallengeStatusActive {
				return ErrConflict
			}
		}
	}
	m.challenges[c.ID] = c
	return nil
}

func (m *Memory) Challenge(_ context.Context, id string) (model.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.challenges[id]
	if !ok {
		return model.Challenge{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) ChallengesByUser(_ context.Context, userID string) ([]model.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Challenge
	for _, c := range m.challenges {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) ActiveChallenge(_ context.Context, userID string) (model.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.challenges {
		if c.UserID == userID && c.Status == types.ChallengeStatusActive {
			return c, nil
		}
	}
	return model.Challenge{}, ErrNotFound
}

func (m *Memory) ActiveChallengeIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for id, c := range m.challenges {
		if c.Status == types.ChallengeStatusActive {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Positions(_ context.Context, challengeID string) ([]model.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	held := m.positions[challengeID]
	out := make([]model.Position, 0, len(held))
	for _, p := range held {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Memory) Trades(_ context.Context, challengeID string, limit int) ([]model.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.trades[challengeID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]model.Trade, len(all))
	copy(out, all)
	return out, nil
}

func (m *Memory) Apply(_ context.Context, cs Changeset) (model.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.challenges[cs.Challenge.ID]
	if !ok {
		return model.Challenge{}, ErrNotFound
	}
	if current.Version != cs.Challenge.Version {
		return model.Challenge{}, ErrStale
	}
	next := cs.Challenge
	next.Version++
	m.challenges[next.ID] = next

	held := m.positions[next.ID]
	if held == nil {
		held = make(map[string]model.Position)
		m.positions[next.ID] = held
	}
	for _, p := range cs.Positions {
		held[p.Symbol] = p
	}
	for _, sym := range cs.Removed {
		delete(held, sym)
	}
	if cs.Trade != nil {
		m.trades[next.ID] = append(m.trades[next.ID], *cs.Trade)
	}
	return next, nil
}
