package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lv-tradesense/internal/config"
	"lv-tradesense/internal/marketdata"
	"lv-tradesense/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		JWTIssuer:   "tradesense",
		JWTSecret:   "secret",
		JWTTTL:      time.Hour,
		AppMode:     "development",
		LockTimeout: time.Second,
		QuoteMaxAge: 30 * time.Second,
		QuoteSource: "static",
	}
}

func TestNewInMemory(t *testing.T) {
	a, err := New(context.Background(), testConfig(), false)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Pool)
	require.NotNil(t, a.Static)
	assert.IsType(t, &marketdata.CachedProvider{}, a.Provider)
	_, ok := a.Catalog.Lookup(types.PlanTierElite)
	assert.True(t, ok)

	for name, check := range a.HealthChecks() {
		assert.NoError(t, check(context.Background()), name)
	}
}

func TestNewRequiresDB(t *testing.T) {
	_, err := New(context.Background(), testConfig(), true)
	assert.EqualError(t, err, "DB_DSN is required")
}

func TestNewWithPlansFileAndRecorder(t *testing.T) {
	dir := t.TempDir()
	plansPath := filepath.Join(dir, "plans.yaml")
	require.NoError(t, os.WriteFile(plansPath, []byte("plans:\n  starter:\n    initial_balance: \"2000\"\n"), 0o600))

	cfg := testConfig()
	cfg.PlansFile = plansPath
	cfg.RecorderSQLitePath = filepath.Join(dir, "audit.db")
	a, err := New(context.Background(), cfg, false)
	require.NoError(t, err)
	defer a.Close()

	starter, ok := a.Catalog.Lookup(types.PlanTierStarter)
	require.True(t, ok)
	assert.Equal(t, "2000", starter.InitialBalance.String())
	_, err = os.Stat(cfg.RecorderSQLitePath)
	assert.NoError(t, err)
}

func TestNewRejectsBadPlansFile(t *testing.T) {
	cfg := testConfig()
	cfg.PlansFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load plans")
}
