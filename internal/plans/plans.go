// Package plans holds the challenge plan catalog. Plan limits are resolved once when a
// challenge is created and copied into it.
package plans

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"lv-tradesense/internal/model"
	"lv-tradesense/internal/types"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrUnknownTier = errors.New("unknown plan tier")

type Config struct {
	Tier           types.PlanTier  `json:"tier" yaml:"-"`
	Name           string          `json:"name" yaml:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance" yaml:"initial_balance"`
	DailyMaxLoss   decimal.Decimal `json:"daily_max_loss" yaml:"daily_max_loss"`
	TotalMaxLoss   decimal.Decimal `json:"total_max_loss" yaml:"total_max_loss"`
	ProfitTarget   decimal.Decimal `json:"profit_target" yaml:"profit_target"`
	PriceDH        decimal.Decimal `json:"price_dh" yaml:"price_dh"`
	Features       []string        `json:"features" yaml:"features"`
}

func (c Config) Rules() model.Rules {
	return model.Rules{
		DailyMaxLoss: c.DailyMaxLoss,
		TotalMaxLoss: c.TotalMaxLoss,
		ProfitTarget: c.ProfitTarget,
	}
}

var tierOrder = []types.PlanTier{types.PlanTierStarter, types.PlanTierPro, types.PlanTierElite}

// Catalog is immutable after construction.
type Catalog struct {
	plans map[types.PlanTier]Config
}

func ParseTier(raw string) (types.PlanTier, error) {
	t := types.PlanTier(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range tierOrder {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, raw)
}

func Default() *Catalog {
	daily := decimal.RequireFromString("0.05")
	total := decimal.RequireFromString("0.10")
	target := decimal.RequireFromString("0.10")
	mk := func(tier types.PlanTier, name string, balance, price int64, features ...string) Config {
		return Config{
			Tier:           tier,
			Name:           name,
			InitialBalance: decimal.NewFromInt(balance),
			DailyMaxLoss:   daily,
			TotalMaxLoss:   total,
			ProfitTarget:   target,
			PriceDH:        decimal.NewFromInt(price),
			Features:       features,
		}
	}
	return &Catalog{plans: map[types.PlanTier]Config{
		types.PlanTierStarter: mk(types.PlanTierStarter, "Starter", 5000, 200,
			"5,000 virtual capital", "Real-time market data", "Basic signals"),
		types.PlanTierPro: mk(types.PlanTierPro, "Pro", 10000, 500,
			"10,000 virtual capital", "Real-time market data", "Advanced signals", "Risk alerts"),
		types.PlanTierElite: mk(types.PlanTierElite, "Elite", 25000, 1000,
			"25,000 virtual capital", "Real-time market data", "Premium signals", "Risk alerts", "Priority support"),
	}}
}

func (c *Catalog) Lookup(tier types.PlanTier) (Config, bool) {
	p, ok := c.plans[tier]
	if !ok {
		return Config{}, false
	}
	p.Features = append([]string(nil), p.Features...)
	return p, true
}

func (c *Catalog) List() []Config {
	out := make([]Config, 0, len(c.plans))
	for _, tier := range tierOrder {
		if p, ok := c.Lookup(tier); ok {
			out = append(out, p)
		}
	}
	return out
}

type fileFormat struct {
	Plans map[string]Config `yaml:"plans"`
}

// LoadFile overlays the plans found in a YAML file on top of the defaults.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse plans file: %w", err)
	}
	cat := Default()
	for key, p := range f.Plans {
		tier, err := ParseTier(key)
		if err != nil {
			return nil, err
		}
		base := cat.plans[tier]
		merged := merge(base, p)
		if err := merged.validate(); err != nil {
			return nil, fmt.Errorf("plan %s: %w", tier, err)
		}
		cat.plans[tier] = merged
	}
	return cat, nil
}

func merge(base, over Config) Config {
	if over.Name != "" {
		base.Name = over.Name
	}
	if !over.InitialBalance.IsZero() {
		base.InitialBalance = over.InitialBalance
	}
	if !over.DailyMaxLoss.IsZero() {
		base.DailyMaxLoss = over.DailyMaxLoss
	}
	if !over.TotalMaxLoss.IsZero() {
		base.TotalMaxLoss = over.TotalMaxLoss
	}
	if !over.ProfitTarget.IsZero() {
		base.ProfitTarget = over.ProfitTarget
	}
	if !over.PriceDH.IsZero() {
		base.PriceDH = over.PriceDH
	}
	if len(over.Features) > 0 {
		base.Features = over.Features
	}
	return base
}

func (c Config) validate() error {
	if !c.InitialBalance.IsPositive() {
		return errors.New("initial_balance must be positive")
	}
	if c.PriceDH.IsNegative() {
		return errors.New("price_dh must not be negative")
	}
	one := decimal.NewFromInt(1)
	for name, f := range map[string]decimal.Decimal{
		"daily_max_loss": c.DailyMaxLoss,
		"total_max_loss": c.TotalMaxLoss,
		"profit_target":  c.ProfitTarget,
	} {
		if !f.IsPositive() || f.GreaterThanOrEqual(one) {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	return nil
}
