package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Sim         SimConfig         `toml:"sim"`
	Debt        DebtConfig        `toml:"debt"`
	Echo        EchoConfig        `toml:"echo"`
	Anchor      AnchorConfig      `toml:"anchor"`
	Consequence ConsequenceConfig `toml:"consequence"`
	Scripting   ScriptingConfig   `toml:"scripting"`
	Database    DatabaseConfig    `toml:"database"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Logging     LoggingConfig     `toml:"logging"`
}

type SimConfig struct {
	Name       string        `toml:"name"`
	TickRate   time.Duration `toml:"tick_rate"`    // frame interval in realtime mode
	MaxFrameDt float64       `toml:"max_frame_dt"` // real dt clamp (seconds) before the time engine sees it
	Mode       string        `toml:"mode"`         // "realtime" or "fixed"
	Duration   time.Duration `toml:"duration"`     // 0 = until the scenario ends or a signal arrives
	Scenario   string        `toml:"scenario"`
}

// DebtConfig carries the debt economy. Tier slices are indexed by tier;
// Thresholds holds the lower bound of tiers 1..N-1 so it is one shorter.
type DebtConfig struct {
	AccrualRate         float64   `toml:"accrual_rate"`
	BankruptcyThreshold float64   `toml:"bankruptcy_threshold"`
	BankruptSpeed       float64   `toml:"bankrupt_speed"`
	Thresholds          []float64 `toml:"thresholds"`
	InterestRates       []float64 `toml:"interest_rates"`
	SpeedMultipliers    []float64 `toml:"speed_multipliers"`
	TierNames           []string  `toml:"tier_names"`

	Momentum MomentumConfig `toml:"momentum"`
}

// MomentumConfig rewards restraint: momentum builds while time flows and
// drains while frozen, and each point discounts freeze accrual. Disabled,
// accrual is exactly real seconds times accrual_rate.
type MomentumConfig struct {
	Enabled           bool    `toml:"enabled"`
	Max               float64 `toml:"max"`
	BuildRate         float64 `toml:"build_rate"`          // points per real second while time flows
	DrainRate         float64 `toml:"drain_rate"`          // points per real second while frozen
	ReductionPerPoint float64 `toml:"reduction_per_point"` // accrual discount per point
	MaxReduction      float64 `toml:"max_reduction"`       // 0..1
}

type EchoConfig struct {
	PredictionDuration float64 `toml:"prediction_duration"`
	Interval           float64 `toml:"interval"`
	BaseAlpha          float64 `toml:"base_alpha"` // 0..1
	FadeRate           float64 `toml:"fade_rate"`  // alpha multiplier per successive sample
	AccuracyStep       float64 `toml:"accuracy_step"`
	MinAccuracy        float64 `toml:"min_accuracy"`
	MaxJitter          float64 `toml:"max_jitter"` // pixels at the far end of a path at accuracy 0
}

type AnchorConfig struct {
	MaxAnchors     int     `toml:"max_anchors"`
	DecayTime      float64 `toml:"decay_time"`
	RecallDebtCost float64 `toml:"recall_debt_cost"`
}

type ConsequenceConfig struct {
	ShadowSpawnDebt float64 `toml:"shadow_spawn_debt"`
	ShadowSpeed     float64 `toml:"shadow_speed"`
	SinkAmount      float64 `toml:"sink_amount"`
	BombPayload     float64 `toml:"bomb_payload"`
	BombRadius      float64 `toml:"bomb_radius"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"` // empty disables Lua tuning
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the debt ledger
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	FlushTicks      int           `toml:"flush_ticks"`
}

type MetricsConfig struct {
	Address string `toml:"address"` // empty disables the /metrics listener
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate rejects tables the temporal core treats as preconditions.
func (c *Config) Validate() error {
	var errs []error
	d := c.Debt
	tiers := len(d.InterestRates)
	if tiers == 0 {
		errs = append(errs, errors.New("debt: interest_rates is empty"))
	}
	if len(d.SpeedMultipliers) != tiers {
		errs = append(errs, fmt.Errorf("debt: %d speed_multipliers for %d tiers", len(d.SpeedMultipliers), tiers))
	}
	if len(d.Thresholds) != tiers-1 {
		errs = append(errs, fmt.Errorf("debt: %d thresholds for %d tiers (want %d)", len(d.Thresholds), tiers, tiers-1))
	}
	if len(d.TierNames) != 0 && len(d.TierNames) != tiers {
		errs = append(errs, fmt.Errorf("debt: %d tier_names for %d tiers", len(d.TierNames), tiers))
	}
	prev := 0.0
	for i, th := range d.Thresholds {
		if th <= prev {
			errs = append(errs, fmt.Errorf("debt: threshold %d (%.2f) not above %.2f", i, th, prev))
		}
		prev = th
	}
	for i, r := range d.InterestRates {
		if r <= 0 {
			errs = append(errs, fmt.Errorf("debt: interest rate for tier %d must be positive", i))
		}
	}
	if d.AccrualRate <= 0 {
		errs = append(errs, errors.New("debt: accrual_rate must be positive"))
	}
	if d.BankruptcyThreshold <= 0 {
		errs = append(errs, errors.New("debt: bankruptcy_threshold must be positive"))
	}
	if m := d.Momentum; m.Enabled {
		if m.Max <= 0 {
			errs = append(errs, errors.New("debt.momentum: max must be positive"))
		}
		if m.BuildRate < 0 || m.DrainRate < 0 || m.ReductionPerPoint < 0 {
			errs = append(errs, errors.New("debt.momentum: rates must not be negative"))
		}
		if m.MaxReduction < 0 || m.MaxReduction > 1 {
			errs = append(errs, errors.New("debt.momentum: max_reduction must be in [0,1]"))
		}
	}
	if c.Echo.Interval <= 0 || c.Echo.PredictionDuration < c.Echo.Interval {
		errs = append(errs, errors.New("echo: need 0 < interval <= prediction_duration"))
	}
	if c.Echo.MinAccuracy <= 0 || c.Echo.MinAccuracy > 1 {
		errs = append(errs, errors.New("echo: min_accuracy must be in (0,1]"))
	}
	if c.Anchor.MaxAnchors < 1 {
		errs = append(errs, errors.New("anchor: max_anchors must be at least 1"))
	}
	if c.Anchor.DecayTime <= 0 {
		errs = append(errs, errors.New("anchor: decay_time must be positive"))
	}
	if c.Anchor.RecallDebtCost < 0 {
		errs = append(errs, errors.New("anchor: recall_debt_cost must not be negative"))
	}
	if c.Sim.MaxFrameDt <= 0 {
		errs = append(errs, errors.New("sim: max_frame_dt must be positive"))
	}
	if c.Sim.TickRate <= 0 {
		errs = append(errs, errors.New("sim: tick_rate must be positive"))
	}
	switch c.Sim.Mode {
	case "realtime", "fixed":
	default:
		errs = append(errs, fmt.Errorf("sim: unknown mode %q", c.Sim.Mode))
	}
	return errors.Join(errs...)
}

func Defaults() *Config {
	return &Config{
		Sim: SimConfig{
			Name:       "TEMPORAL DEBT",
			TickRate:   time.Second / 60,
			MaxFrameDt: 0.1,
			Mode:       "fixed",
		},
		Debt: DebtConfig{
			AccrualRate:         1.5,
			BankruptcyThreshold: 20,
			BankruptSpeed:       5,
			Thresholds:          []float64{3, 6, 10, 15},
			InterestRates:       []float64{1.0, 1.25, 1.5, 2.0, 3.0},
			SpeedMultipliers:    []float64{1.0, 1.5, 2.0, 3.0, 4.0},
			TierNames:           []string{"clear", "mild", "moderate", "severe", "critical"},
			Momentum: MomentumConfig{
				Max:               10,
				BuildRate:         1,
				DrainRate:         2,
				ReductionPerPoint: 0.05,
				MaxReduction:      0.5,
			},
		},
		Echo: EchoConfig{
			PredictionDuration: 3.0,
			Interval:           0.1,
			BaseAlpha:          180.0 / 255.0,
			FadeRate:           0.97,
			AccuracyStep:       0.1,
			MinAccuracy:        0.5,
			MaxJitter:          10,
		},
		Anchor: AnchorConfig{
			MaxAnchors:     3,
			DecayTime:      30,
			RecallDebtCost: 1.0,
		},
		Consequence: ConsequenceConfig{
			ShadowSpawnDebt: 10,
			ShadowSpeed:     100,
			SinkAmount:      3,
			BombPayload:     5,
			BombRadius:      150,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
			FlushTicks:      300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
