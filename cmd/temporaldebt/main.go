package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temporaldebt/core/internal/clock"
	"github.com/temporaldebt/core/internal/config"
	"github.com/temporaldebt/core/internal/data"
	"github.com/temporaldebt/core/internal/metrics"
	"github.com/temporaldebt/core/internal/persist"
	"github.com/temporaldebt/core/internal/scripting"
	"github.com/temporaldebt/core/internal/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name, mode string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            TEMPORAL DEBT  v0.1.0          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        headless time-debt simulation      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mRun:\033[0m %s \033[90m(mode: %s)\033[0m\n\n", name, mode)
}

func printSection(title string) {
	lineLen := max(3, 46-len(title)-1)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value any) {
	s := fmt.Sprint(value)
	dotsLen := max(3, 42-len(label)-len(s))
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), s)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main run logic ────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/temporaldebt.toml"
	if p := os.Getenv("TEMPORALDEBT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Sim.Name, cfg.Sim.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Scenario and scripts
	printSection("Data")
	scenarioPath := cfg.Sim.Scenario
	if p := os.Getenv("TEMPORALDEBT_SCENARIO"); p != "" {
		scenarioPath = p
	}
	var sc *data.Scenario
	if scenarioPath != "" {
		sc, err = data.LoadScenario(scenarioPath)
		if err != nil {
			return fmt.Errorf("scenario: %w", err)
		}
		printStat("Scenario "+sc.Name, sc.Count())
		printStat("Commands", len(sc.Commands))
	}

	var lua *scripting.Engine
	if cfg.Scripting.Dir != "" {
		lua, err = scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer lua.Close()
		printOK("Lua scripts loaded")
	}
	fmt.Println()

	// 4. Debt ledger (optional)
	var (
		ledger persist.LedgerWriter
		runID  = uuid.New()
	)
	if cfg.Database.DSN != "" {
		printSection("Database")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := persist.OpenLedgerDB(dbCtx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(dbCtx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printStat("Schema version", version)
		fmt.Println()

		repo := persist.NewLedgerRepo(db)
		ledger = repo
		defer reportLedger(repo, runID, log)
	}

	// 5. Build the simulation
	s, err := sim.New(cfg, sc, sim.Options{
		Lua:    lua,
		Ledger: ledger,
		RunID:  runID,
		Seed:   uint64(time.Now().UnixNano()),
	}, log)
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}

	// 6. Metrics (optional)
	if cfg.Metrics.Address != "" {
		collector, err := metrics.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		collector.Subscribe(s.Bus)
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics.Address, log); err != nil {
				log.Error("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	printSection("Ready")
	printStat("Actors", s.State.Count())
	printReady(fmt.Sprintf("Run %s", s.RunID()))
	printReady(fmt.Sprintf("Loop started (tick: %s)", cfg.Sim.TickRate))
	fmt.Println()

	// 7. Main loop
	var src clock.Source = clock.Fixed(cfg.Sim.TickRate)
	if cfg.Sim.Mode == "realtime" {
		src = clock.NewWall(clock.Real{})
	}
	runErr := s.Run(ctx, src)
	if runErr != nil && ctx.Err() != nil {
		log.Info("shutdown signal received, stopping")
		runErr = nil
	}

	// 8. Final ledger flush
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Close(flushCtx); err != nil {
		log.Error("ledger flush on shutdown failed", zap.Error(err))
	}

	sum := s.Summary()
	log.Info("run finished",
		zap.String("run_id", sum.RunID.String()),
		zap.Uint64("frames", sum.Frames),
		zap.Float64("real_time", sum.RealTime),
		zap.Float64("debt", sum.Debt.Current),
		zap.String("tier", sum.Debt.TierName),
		zap.Float64("peak_debt", sum.Debt.Peak),
		zap.Float64("total_accrued", sum.Debt.TotalAccrued),
		zap.Int("bankruptcies", sum.Debt.TimesBankrupt),
		zap.Float64("total_frozen", sum.TotalFrozen),
		zap.Float64("peak_momentum", sum.Momentum.Peak),
		zap.Int("player_hits", sum.PlayerHits),
		zap.Int("ledger_writes", sum.LedgerWrites),
	)
	return runErr
}

// reportLedger reads the run back from the database once the final flush is
// done.
func reportLedger(repo *persist.LedgerRepo, runID uuid.UUID, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sum, err := repo.Summary(ctx, runID)
	if err != nil {
		log.Warn("ledger summary unavailable", zap.Error(err))
		return
	}
	log.Info("ledger summary",
		zap.String("run_id", runID.String()),
		zap.Int64("entries", sum.Entries),
		zap.Float64("peak_debt", sum.PeakDebt),
		zap.Int64("bankruptcies", sum.Bankrupts),
	)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
