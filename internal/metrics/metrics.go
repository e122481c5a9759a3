// Package metrics mirrors temporal state into Prometheus gauges and counters.
// Values are fed from routed frame events, so they change only at the Output
// phase and never show a half-updated frame.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/temporaldebt/core/internal/core/event"
)

type Collector struct {
	gatherer prometheus.Gatherer

	Debt           prometheus.Gauge
	Tier           prometheus.Gauge
	TimeScale      prometheus.Gauge
	AnchorsActive  prometheus.Gauge
	Bankruptcies   prometheus.Counter
	Recalls        prometheus.Counter
	RecallsDenied  prometheus.Counter
	FreezeSeconds  prometheus.Counter
	BombsDetonated prometheus.Counter
}

// NewCollector registers the temporal metrics against reg, defaulting to the
// global registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		Debt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "temporal_debt_seconds",
			Help: "Current temporal debt in seconds.",
		}),
		Tier: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "temporal_debt_tier",
			Help: "Current debt tier index.",
		}),
		TimeScale: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "temporal_time_scale",
			Help: "World time scale applied to time-affected entities.",
		}),
		AnchorsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "temporal_anchors_active",
			Help: "Number of live time anchors.",
		}),
		Bankruptcies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "temporal_bankruptcies_total",
			Help: "Times the debt crossed the bankruptcy threshold.",
		}),
		Recalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "temporal_anchor_recalls_total",
			Help: "Successful anchor recalls.",
		}),
		RecallsDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "temporal_recalls_declined_total",
			Help: "Recalls refused for a missing or expired anchor.",
		}),
		FreezeSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "temporal_freeze_seconds_total",
			Help: "Real seconds spent with time frozen.",
		}),
		BombsDetonated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "temporal_bombs_detonated_total",
			Help: "Debt bombs that went off.",
		}),
	}
	c.TimeScale.Set(1)

	for _, m := range []prometheus.Collector{
		c.Debt, c.Tier, c.TimeScale, c.AnchorsActive,
		c.Bankruptcies, c.Recalls, c.RecallsDenied, c.FreezeSeconds, c.BombsDetonated,
	} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return c, nil
}

// Subscribe routes frame events into the metrics.
func (c *Collector) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(e event.DebtChanged) { c.Debt.Set(e.Value) })
	event.Subscribe(bus, func(e event.TierChanged) { c.Tier.Set(float64(e.New)) })
	event.Subscribe(bus, func(e event.TimeScaleChanged) { c.TimeScale.Set(e.Scale) })
	event.Subscribe(bus, func(event.BankruptcyStarted) { c.Bankruptcies.Inc() })
	event.Subscribe(bus, func(event.AnchorRecalled) {
		c.Recalls.Inc()
		c.AnchorsActive.Dec()
	})
	event.Subscribe(bus, func(event.RecallDeclined) { c.RecallsDenied.Inc() })
	event.Subscribe(bus, func(e event.TimeUnfrozen) { c.FreezeSeconds.Add(e.Duration) })
	event.Subscribe(bus, func(event.AnchorPlaced) { c.AnchorsActive.Inc() })
	event.Subscribe(bus, func(event.AnchorExpired) { c.AnchorsActive.Dec() })
	event.Subscribe(bus, func(event.AnchorEvicted) { c.AnchorsActive.Dec() })
	event.Subscribe(bus, func(event.AnchorsCleared) { c.AnchorsActive.Set(0) })
	event.Subscribe(bus, func(event.BombDetonated) { c.BombsDetonated.Inc() })
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Serve runs the /metrics listener until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics listener started", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics listener: %w", err)
	}
}
