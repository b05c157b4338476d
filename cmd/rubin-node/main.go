// Command rubin-node runs a single Sleepy-style chain engine instance:
// it loads configuration, opens the bbolt-backed store, wires the
// NTP time source and devnet crypto provider, and serves the chain
// engine's orphan/future drain loops alongside a Prometheus /metrics
// endpoint.
package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/sleepychain/node/chain"
	"github.com/sleepychain/node/config"
	"github.com/sleepychain/node/crypto"
	"github.com/sleepychain/node/logging"
	"github.com/sleepychain/node/metrics"
	"github.com/sleepychain/node/store"
	"github.com/sleepychain/node/timesync"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to the node's TOML configuration file",
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "overrides the configured data directory",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "loglevel",
		Usage: "overrides the configured log level (debug, info, warn, error)",
	}
)

func main() {
	app := &cli.App{
		Name:  "rubin-node",
		Usage: "run a Sleepy-style permissioned chain node",
		Flags: []cli.Flag{configFlag, dataDirFlag, logLevelFlag},
		Action: func(cctx *cli.Context) error {
			return run(cctx)
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cctx *cli.Context) error {
	cfg := config.DefaultConfig()
	if path := cctx.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if dir := cctx.String(dataDirFlag.Name); dir != "" {
		cfg.DataDir = dir
	}
	if level := cctx.String(logLevelFlag.Name); level != "" {
		cfg.LogLevel = level
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFile)
	chainLogger := logging.Component(logger, "chain")
	drainLogger := logging.Component(logger, "drain")

	chainCfg, err := config.ChainConfig(cfg)
	if err != nil {
		return err
	}
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("rubin-node: seed tie-break rng: %w", err)
	}
	chainCfg.TieBreakRNG = mathrand.New(mathrand.NewSource(int64(binary.BigEndian.Uint64(seed[:]))))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("rubin-node: create data dir: %w", err)
	}
	st, err := store.Open(filepath.Join(cfg.DataDir, "chain.db"))
	if err != nil {
		return fmt.Errorf("rubin-node: open store: %w", err)
	}
	defer st.Close()

	clock := timesync.New(cfg.NTPServers, cfg.SlotsPerSec, 30*time.Second)

	registry := prometheus.NewRegistry()
	gauges := metrics.NewGauges(registry)

	c, err := chain.Init(chainCfg, chain.Dependencies{Crypto: crypto.DevProvider{}, Clock: clock, Metrics: gauges}, st)
	if err != nil {
		return fmt.Errorf("rubin-node: init chain: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stopClock := make(chan struct{})
	go clock.Run(stopClock)
	defer clock.Stop()

	go c.RunOrphanDrain(ctx)
	go c.RunFutureDrain(ctx)
	go reportMetrics(ctx, c, gauges)
	go collectCacheGarbage(ctx, c, gauges)
	go logDrainHeartbeat(ctx, drainLogger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	status := c.Status()
	chainLogger.Info("chain engine ready", "height", status.Height, "tip", status.Hash.String())

	<-ctx.Done()
	chainLogger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// reportMetrics periodically samples the chain engine's observable state
// into the Prometheus gauges; it runs independently of the drain loops so
// a slow scrape interval never backs up admission.
func reportMetrics(ctx context.Context, c *chain.Chain, gauges *metrics.Gauges) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := c.Status()
			gauges.Height.Set(float64(status.Height))
			gauges.WindowSize.Set(float64(c.WindowSize()))
			gauges.OrphanDepth.Set(float64(c.OrphanDepth()))
			gauges.FutureDepth.Set(float64(c.FutureDepth()))
		}
	}
}

// estimatedCacheEntryBytes is a rough per-entry footprint (hash key plus a
// small header/body/index value) used only to turn the column caches'
// entry counts into an approximate byte budget for collectCacheGarbage;
// eviction correctness never depends on this being exact, per §5.
const estimatedCacheEntryBytes = 256

// collectCacheGarbage periodically invokes the store's LRU eviction sweep,
// the external maintenance task §5 requires to keep the column caches
// under their configured ceiling, and reports the resulting footprint.
func collectCacheGarbage(ctx context.Context, c *chain.Chain, gauges *metrics.Gauges) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gauges.CacheBytes.Set(float64(c.CollectGarbage(estimatedCacheEntryBytes)))
		}
	}
}

// logDrainHeartbeat logs a debug heartbeat every 30s carrying a fresh
// google/uuid id. It runs on its own ticker: the id is not attached to the
// orphan/future drain loops or to any of their log lines.
func logDrainHeartbeat(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Debug("drain heartbeat", "cycle_id", uuid.NewString())
		}
	}
}
