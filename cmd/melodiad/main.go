package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/melodia/melodiad/internal/catalog"
	"github.com/melodia/melodiad/internal/config"
	"github.com/melodia/melodiad/internal/plugin"
	"github.com/melodia/melodiad/internal/playback"
	"github.com/melodia/melodiad/internal/queue"
	"github.com/melodia/melodiad/internal/scan"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/melodiad
var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	slog.Info("starting melodiad", "version", version)

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	registry, err := plugin.Init(ctx, cfg.PluginDir, cfg.DataDir, store, cfg.IdleEvictionInterval)
	if err != nil {
		slog.Error("failed to load plugins", "error", err)
		os.Exit(1)
	}
	defer registry.Close(context.Background())

	statsJob := startStatsRefreshJob(ctx, store)
	defer statsJob.Stop()

	q := queue.New()
	cache := playback.NewPrefetchCache(registry)
	engine := playback.NewEngine(q, registry, cache)
	go engine.Run(ctx)

	pipeline := scan.New(registry, store, cfg.ScanWorkers, cfg.ImportQueueCapacity)
	handle := pipeline.Run(ctx)
	go logScanProgress(handle)

	slog.Info("melodiad running", "plugins", len(registry.All()))

	<-ctx.Done()
	slog.Info("received termination signal, shutting down")
}

// startStatsRefreshJob periodically logs catalog size, the Go
// equivalent of original_source's DbStats refresh after every import
// batch, kept running for the lifetime of the process rather than only
// right after a scan.
func startStatsRefreshJob(ctx context.Context, store *catalog.Store) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@every 1m", func() {
		stats, err := store.Stats(ctx)
		if err != nil {
			slog.Warn("failed to refresh catalog stats", "error", err)
			return
		}
		slog.Info("catalog stats",
			"tracks", stats.Tracks,
			"albums", stats.Albums,
			"artists", stats.Artists,
			"track_groups", stats.TrackGroups,
		)
	})
	if err != nil {
		slog.Error("failed to schedule stats refresh job", "error", err)
	}
	c.Start()
	return c
}

func logScanProgress(handle *scan.Handle) {
	for p := range handle.Updates() {
		if p.Err != nil {
			slog.Error("scan failed", "error", p.Err)
			continue
		}
		slog.Info(fmt.Sprintf("scan progress: %s", p.Message), "percent", p.Percent, "done", p.Done)
	}
}
