// Package scan implements the two-phase library scan: prepare_scan
// across every provide_tracks plugin, then scan each offered track in
// parallel, feeding results to a single import worker that writes them
// into the catalog.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/melodia/melodiad/internal/catalog"
	"github.com/melodia/melodiad/internal/plugin"
)

// prepareScanProgress is the percentage budget Phase A (prepare_scan)
// consumes before Phase B (per-track scan) takes over the remaining 90%.
const prepareScanProgress = 10.0

// defaultImportQueueCapacity bounds how many scanned-but-not-yet-imported
// tracks can queue up behind the single sqlite import worker before
// scan workers block on sending to it, when New is given capacity <= 0.
const defaultImportQueueCapacity = 128

// Pipeline runs library scans against a plugin registry and persists
// results into a catalog store.
type Pipeline struct {
	registry            *plugin.Registry
	store               *catalog.Store
	workers             int
	importQueueCapacity int

	// resolveProviders returns every provide_tracks plugin to scan this
	// pass. Defaults to querying registry; overridden in tests so the
	// rest of the pipeline can run against fake providers without a
	// real sandboxed plugin.
	resolveProviders func(ctx context.Context) map[plugin.ID]Provider
}

// New returns a Pipeline. workers <= 0 selects
// max(1, runtime.NumCPU()-2), leaving headroom for the rest of the
// process (playback decoding, any UI) during a scan. importQueueCapacity
// <= 0 selects defaultImportQueueCapacity.
func New(registry *plugin.Registry, store *catalog.Store, workers int, importQueueCapacity int) *Pipeline {
	if workers <= 0 {
		workers = runtime.NumCPU() - 2
		if workers < 1 {
			workers = 1
		}
	}
	if importQueueCapacity <= 0 {
		importQueueCapacity = defaultImportQueueCapacity
	}
	return &Pipeline{
		registry:            registry,
		store:               store,
		workers:             workers,
		importQueueCapacity: importQueueCapacity,
		resolveProviders: func(ctx context.Context) map[plugin.ID]Provider {
			pools := registry.WithCapability(func(c plugin.Capabilities) bool { return c.ProvideTracks })
			out := make(map[plugin.ID]Provider, len(pools))
			for id, pool := range pools {
				out[id] = poolProvider{pool}
			}
			return out
		},
	}
}

type scannableTrack struct {
	pluginID plugin.ID
	pool     Provider
	track    plugin.TrackIdentifier
}

// Run starts a scan in the background and returns a Handle to observe
// its progress. Phase A runs prepare_scan on every provide_tracks
// plugin in parallel; Phase B scans every offered track in parallel,
// feeding results to a single import worker goroutine since sqlite
// writes cannot be usefully parallelized.
func (p *Pipeline) Run(ctx context.Context) *Handle {
	handle := newHandle()
	go p.run(ctx, handle)
	return handle
}

func (p *Pipeline) run(ctx context.Context, handle *Handle) {
	handle.send(Progress{Percent: 0, Message: "Preparing scan..."})
	slog.Info("starting music scan")

	providers := p.resolveProviders(ctx)
	if len(providers) == 0 {
		handle.finish(Progress{Percent: 100, Message: "No provider plugins installed"})
		return
	}

	tracks := p.prepareScans(ctx, providers, handle)
	if len(tracks) == 0 {
		handle.finish(Progress{Percent: 100, Message: "No tracks found"})
		p.registry.Cleanup(ctx)
		return
	}

	handle.send(Progress{Percent: prepareScanProgress, Message: "Scanning tracks..."})
	slog.Info("prepared scan", "track_count", len(tracks))

	p.scanTracks(ctx, tracks, handle)

	p.registry.Cleanup(ctx)

	if stats, err := p.store.Stats(ctx); err != nil {
		slog.Warn("failed to refresh catalog stats after scan", "error", err)
	} else {
		slog.Info("music scan completed", "tracks", stats.Tracks, "albums", stats.Albums, "artists", stats.Artists)
	}

	handle.finish(Progress{Percent: 100, Message: "Scan complete"})
}

// prepareScans calls prepare_scan on every provider plugin in parallel,
// bounded by the pipeline's worker count, and flattens the results into
// one list of tracks to scan.
func (p *Pipeline) prepareScans(ctx context.Context, providers map[plugin.ID]Provider, handle *Handle) []scannableTrack {
	type result struct {
		id    plugin.ID
		pool  Provider
		scan  plugin.PreparedScan
		error error
	}

	jobs := make(chan plugin.ID, len(providers))
	for id := range providers {
		jobs <- id
	}
	close(jobs)

	results := make(chan result, len(providers))
	var wg sync.WaitGroup
	for n := 0; n < p.workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				pool := providers[id]
				scan, err := p.prepareOne(ctx, pool)
				results <- result{id: id, pool: pool, scan: scan, error: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var tracks []scannableTrack
	completed := 0
	for r := range results {
		completed++
		progressIncrement := prepareScanProgress / float64(len(providers))
		if r.error != nil {
			slog.Warn("failed to prepare scan for plugin", "plugin_id", r.id, "plugin", r.pool.Metadata().Name, "error", r.error)
		} else {
			for _, t := range r.scan.Tracks {
				tracks = append(tracks, scannableTrack{pluginID: r.id, pool: r.pool, track: t})
			}
		}
		handle.send(Progress{
			Percent: float64(completed) * progressIncrement,
			Message: fmt.Sprintf("Preparing scan... (%d/%d plugins)", completed, len(providers)),
		})
	}
	return tracks
}

func (p *Pipeline) prepareOne(ctx context.Context, pool Provider) (plugin.PreparedScan, error) {
	h, err := pool.Acquire(ctx)
	if err != nil {
		return plugin.PreparedScan{}, fmt.Errorf("acquire instance: %w", err)
	}
	defer h.Release()
	return h.Instance().PrepareScan(ctx)
}

// scanTracks scans every offered track in parallel, bounded by the
// pipeline's worker count, streaming results to a single import worker
// over a bounded channel.
func (p *Pipeline) scanTracks(ctx context.Context, tracks []scannableTrack, handle *Handle) {
	type scanned struct {
		id     plugin.UniqueTrackIdentifier
		result plugin.ScanResult
	}

	importQueue := make(chan scanned, p.importQueueCapacity)
	var importWg sync.WaitGroup
	importWg.Add(1)
	go func() {
		defer importWg.Done()
		for s := range importQueue {
			if _, err := p.store.ImportTrack(ctx, s.id, s.result); err != nil {
				slog.Warn("failed to import scanned track", "plugin_id", s.id.PluginID, "error", err)
			}
		}
	}()

	jobs := make(chan scannableTrack, len(tracks))
	for _, t := range tracks {
		jobs <- t
	}
	close(jobs)

	var scanWg sync.WaitGroup
	var mu sync.Mutex
	scannedSoFar := 0

	for n := 0; n < p.workers; n++ {
		scanWg.Add(1)
		go func() {
			defer scanWg.Done()
			for t := range jobs {
				result, err := p.scanOne(ctx, t)

				mu.Lock()
				scannedSoFar++
				percent := prepareScanProgress + (float64(scannedSoFar)/float64(len(tracks)))*(100.0-prepareScanProgress)
				msg := fmt.Sprintf("Scanning tracks... (%d/%d)", scannedSoFar, len(tracks))
				mu.Unlock()
				handle.send(Progress{Percent: percent, Message: msg})

				if err != nil {
					slog.Warn("failed to scan track", "plugin_id", t.pluginID, "track", t.track, "error", err)
					continue
				}

				identifier := plugin.UniqueTrackIdentifier{PluginID: t.pluginID, PluginData: t.track}
				importQueue <- scanned{id: identifier, result: result}
			}
		}()
	}

	scanWg.Wait()
	close(importQueue)
	importWg.Wait()
}

func (p *Pipeline) scanOne(ctx context.Context, t scannableTrack) (plugin.ScanResult, error) {
	h, err := t.pool.Acquire(ctx)
	if err != nil {
		return plugin.ScanResult{}, fmt.Errorf("acquire instance: %w", err)
	}
	defer h.Release()
	return h.Instance().Scan(ctx, t.track)
}
