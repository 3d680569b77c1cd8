package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// IDAssigner resolves a plugin's stable UUID to the compact ID the
// catalog uses to key tracks, registering it on first sight. Satisfied
// by *catalog.Store.
type IDAssigner interface {
	RegisterPlugin(ctx context.Context, pluginUUID uuid.UUID) (ID, error)
}

// Registry loads every *.wasm module in a directory, assigns each a
// compact ID, and holds one Pool per plugin for the lifetime of the
// process. It is immutable after Init: plugins are discovered once at
// startup, matching the spec's no-hot-reload design.
type Registry struct {
	mu    sync.RWMutex
	pools map[ID]*Pool

	cronJob *cron.Cron

	idleEvictionInterval time.Duration
}

// Init scans dir for *.wasm files, loads each as a Pool, and registers
// its UUID with assigner to obtain a compact ID. A file that fails to
// load or lacks get_metadata is logged and skipped rather than failing
// the whole scan, matching the teacher's discovery loop.
func Init(ctx context.Context, dir string, dataDir string, assigner IDAssigner, idleEvictionInterval time.Duration) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("plugin: read plugin directory %q: %w", dir, err)
	}

	r := &Registry{
		pools:                map[ID]*Pool{},
		idleEvictionInterval: idleEvictionInterval,
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wasm" {
			continue
		}

		wasmPath := filepath.Join(dir, entry.Name())
		pool, err := NewPool(ctx, wasmPath, filepath.Join(dataDir, entry.Name()))
		if err != nil {
			slog.Warn("failed to load plugin", "path", wasmPath, "error", err)
			continue
		}

		id, err := assigner.RegisterPlugin(ctx, pool.Metadata().UUID)
		if err != nil {
			slog.Warn("failed to register plugin", "path", wasmPath, "uuid", pool.Metadata().UUID, "error", err)
			continue
		}

		r.pools[id] = pool
		slog.Info("loaded plugin", "plugin_id", id, "name", pool.Metadata().Name, "uuid", pool.Metadata().UUID)
	}

	r.startEvictionJob()
	return r, nil
}

// startEvictionJob schedules the idle-instance eviction sweep on a
// robfig/cron schedule derived from idleEvictionInterval. Using a cron
// job rather than a bare time.Ticker keeps the janitor on the same
// scheduling machinery the rest of the system's periodic work uses.
func (r *Registry) startEvictionJob() {
	if r.idleEvictionInterval <= 0 {
		return
	}
	r.cronJob = cron.New()
	interval := r.idleEvictionInterval
	_, err := r.cronJob.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		cutoff := time.Now().Add(-interval)
		ctx := context.Background()
		r.mu.RLock()
		pools := make([]*Pool, 0, len(r.pools))
		for _, p := range r.pools {
			pools = append(pools, p)
		}
		r.mu.RUnlock()
		for _, p := range pools {
			p.EvictIdle(ctx, cutoff)
		}
	})
	if err != nil {
		slog.Error("failed to schedule plugin eviction job", "error", err)
		return
	}
	r.cronJob.Start()
}

// Pool returns the Pool for a registered plugin ID, or false if no
// plugin was registered under that ID.
func (r *Registry) Pool(id ID) (*Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[id]
	return p, ok
}

// IDs returns every registered plugin ID in ascending order, giving
// callers that need a stable iteration order (e.g. prefetch's
// first-successful-decoder search) a deterministic one.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// All returns every registered plugin's ID and Pool.
func (r *Registry) All() map[ID]*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[ID]*Pool, len(r.pools))
	for id, p := range r.pools {
		out[id] = p
	}
	return out
}

// WithCapability returns every registered plugin whose Capabilities
// satisfy want.
func (r *Registry) WithCapability(want func(Capabilities) bool) map[ID]*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[ID]*Pool{}
	for id, p := range r.pools {
		if want(p.Capabilities()) {
			out[id] = p
		}
	}
	return out
}

// Cleanup trims every pool down to a single retained instance. Called
// once a scan pass completes.
func (r *Registry) Cleanup(ctx context.Context) {
	for _, p := range r.All() {
		p.Cleanup(ctx)
	}
}

// Close stops the eviction job and shuts down every pool.
func (r *Registry) Close(ctx context.Context) {
	if r.cronJob != nil {
		r.cronJob.Stop()
	}
	for _, p := range r.All() {
		p.Close(ctx)
	}
}
