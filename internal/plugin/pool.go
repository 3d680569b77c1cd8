package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Pool manages every loaded Instance of a single plugin module. It
// reuses idle instances FIFO, creates new ones on demand, and — for a
// plugin that reports AllowConcurrency == false — serializes
// instantiation so at most one Instance of that plugin ever exists at
// once.
type Pool struct {
	wasmPath string
	dataDir  string
	metadata Metadata
	caps     Capabilities

	// loader builds a new Instance. Defaults to Load; overridden in
	// tests so Pool's lifecycle logic can run against a fake Instance
	// without a real wasm sandbox.
	loader func(ctx context.Context, wasmPath, dataDir string) (*Instance, error)

	mu      sync.Mutex
	idle    []*Instance
	active  int
	waiters []chan struct{}

	lastUse time.Time
}

// NewPool probes wasmPath once to learn its metadata and capabilities,
// then returns a Pool ready to Acquire instances. The probe instance
// itself is discarded; Acquire builds the first real Instance lazily.
func NewPool(ctx context.Context, wasmPath, dataDir string) (*Pool, error) {
	metadata, caps, err := probeMetadataAndCapabilities(ctx, wasmPath)
	if err != nil {
		return nil, err
	}
	return &Pool{
		wasmPath: wasmPath,
		dataDir:  dataDir,
		metadata: metadata,
		caps:     caps,
		loader:   Load,
		lastUse:  time.Now(),
	}, nil
}

// Metadata returns the pooled plugin's static identity.
func (p *Pool) Metadata() Metadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metadata
}

// Capabilities returns the pooled plugin's derived capabilities. Until
// the first Instance is built, this reflects a probe instance's
// capabilities rather than a long-lived one — they never differ, since
// capability derivation only depends on which functions the module
// exports.
func (p *Pool) Capabilities() Capabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.caps
}

// Handle is an exclusive lease on one Instance. Release must be called
// exactly once to return the Instance to its Pool.
type Handle struct {
	pool     *Pool
	instance *Instance
	released bool
}

// Instance returns the leased Instance.
func (h *Handle) Instance() *Instance { return h.instance }

// Release returns the Instance to the pool's idle list, waking one
// waiter blocked on a serialized plugin's single Instance.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.pool.release(h.instance)
}

// Acquire leases an idle Instance if one exists, otherwise builds a new
// one. For a plugin with AllowConcurrency == false, Acquire blocks until
// the single outstanding Instance is released rather than building a
// second one.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	for {
		p.mu.Lock()
		if n := len(p.idle); n > 0 {
			inst := p.idle[0]
			p.idle = p.idle[1:]
			p.lastUse = time.Now()
			p.mu.Unlock()
			return &Handle{pool: p, instance: inst}, nil
		}

		serialized := p.active > 0 && !p.metadata.AllowConcurrency
		if !serialized {
			p.active++
			p.mu.Unlock()
			inst, err := p.loader(ctx, p.wasmPath, p.dataDir)
			if err != nil {
				p.mu.Lock()
				p.active--
				p.mu.Unlock()
				return nil, fmt.Errorf("plugin: acquire %q: %w", p.metadata.Name, err)
			}
			p.mu.Lock()
			p.caps = inst.caps
			p.mu.Unlock()
			return &Handle{pool: p, instance: inst}, nil
		}

		wake := make(chan struct{})
		p.waiters = append(p.waiters, wake)
		p.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (p *Pool) release(inst *Instance) {
	p.mu.Lock()
	p.idle = append(p.idle, inst)
	p.lastUse = time.Now()
	var wake chan struct{}
	if len(p.waiters) > 0 {
		wake, p.waiters = p.waiters[0], p.waiters[1:]
	}
	p.mu.Unlock()
	if wake != nil {
		close(wake)
	}
}

// EvictIdle discards every idle Instance if the pool has not handed out
// or taken back any Instance since cutoff; otherwise it keeps them all.
// Instances currently on loan are untouched.
func (p *Pool) EvictIdle(ctx context.Context, cutoff time.Time) {
	p.mu.Lock()
	if p.lastUse.After(cutoff) || len(p.idle) == 0 {
		p.mu.Unlock()
		return
	}
	toClose := p.idle
	p.idle = nil
	p.active -= len(toClose)
	p.mu.Unlock()

	for _, inst := range toClose {
		if err := inst.Close(ctx); err != nil {
			slog.Warn("failed to close idle plugin instance", "plugin", p.metadata.Name, "error", err)
		}
	}
}

// Cleanup trims the pool down to exactly one retained idle instance,
// closing the rest. Called once a scan pass completes, when many
// provide_tracks instances were created to parallelize track scanning
// but only one is needed for ongoing use.
func (p *Pool) Cleanup(ctx context.Context) {
	p.mu.Lock()
	if len(p.idle) <= 1 {
		p.mu.Unlock()
		return
	}
	keep := p.idle[:1]
	toClose := p.idle[1:]
	p.idle = keep
	p.active -= len(toClose)
	p.mu.Unlock()

	for _, inst := range toClose {
		if err := inst.Close(ctx); err != nil {
			slog.Warn("failed to close plugin instance during cleanup", "plugin", p.metadata.Name, "error", err)
		}
	}
}

// Close shuts down every idle instance the pool holds. Instances on loan
// to outstanding Handles are not closed, and Close does not wait for
// them to be released.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	toClose := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, inst := range toClose {
		if err := inst.Close(ctx); err != nil {
			slog.Warn("failed to close plugin instance", "plugin", p.metadata.Name, "error", err)
		}
	}
}
