package plugin

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRuntime satisfies pluginRuntime without a real wasm sandbox, so
// Pool's lifecycle logic (idle reuse, serialization, eviction, cleanup)
// can be exercised without ever loading a module.
type fakeRuntime struct{}

func (fakeRuntime) FunctionExists(string) bool                  { return true }
func (fakeRuntime) Call(string, []byte) (uint32, []byte, error) { return 0, nil, nil }
func (fakeRuntime) Close(context.Context) error                 { return nil }

// countingLoader returns a Pool.loader that builds fake Instances and
// counts how many times it was called, so tests can assert a serialized
// plugin never had two instances loaded at once.
func countingLoader() (loader func(ctx context.Context, wasmPath, dataDir string) (*Instance, error), count *int32) {
	count = new(int32)
	loader = func(ctx context.Context, wasmPath, dataDir string) (*Instance, error) {
		atomic.AddInt32(count, 1)
		return &Instance{runtime: fakeRuntime{}, metadata: Metadata{Name: "fake"}}, nil
	}
	return loader, count
}

func TestPoolAcquireReusesReleasedInstance(t *testing.T) {
	loader, loadCount := countingLoader()
	p := &Pool{loader: loader, metadata: Metadata{AllowConcurrency: true}}

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	first := h.Instance()
	h.Release()

	h2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if h2.Instance() != first {
		t.Fatal("Acquire after Release built a new instance instead of reusing the idle one")
	}
	if got := atomic.LoadInt32(loadCount); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

// TestPoolSerializesAcquireUntilRelease is the pool-boundary scenario
// named in the review: a plugin that declares AllowConcurrency == false
// must block a second Acquire until the first Handle is released,
// rather than loading a second concurrent instance.
func TestPoolSerializesAcquireUntilRelease(t *testing.T) {
	loader, loadCount := countingLoader()
	p := &Pool{loader: loader, metadata: Metadata{AllowConcurrency: false}}

	h1, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	acquired := make(chan *Handle, 1)
	go func() {
		h, err := p.Acquire(context.Background())
		if err != nil {
			return
		}
		acquired <- h
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire returned before the first handle was released")
	case <-time.After(50 * time.Millisecond):
	}

	h1.Release()

	select {
	case h2 := <-acquired:
		h2.Release()
	case <-time.After(time.Second):
		t.Fatal("second Acquire never unblocked after Release")
	}

	if got := atomic.LoadInt32(loadCount); got != 1 {
		t.Fatalf("loader called %d times, want 1 (serialized plugin must reuse its single instance)", got)
	}
}

func TestPoolAllowsConcurrentAcquireWhenAllowed(t *testing.T) {
	loader, loadCount := countingLoader()
	p := &Pool{loader: loader, metadata: Metadata{AllowConcurrency: true}}

	h1, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	h2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	h1.Release()
	h2.Release()

	if got := atomic.LoadInt32(loadCount); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestPoolEvictIdleDiscardsInstancesUnusedSinceCutoff(t *testing.T) {
	loader, _ := countingLoader()
	p := &Pool{loader: loader, metadata: Metadata{AllowConcurrency: true}}

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	h.Release()

	p.mu.Lock()
	p.lastUse = time.Now().Add(-time.Hour)
	p.mu.Unlock()

	p.EvictIdle(context.Background(), time.Now().Add(-time.Minute))

	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()
	if idle != 0 {
		t.Fatalf("idle instances after EvictIdle = %d, want 0", idle)
	}
}

func TestPoolEvictIdleKeepsRecentlyUsedInstances(t *testing.T) {
	loader, _ := countingLoader()
	p := &Pool{loader: loader, metadata: Metadata{AllowConcurrency: true}}

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	h.Release()

	p.EvictIdle(context.Background(), time.Now().Add(-time.Hour))

	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()
	if idle != 1 {
		t.Fatalf("idle instances after EvictIdle with a stale cutoff = %d, want 1", idle)
	}
}

func TestPoolCleanupTrimsToOneIdleInstance(t *testing.T) {
	loader, _ := countingLoader()
	p := &Pool{loader: loader, metadata: Metadata{AllowConcurrency: true}}

	var handles []*Handle
	for i := 0; i < 3; i++ {
		h, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
		handles = append(handles, h)
	}
	for _, h := range handles {
		h.Release()
	}

	p.Cleanup(context.Background())

	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()
	if idle != 1 {
		t.Fatalf("idle instances after Cleanup = %d, want 1", idle)
	}
}
