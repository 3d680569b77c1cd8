package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/melodia/melodiad/internal/plugin"
)

// ErrNoProvider is returned when the track's provider plugin is not
// registered.
var ErrNoProvider = errors.New("playback: provider plugin not registered")

// ErrNoDecoder is returned when no registered decode-capable plugin
// could decode the track's audio file.
var ErrNoDecoder = errors.New("playback: no decoder plugin could decode this track")

// PrefetchCache holds exactly one pre-loaded Source for the track the
// queue expects to play next, so the playback engine can switch to it
// with no gap once the current track ends. Loading happens
// asynchronously; Take blocks until the in-flight load (if any)
// finishes rather than risk handing back a stale source for the wrong
// track.
type PrefetchCache struct {
	registry *plugin.Registry

	mu       sync.Mutex
	forTrack *plugin.UniqueTrackIdentifier
	source   Source
	loading  bool
	done     chan struct{}
}

// NewPrefetchCache returns an empty PrefetchCache.
func NewPrefetchCache(registry *plugin.Registry) *PrefetchCache {
	return &PrefetchCache{registry: registry}
}

// Prefetch begins loading track in the background if it isn't already
// cached and no load is in flight. While a load is in flight, Prefetch
// ignores every request, including one for a different track; a Take
// for that other track then reports ok == false, since Take checks the
// track identity before returning a cached source.
func (c *PrefetchCache) Prefetch(ctx context.Context, track plugin.UniqueTrackIdentifier) {
	c.mu.Lock()
	if c.loading || (c.forTrack != nil && *c.forTrack == track) {
		c.mu.Unlock()
		return
	}
	c.loading = true
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		src, err := c.load(ctx, track)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.loading = false
		if err != nil {
			slog.Warn("prefetch failed", "plugin_id", track.PluginID, "error", err)
			c.forTrack = nil
			c.source = nil
			return
		}
		t := track
		c.forTrack = &t
		c.source = src
	}()
}

// Take returns the cached Source for track, waiting for an in-flight
// load to finish first. If the cache holds a source for a different
// track, or loading failed, ok is false and the caller should fall back
// to silence or load synchronously.
func (c *PrefetchCache) Take(track plugin.UniqueTrackIdentifier) (src Source, ok bool) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.forTrack == nil || *c.forTrack != track {
		return nil, false
	}
	src, c.source = c.source, nil
	c.forTrack = nil
	return src, true
}

// load resolves track's provider plugin, fetches its audio file, and
// tries every registered decode-capable plugin in stable (ascending
// plugin id) order until one successfully begins decoding.
func (c *PrefetchCache) load(ctx context.Context, track plugin.UniqueTrackIdentifier) (Source, error) {
	providerPool, ok := c.registry.Pool(track.PluginID)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNoProvider, plugin.ErrNotFound)
	}

	providerHandle, err := providerPool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire provider instance: %w", err)
	}
	file, err := providerHandle.Instance().GetAudioFile(ctx, track.PluginData)
	providerHandle.Release()
	if err != nil {
		return nil, fmt.Errorf("get audio file: %w", err)
	}

	for _, id := range c.registry.IDs() {
		pool, ok := c.registry.Pool(id)
		if !ok || !pool.Capabilities().Decode {
			continue
		}

		handle, err := pool.Acquire(ctx)
		if err != nil {
			slog.Warn("failed to acquire decoder instance", "plugin_id", id, "error", err)
			continue
		}

		source, err := NewPluginSource(ctx, handle, file)
		if err != nil {
			handle.Release()
			slog.Debug("decoder could not decode track", "plugin_id", id, "error", err)
			continue
		}
		return source, nil
	}

	return nil, ErrNoDecoder
}
