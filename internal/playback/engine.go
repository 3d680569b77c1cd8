package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/melodia/melodiad/internal/plugin"
	"github.com/melodia/melodiad/internal/queue"
)

// stateEmitInterval is how often Run publishes a PlaybackState
// snapshot, whether or not a track is playing.
const stateEmitInterval = 250 * time.Millisecond

// PlaybackState is a point-in-time snapshot of what the engine is
// doing, published on a single-producer, latest-value-wins channel —
// a watch, not a queue, since stale snapshots are never useful.
type PlaybackState struct {
	Track    *plugin.UniqueTrackIdentifier
	Position time.Duration
	Paused   bool
}

// Engine owns the currently-playing Source, advances the queue when a
// track finishes, and serves the prefetch cache so the next track is
// ready with no gap.
type Engine struct {
	queue    *queue.Queue
	cache    *PrefetchCache
	registry *plugin.Registry

	mu      sync.Mutex
	current Source
	track   *plugin.UniqueTrackIdentifier
	samples uint64
	paused  bool

	stateCh chan PlaybackState

	queueUpdates <-chan queue.Update
	cancelSub    func()
}

// NewEngine returns an Engine over q, leasing decoder/provider
// instances from registry and using cache to prefetch upcoming tracks.
func NewEngine(q *queue.Queue, registry *plugin.Registry, cache *PrefetchCache) *Engine {
	updates, cancel := q.Subscribe()
	return &Engine{
		queue:        q,
		cache:        cache,
		registry:     registry,
		current:      NewSilenceSource(),
		stateCh:      make(chan PlaybackState, 1),
		queueUpdates: updates,
		cancelSub:    cancel,
	}
}

// States returns the latest-value-wins channel of PlaybackState
// snapshots.
func (e *Engine) States() <-chan PlaybackState { return e.stateCh }

// Run drains queue updates, prefetching the upcoming track on each, and
// emits periodic state snapshots until ctx is canceled. It does not
// itself pull samples or switch tracks — both happen on every NextSample
// call from whatever audio sink is driving playback.
func (e *Engine) Run(ctx context.Context) {
	defer e.cancelSub()

	ticker := time.NewTicker(stateEmitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.closeCurrent(context.Background())
			return
		case u := <-e.queueUpdates:
			if u.Kind == queue.CurrentTrackChanged || u.Kind == queue.TrackAdded {
				e.prefetchNext(ctx)
			}
		case <-ticker.C:
			e.emitState()
		}
	}
}

// NextSample pulls one sample from the current source, transparently
// advancing the queue and swapping in a prefetched (or freshly loaded)
// source when the current one is exhausted. Falls back to silence when
// the queue is empty or the next track can't be loaded, so the playback
// clock never simply stalls.
func (e *Engine) NextSample(ctx context.Context) (plugin.Sample, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, true
	}

	sample, ok := e.current.NextSample()
	if ok {
		e.samples++
		return sample, true
	}

	e.advance(ctx)
	sample, ok = e.current.NextSample()
	if ok {
		e.samples++
	}
	return sample, ok
}

// advance moves the queue forward and swaps in whatever source is ready
// for the new current track, locking order: caller already holds e.mu.
func (e *Engine) advance(ctx context.Context) {
	e.closeCurrentLocked(ctx)

	next := e.queue.Advance()
	e.track = next
	e.samples = 0

	if next == nil {
		e.current = NewSilenceSource()
		return
	}

	if src, ok := e.cache.Take(*next); ok {
		e.current = src
		return
	}

	src, err := e.loadSynchronously(ctx, *next)
	if err != nil {
		slog.Warn("falling back to silence", "plugin_id", next.PluginID, "error", err)
		e.current = NewSilenceSource()
		return
	}
	e.current = src
}

func (e *Engine) loadSynchronously(ctx context.Context, track plugin.UniqueTrackIdentifier) (Source, error) {
	e.cache.Prefetch(ctx, track)
	src, ok := e.cache.Take(track)
	if !ok {
		return nil, ErrNoDecoder
	}
	return src, nil
}

func (e *Engine) prefetchNext(ctx context.Context) {
	if next := e.queue.NextTrack(); next != nil {
		e.cache.Prefetch(ctx, *next)
	}
}

func (e *Engine) closeCurrent(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeCurrentLocked(ctx)
}

func (e *Engine) closeCurrentLocked(ctx context.Context) {
	if e.current == nil {
		return
	}
	if err := e.current.Close(ctx); err != nil {
		slog.Warn("failed to close playback source", "error", err)
	}
}

func (e *Engine) emitState() {
	e.mu.Lock()
	state := PlaybackState{
		Track:    e.track,
		Position: e.position(),
		Paused:   e.paused,
	}
	e.mu.Unlock()

	select {
	case e.stateCh <- state:
	default:
		select {
		case <-e.stateCh:
		default:
		}
		select {
		case e.stateCh <- state:
		default:
		}
	}
}

func (e *Engine) position() time.Duration {
	rate := e.current.SampleRate()
	channels := e.current.Channels()
	if rate == 0 || channels == 0 {
		return 0
	}
	framesPerSecond := uint64(rate) * uint64(channels)
	return time.Duration(e.samples) * time.Second / time.Duration(framesPerSecond)
}

// Pause stops sample production without tearing down the current
// source, so Resume picks up exactly where playback left off.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
}

// Resume reverses Pause.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
}
