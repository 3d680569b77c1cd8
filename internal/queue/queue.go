// Package queue implements the playback queue: a past/current/future
// ordering over tracks, with a bounded broadcast of updates so the
// playback engine and any presentation layer stay in sync.
package queue

import (
	"sync"

	"github.com/melodia/melodiad/internal/plugin"
)

// updateBufferSize bounds each subscriber's update channel. A slow
// subscriber drops updates past this depth rather than stalling
// Push/Advance for everyone else.
const updateBufferSize = 16

// UpdateKind discriminates the payload carried by an Update.
type UpdateKind int

const (
	// CurrentTrackChanged fires whenever Advance moves the queue to a
	// new current track.
	CurrentTrackChanged UpdateKind = iota
	// TrackAdded fires whenever Push appends a track to the future.
	TrackAdded
)

// Update is one change to the queue's contents, broadcast to every
// subscriber.
type Update struct {
	Kind  UpdateKind
	Track plugin.UniqueTrackIdentifier // only meaningful for TrackAdded
}

// Queue holds the past, current, and future tracks of a single playback
// session and broadcasts every change to subscribers.
type Queue struct {
	mu      sync.Mutex
	past    []plugin.UniqueTrackIdentifier
	current *plugin.UniqueTrackIdentifier
	future  []plugin.UniqueTrackIdentifier

	subMu sync.Mutex
	subs  []chan Update
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Subscribe returns a channel receiving every future Update. Call the
// returned cancel function to stop receiving and release the channel.
func (q *Queue) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, updateBufferSize)
	q.subMu.Lock()
	q.subs = append(q.subs, ch)
	q.subMu.Unlock()

	cancel := func() {
		q.subMu.Lock()
		defer q.subMu.Unlock()
		for i, c := range q.subs {
			if c == ch {
				q.subs = append(q.subs[:i], q.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

func (q *Queue) notify(u Update) {
	q.subMu.Lock()
	defer q.subMu.Unlock()
	for _, ch := range q.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// Push appends track to the future and notifies subscribers.
func (q *Queue) Push(track plugin.UniqueTrackIdentifier) {
	q.mu.Lock()
	q.future = append(q.future, track)
	q.mu.Unlock()

	q.notify(Update{Kind: TrackAdded, Track: track})
}

// Advance moves the queue forward: the current track (if any) moves to
// past, and the first future track (if any) becomes current. If both
// current and future are already empty, Advance is a no-op and does not
// notify subscribers — there is nothing for them to react to. Returns
// the new current track, or nil if the queue is empty after advancing.
func (q *Queue) Advance() *plugin.UniqueTrackIdentifier {
	q.mu.Lock()
	if q.current == nil && len(q.future) == 0 {
		q.mu.Unlock()
		return nil
	}

	if q.current != nil {
		q.past = append(q.past, *q.current)
	}

	if len(q.future) > 0 {
		next := q.future[0]
		q.future = q.future[1:]
		q.current = &next
	} else {
		q.current = nil
	}
	current := q.current
	q.mu.Unlock()

	q.notify(Update{Kind: CurrentTrackChanged})
	return current
}

// PeekAt returns the track at offset relative to current: 0 is current,
// negative offsets index backward into past (-1 is the track played
// immediately before current), and positive offsets index forward into
// future (1 is the next track to play).
func (q *Queue) PeekAt(offset int) *plugin.UniqueTrackIdentifier {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case offset == 0:
		return q.current
	case offset < 0:
		idx := len(q.past) + offset
		if idx < 0 || idx >= len(q.past) {
			return nil
		}
		t := q.past[idx]
		return &t
	default:
		idx := offset - 1
		if idx < 0 || idx >= len(q.future) {
			return nil
		}
		t := q.future[idx]
		return &t
	}
}

// Current returns the current track, or nil if nothing is playing.
func (q *Queue) Current() *plugin.UniqueTrackIdentifier {
	return q.PeekAt(0)
}

// NextTrack returns the track that would become current on the next
// Advance, used by the prefetch cache to decide what to load ahead of
// time.
func (q *Queue) NextTrack() *plugin.UniqueTrackIdentifier {
	return q.PeekAt(1)
}

// Snapshot is a consistent, point-in-time copy of the queue's contents.
type Snapshot struct {
	Past    []plugin.UniqueTrackIdentifier
	Current *plugin.UniqueTrackIdentifier
	Future  []plugin.UniqueTrackIdentifier
}

// Snapshot copies the queue's current contents.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	snap := Snapshot{
		Past:   append([]plugin.UniqueTrackIdentifier(nil), q.past...),
		Future: append([]plugin.UniqueTrackIdentifier(nil), q.future...),
	}
	if q.current != nil {
		cur := *q.current
		snap.Current = &cur
	}
	return snap
}
