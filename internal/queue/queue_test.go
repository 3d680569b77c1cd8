package queue

import (
	"testing"

	"github.com/melodia/melodiad/internal/plugin"
)

func track(data string) plugin.UniqueTrackIdentifier {
	return plugin.UniqueTrackIdentifier{PluginID: 1, PluginData: plugin.TrackIdentifier(data)}
}

func TestAdvanceOnEmptyQueueIsNoopAndDoesNotNotify(t *testing.T) {
	q := New()
	updates, cancel := q.Subscribe()
	defer cancel()

	if got := q.Advance(); got != nil {
		t.Fatalf("Advance on empty queue = %v, want nil", got)
	}

	select {
	case u := <-updates:
		t.Fatalf("expected no update on empty Advance, got %+v", u)
	default:
	}
}

func TestPushThenAdvance(t *testing.T) {
	q := New()
	a, b := track("a"), track("b")

	q.Push(a)
	q.Push(b)

	if got := q.Current(); got != nil {
		t.Fatalf("Current before Advance = %v, want nil", got)
	}
	if got := q.NextTrack(); got == nil || *got != a {
		t.Fatalf("NextTrack = %v, want %v", got, a)
	}

	cur := q.Advance()
	if cur == nil || *cur != a {
		t.Fatalf("Advance() = %v, want %v", cur, a)
	}
	if got := q.Current(); got == nil || *got != a {
		t.Fatalf("Current() = %v, want %v", got, a)
	}

	cur = q.Advance()
	if cur == nil || *cur != b {
		t.Fatalf("Advance() = %v, want %v", cur, b)
	}

	past := q.PeekAt(-1)
	if past == nil || *past != a {
		t.Fatalf("PeekAt(-1) = %v, want %v", past, a)
	}
}

func TestAdvancePastLastTrackLeavesQueueEmptyWithHistory(t *testing.T) {
	q := New()
	a := track("a")
	q.Push(a)
	q.Advance()

	cur := q.Advance()
	if cur != nil {
		t.Fatalf("Advance() past the last track = %v, want nil", cur)
	}
	past := q.PeekAt(-1)
	if past == nil || *past != a {
		t.Fatalf("PeekAt(-1) after draining future = %v, want %v", past, a)
	}
}

func TestSubscribeReceivesTrackAdded(t *testing.T) {
	q := New()
	updates, cancel := q.Subscribe()
	defer cancel()

	a := track("a")
	q.Push(a)

	select {
	case u := <-updates:
		if u.Kind != TrackAdded || u.Track != a {
			t.Fatalf("update = %+v, want TrackAdded(%v)", u, a)
		}
	default:
		t.Fatal("expected a TrackAdded update")
	}
}

func TestPeekAtOutOfRangeReturnsNil(t *testing.T) {
	q := New()
	q.Push(track("a"))

	if got := q.PeekAt(5); got != nil {
		t.Fatalf("PeekAt(5) = %v, want nil", got)
	}
	if got := q.PeekAt(-5); got != nil {
		t.Fatalf("PeekAt(-5) = %v, want nil", got)
	}
}
