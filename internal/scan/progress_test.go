package scan

import "testing"

func TestHandleFinishClosesChannel(t *testing.T) {
	h := newHandle()
	h.send(Progress{Percent: 10})
	h.finish(Progress{Percent: 100, Message: "done"})

	var last Progress
	for p := range h.Updates() {
		last = p
	}

	if !last.Done {
		t.Fatalf("final progress should have Done == true, got %+v", last)
	}
	if last.Percent != 100 {
		t.Fatalf("final progress Percent = %v, want 100", last.Percent)
	}
}

func TestHandleSendNeverBlocksOnFullBuffer(t *testing.T) {
	h := newHandle()
	for i := 0; i < progressBufferSize+10; i++ {
		h.send(Progress{Percent: float64(i)})
	}
	// send must not block even though nothing drained the channel.
}
