package scan

// Progress is a point-in-time snapshot of an in-flight scan.
type Progress struct {
	Percent float64
	Message string
	Done    bool
	Err     error
}

// progressBufferSize bounds the update channel so a slow subscriber
// never blocks the scan itself — it just misses intermediate updates
// and catches up on the next one.
const progressBufferSize = 32

// Handle lets a caller watch an in-flight scan without blocking it.
type Handle struct {
	updates chan Progress
}

func newHandle() *Handle {
	return &Handle{updates: make(chan Progress, progressBufferSize)}
}

// Updates returns the channel of progress snapshots. It is closed when
// the scan finishes, successfully or not; the final value sent has
// Done == true.
func (h *Handle) Updates() <-chan Progress {
	return h.updates
}

func (h *Handle) send(p Progress) {
	select {
	case h.updates <- p:
	default:
	}
}

func (h *Handle) finish(p Progress) {
	p.Done = true
	for {
		select {
		case h.updates <- p:
			close(h.updates)
			return
		default:
		}
		// The buffer is full: drop the oldest intermediate update so
		// the final one always gets through.
		select {
		case <-h.updates:
		default:
		}
	}
}
