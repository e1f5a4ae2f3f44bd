package shift

import "sync"

// Hub fans shift-change notifications out to subscribers. It is the narrow
// seam between task mutations and NOW-action re-resolution: any change to
// any task of a shift produces one coarse-grained event, and subscribers
// re-resolve from scratch. No diffing; adequate for dozens of tasks per
// shift.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers for change events of one shift. The returned cancel
// function must be called to release the subscription. Events are
// best-effort: a slow consumer coalesces bursts into one pending event.
func (h *Hub) Subscribe(shiftID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[shiftID] == nil {
		h.subs[shiftID] = make(map[chan struct{}]struct{})
	}
	h.subs[shiftID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[shiftID], ch)
		if len(h.subs[shiftID]) == 0 {
			delete(h.subs, shiftID)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish notifies all subscribers of a shift that something changed.
// Never blocks.
func (h *Hub) Publish(shiftID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[shiftID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
