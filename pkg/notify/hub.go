// Package notify provides a synchronous publish/subscribe hub.
//
// Publish calls every subscriber on the publishing goroutine before it
// returns, so a subscriber observes a change as soon as the mutating call
// that published it completes.
package notify

import (
	"sort"
	"sync"
)

// Hub fans events of type E out to subscribers.
type Hub[E any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(E)
}

// Subscribe registers fn and returns a function that removes it.
// The returned cancel function is safe to call more than once.
func (h *Hub[E]) Subscribe(fn func(E)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]func(E))
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Publish delivers e to all current subscribers in subscription order.
// Subscribers may call Subscribe or cancel from inside the callback.
func (h *Hub[E]) Publish(e E) {
	h.mu.Lock()
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(E), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.subs[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Len returns the number of subscribers.
func (h *Hub[E]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
