package repository

import (
	"log"
	"sync"
	"time"
)

// tableHub fans table invalidations out to live queries. Repositories
// call invalidate after every successful mutation; each Observable
// subscribed to one of the touched tables re-runs its query and emits a
// fresh snapshot.
type tableHub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	tables map[string]struct{}
	notify chan struct{}
}

var hub = &tableHub{subs: make(map[*subscriber]struct{})}

func (h *tableHub) subscribe(tables ...string) *subscriber {
	s := &subscriber{
		tables: make(map[string]struct{}, len(tables)),
		notify: make(chan struct{}, 1),
	}
	for _, t := range tables {
		s.tables[t] = struct{}{}
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *tableHub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

func (h *tableHub) invalidate(tables ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		for _, t := range tables {
			if _, ok := s.tables[t]; ok {
				// Coalesce: one pending wakeup is enough, the query
				// re-runs against current data anyway.
				select {
				case s.notify <- struct{}{}:
				default:
				}
				break
			}
		}
	}
}

// Observable is a live query. It emits an initial snapshot on creation
// and a fresh one after every invalidation of a table it watches.
// Snapshots are latest-wins: an unread value is replaced, not queued.
type Observable[T any] struct {
	updates  chan T
	stop     chan struct{}
	stopOnce sync.Once
}

func newObservable[T any](query func() (T, error), tables ...string) *Observable[T] {
	o := &Observable[T]{
		updates: make(chan T, 1),
		stop:    make(chan struct{}),
	}
	sub := hub.subscribe(tables...)

	go func() {
		defer hub.unsubscribe(sub)
		defer close(o.updates)

		o.emit(query)
		for {
			select {
			case <-o.stop:
				return
			case <-sub.notify:
				o.emit(query)
			}
		}
	}()

	return o
}

func (o *Observable[T]) emit(query func() (T, error)) {
	value, err := query()
	if err != nil {
		log.Printf("Observable query failed: %v", err)
		return
	}
	// Drop the stale snapshot if nobody read it yet
	select {
	case <-o.updates:
	default:
	}
	select {
	case o.updates <- value:
	case <-o.stop:
	}
}

// Updates returns the snapshot channel
func (o *Observable[T]) Updates() <-chan T {
	return o.updates
}

// Next waits for the next snapshot, mostly a convenience for tests
func (o *Observable[T]) Next(timeout time.Duration) (T, bool) {
	var zero T
	select {
	case v, ok := <-o.updates:
		if !ok {
			return zero, false
		}
		return v, true
	case <-time.After(timeout):
		return zero, false
	}
}

// Stop ends the live query. The updates channel closes once the
// worker goroutine exits.
func (o *Observable[T]) Stop() {
	o.stopOnce.Do(func() {
		close(o.stop)
	})
}
