package repository

import "sync"

const (
	// DefaultPageSize is how many rows a single page load fetches
	DefaultPageSize = 20
	// PrefetchDistance is how many rows ahead of the consumer's position
	// the pager keeps loaded
	PrefetchDistance = 60
)

// Pager pulls a query result window by window. The load function fetches
// limit rows starting at offset; the pager tracks how far it has read and
// stops once a short page signals the end of the result.
type Pager[T any] struct {
	pageSize         int
	prefetchDistance int
	load             func(limit, offset int) ([]T, error)

	mu     sync.Mutex
	loaded []T
	eof    bool
}

func newPager[T any](load func(limit, offset int) ([]T, error)) *Pager[T] {
	return &Pager[T]{
		pageSize:         DefaultPageSize,
		prefetchDistance: PrefetchDistance,
		load:             load,
	}
}

// NextPage loads and returns the next page, or nil once the result is
// exhausted. The last page may be shorter than the page size.
func (p *Pager[T]) NextPage() ([]T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadNextLocked()
}

func (p *Pager[T]) loadNextLocked() ([]T, error) {
	if p.eof {
		return nil, nil
	}

	page, err := p.load(p.pageSize, len(p.loaded))
	if err != nil {
		return nil, err
	}
	if len(page) < p.pageSize {
		p.eof = true
	}
	if len(page) == 0 {
		return nil, nil
	}

	p.loaded = append(p.loaded, page...)
	return page, nil
}

// EnsureAhead loads pages until the buffer extends the prefetch distance
// past the consumer's position, or the result is exhausted
func (p *Pager[T]) EnsureAhead(position int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for !p.eof && len(p.loaded) < position+p.prefetchDistance {
		if _, err := p.loadNextLocked(); err != nil {
			return err
		}
	}
	return nil
}

// Loaded returns a copy of everything fetched so far
func (p *Pager[T]) Loaded() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.loaded))
	copy(out, p.loaded)
	return out
}

// Exhausted reports whether the underlying result has been fully read
func (p *Pager[T]) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eof
}
