package artifact

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/trannam110702/lighthouse-sub001/errors"
)

// Memo remembers computed values by key. At most one computation per key
// is in flight; concurrent callers for the same key wait for it. Failed
// computations are not remembered.
type Memo[T any] struct {
	mu     sync.RWMutex
	ready  map[string]T
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemo creates an empty memo.
func NewMemo[T any]() *Memo[T] {
	return &Memo[T]{ready: make(map[string]T)}
}

// Get returns the value for key, computing it if needed. The computation
// is not cancelled when ctx is; only this caller stops waiting for it.
func (m *Memo[T]) Get(ctx context.Context, key string, compute func() (T, error)) (T, error) {
	if v, ok := m.Lookup(key); ok {
		m.hits.Add(1)
		return v, nil
	}

	ch := m.group.DoChan(key, func() (interface{}, error) {
		// another caller may have finished between Lookup and DoChan
		if v, ok := m.Lookup(key); ok {
			return v, nil
		}
		m.misses.Add(1)
		v, err := compute()
		if err != nil {
			return v, err
		}
		m.mu.Lock()
		m.ready[key] = v
		m.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		var zero T
		return zero, errors.Wrap(errors.ErrCancelled, ctx.Err().Error())
	}
}

// Lookup returns a ready value without computing.
func (m *Memo[T]) Lookup(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.ready[key]
	return v, ok
}

// Forget drops key.
func (m *Memo[T]) Forget(key string) {
	m.mu.Lock()
	delete(m.ready, key)
	m.mu.Unlock()
	m.group.Forget(key)
}

// Len returns the number of ready values.
func (m *Memo[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ready)
}

// MemoStats counts lookups served from memory and computations started.
type MemoStats struct {
	Hits   int64
	Misses int64
}

func (m *Memo[T]) Stats() MemoStats {
	return MemoStats{Hits: m.hits.Load(), Misses: m.misses.Load()}
}
