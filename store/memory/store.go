// Package memory provides an in-memory store.RecordStore used by tests and by
// the server when no data directory is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/helloiwashere/guestbook-backend/store"
)

// Ensure Store implements store.RecordStore
var _ store.RecordStore[struct{}] = (*Store[struct{}])(nil)

// Store holds records in a slice guarded by a mutex. Data is lost on restart.
type Store[T any] struct {
	kind    store.Kind
	mu      sync.Mutex
	records []T
	// failWith, when set, is returned by every operation.
	failWith error
}

// New returns an empty in-memory store for kind.
func New[T any](kind store.Kind, seed ...T) *Store[T] {
	records := make([]T, 0, len(seed))
	records = append(records, seed...)
	return &Store[T]{kind: kind, records: records}
}

func (s *Store[T]) Kind() store.Kind {
	return s.kind
}

func (s *Store[T]) Paths() []string {
	return nil
}

// FailWith makes every subsequent operation fail with err wrapped in
// store.ErrStoreIO. Passing nil restores normal behaviour.
func (s *Store[T]) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

func (s *Store[T]) Append(ctx context.Context, record T, policy store.AppendPolicy[T]) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	if policy.Validate != nil {
		if err := policy.Validate(s.snapshot(), record); err != nil {
			return nil, err
		}
	}

	s.records = store.Truncate(append(s.records, record), policy.MaxRecords)
	return s.snapshot(), nil
}

func (s *Store[T]) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s store: %w: %w", s.kind, store.ErrStoreIO, err)
	}
	if s.failWith != nil {
		return fmt.Errorf("%s store: %w: %w", s.kind, store.ErrStoreIO, s.failWith)
	}
	return nil
}

func (s *Store[T]) snapshot() []T {
	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}
