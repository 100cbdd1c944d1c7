package snapshot

import (
	"sync"
	"sync/atomic"
	"time"

	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/pkg/apperrors"
)

// Listener is called after every refresh with the replaced and the new
// snapshot. prev is nil on the first refresh.
type Listener func(prev, next *Snapshot)

// Store publishes the current portfolio snapshot to concurrent readers.
// Readers never block; refreshes are serialized.
type Store struct {
	current atomic.Pointer[Snapshot]

	mu        sync.Mutex
	listeners []Listener
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.ErrSnapshotUnavailable
	}
	return snap, nil
}

// Refresh rebuilds the snapshot from loans, swaps it in and notifies
// listeners synchronously.
func (s *Store) Refresh(loans []loan.Loan) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Build(loans, s.now().UTC())
	prev := s.current.Swap(next)
	for _, fn := range s.listeners {
		fn(prev, next)
	}
	return next
}

func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
