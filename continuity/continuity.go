// Package continuity remembers which route to show after a full reload.
package continuity

import (
	"fmt"
	"sync"

	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/store"
)

// Key is the storage slot holding the pending route.
const Key = "path"

// Store wraps the single pending-navigation slot.
type Store struct {
	mu      sync.Mutex
	storage runtime.Storage
}

func New(storage runtime.Storage) *Store {
	return &Store{storage: storage}
}

// SetPending overwrites the slot with route.
func (s *Store) SetPending(route string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(Key, route); err != nil {
		return fmt.Errorf("set pending route: %w", err)
	}
	return nil
}

// ConsumePending reads and clears the slot. An empty stored value counts as
// no pending route.
func (s *Store) ConsumePending() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.storage.(store.Taker); ok {
		route, found, err := t.Take(Key)
		if err != nil {
			return "", false, fmt.Errorf("consume pending route: %w", err)
		}
		return route, found && route != "", nil
	}

	route, found, err := s.storage.Get(Key)
	if err != nil {
		return "", false, fmt.Errorf("consume pending route: %w", err)
	}
	if !found {
		return "", false, nil
	}
	if err := s.storage.Remove(Key); err != nil {
		return "", false, fmt.Errorf("clear pending route: %w", err)
	}
	return route, route != "", nil
}

// InitialRoute applies the startup policy: the pending route when one was
// stored, otherwise fallback. The slot is always cleared.
func (s *Store) InitialRoute(fallback string) (string, error) {
	route, ok, err := s.ConsumePending()
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	return route, nil
}
