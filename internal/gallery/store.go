package gallery

import "sync"

// StateStore holds the current UiState. Writes are serialised and observers
// see every change in the order it was applied.
type StateStore struct {
	writeMu   sync.Mutex
	mu        sync.RWMutex
	state     UiState
	observers observerList[UiState]
}

func NewStateStore() *StateStore {
	return &StateStore{state: InitialState()}
}

// Current returns the current snapshot. Snapshots are never mutated after
// they are published.
func (s *StateStore) Current() UiState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers an observer called synchronously after each change.
// Observers must not call Update.
func (s *StateStore) Subscribe(fn func(UiState)) func() {
	return s.observers.add(fn)
}

// Update applies fn to the current state. The result is normalised before
// it is stored; an unchanged state notifies nobody.
func (s *StateStore) Update(fn func(UiState) UiState) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.Current()
	next := normalize(fn(prev))
	if statesEqual(prev, next) {
		return
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	for _, observe := range s.observers.snapshot() {
		observe(next)
	}
}
