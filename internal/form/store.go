package form

import "sync"

// Subscriber receives a snapshot after every state change
type Subscriber func(State)

// Store owns the form state. Mutations go through Update, which notifies
// subscribers with a fresh snapshot once the lock is released.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[int]Subscriber
	nextID int
}

// NewStore creates a store seeded with initial
func NewStore(initial State) *Store {
	return &Store{
		state: initial.Clone(),
		subs:  make(map[int]Subscriber),
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update applies reducer to the state and notifies subscribers
func (s *Store) Update(reducer func(*State)) {
	s.mu.Lock()
	reducer(&s.state)
	snapshot := s.state.Clone()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Subscribe registers fn and returns a function that removes it
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}
