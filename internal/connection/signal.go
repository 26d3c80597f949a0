package connection

import (
	"sort"
	"sync"

	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
)

// Signal broadcasts authentication expiry to interested components.
// Emit calls every subscriber synchronously, in subscription order.
type Signal struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(domain.ExpiryEvent)
}

// NewSignal creates a signal with no subscribers.
func NewSignal() *Signal {
	return &Signal{subs: make(map[uint64]func(domain.ExpiryEvent))}
}

// Subscribe registers fn. The returned function removes it.
func (s *Signal) Subscribe(fn func(domain.ExpiryEvent)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
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

// Emit delivers ev to every subscriber.
func (s *Signal) Emit(ev domain.ExpiryEvent) {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(domain.ExpiryEvent), len(ids))
	for i, id := range ids {
		fns[i] = s.subs[id]
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of subscribers.
func (s *Signal) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
