package dedupe

import "sync"

// Set records keys that have already been observed. Keys are never evicted.
type Set[K comparable] struct {
	mu    sync.Mutex
	items map[K]struct{}
}

// NewSet creates a set sized for capacity keys.
func NewSet[K comparable](capacity int) *Set[K] {
	if capacity < 0 {
		capacity = 0
	}
	return &Set[K]{items: make(map[K]struct{}, capacity)}
}

// MarkSeen records a key.
func (s *Set[K]) MarkSeen(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = struct{}{}
}

// CheckAndMark records key and reports whether it had been seen before.
func (s *Set[K]) CheckAndMark(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		return true
	}
	s.items[key] = struct{}{}
	return false
}
