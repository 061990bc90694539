package closure

import "sync"

// pathSet is a deduplicating, insertion-ordered set of absolute host
// paths. It is the only mutable state shared by the resolution
// workers, so every access goes through the mutex.
type pathSet struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

func newPathSet() *pathSet {
	return &pathSet{seen: make(map[string]struct{})}
}

// Add inserts a path if absent, reporting whether it was added.
func (s *pathSet) Add(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[path]; ok {
		return false
	}
	s.seen[path] = struct{}{}
	s.order = append(s.order, path)
	return true
}

// Paths returns a copy of the set in insertion order.
func (s *pathSet) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of paths in the set.
func (s *pathSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
