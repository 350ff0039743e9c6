package simplify

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
)

// Stats counts rule applications.
type Stats struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewStats returns empty counters.
func NewStats() *Stats {
	return &Stats{counts: make(map[string]int)}
}

func (s *Stats) record(rule string) {
	s.mu.Lock()
	s.counts[rule]++
	s.mu.Unlock()
}

// Count returns how often rule has been applied.
func (s *Stats) Count(rule string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[rule]
}

// Total returns the number of rewrites.
func (s *Stats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.counts {
		n += c
	}
	return n
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.counts)
}

// Reset clears the counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	clear(s.counts)
	s.mu.Unlock()
}

func (s *Stats) String() string {
	snap := s.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%s: %d\n", name, snap[name])
	}
	return sb.String()
}
