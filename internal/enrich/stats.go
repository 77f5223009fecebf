package enrich

import "sync"

// Stats aggregates run counters. Workers share one instance; all access
// goes through the mutex.
type Stats struct {
	mu      sync.Mutex
	done    int
	ok      int
	fail    int
	skipped int
	tokens  int
	costUSD float64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Done    int
	OK      int
	Fail    int
	Skipped int
	Tokens  int
	CostUSD float64
}

func (s *Stats) addSuccess(tokens int, costUSD float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	s.ok++
	s.tokens += tokens
	s.costUSD += costUSD
}

func (s *Stats) addFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	s.fail++
}

func (s *Stats) addSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Done:    s.done,
		OK:      s.ok,
		Fail:    s.fail,
		Skipped: s.skipped,
		Tokens:  s.tokens,
		CostUSD: s.costUSD,
	}
}
