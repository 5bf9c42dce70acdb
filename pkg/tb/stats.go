package tb

import (
	"sort"
	"sync"
)

// Entry is one completed block's size/instruction-count summary.
type Entry struct {
	StartPC uint64
	Size    uint64
	ICount  int
}

// BlockStats accumulates Entry values across many Build calls. Adapted
// from pkg/result.Table (mutex-guarded slice, Add, sorted accessor),
// repurposed from "optimization rules found" to "emitted translation-block
// sizes/instruction counts" — the same shape serving a different domain.
type BlockStats struct {
	mu      sync.Mutex
	entries []Entry
}

// NewBlockStats creates an empty accumulator.
func NewBlockStats() *BlockStats {
	return &BlockStats{}
}

// Add records one completed block.
func (s *BlockStats) Add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// Entries returns a copy of all recorded entries, sorted by instruction
// count descending (largest blocks first).
func (s *BlockStats) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ICount != out[j].ICount {
			return out[i].ICount > out[j].ICount
		}
		return out[i].Size > out[j].Size
	})
	return out
}

// Len returns the number of recorded entries.
func (s *BlockStats) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
