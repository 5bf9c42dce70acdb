package tb

import (
	"encoding/gob"
	"os"
)

// posEntry records one instruction-start marker: the guest PC active at a
// given IR op position. Adapted from pkg/result/checkpoint.go's Checkpoint
// (same gob-based save/load shape), repurposed from "resume a search" to
// persisting the back end's op-position table spec.md §6's
// restore_state_to_opc and §4.4's search-PC re-pass require.
type posEntry struct {
	OpPos uint64
	PC    uint64
}

// PosMap is the op-position table for one Block: the guest PC recorded at
// each IR position visited in search_pc mode.
type PosMap struct {
	Entries []posEntry
}

// NewPosMap returns an empty table.
func NewPosMap() *PosMap {
	return &PosMap{}
}

// Record notes that IR position opPos begins the instruction whose guest
// PC is pc.
func (p *PosMap) Record(opPos uint64, pc uint64) {
	p.Entries = append(p.Entries, posEntry{OpPos: opPos, PC: pc})
}

// PCAt implements restore_state_to_opc: given an IR position, returns the
// guest PC recorded at or immediately before it, and whether any entry at
// or before that position exists.
func (p *PosMap) PCAt(opPos uint64) (uint64, bool) {
	var (
		best    uint64
		found   bool
		bestPos uint64
	)
	for _, e := range p.Entries {
		if e.OpPos <= opPos && (!found || e.OpPos >= bestPos) {
			best, bestPos, found = e.PC, e.OpPos, true
		}
	}
	return best, found
}

func init() {
	gob.Register(posEntry{})
}

// SavePosMap writes p to path, mirroring the teacher's own
// SaveCheckpoint/LoadCheckpoint pair.
func SavePosMap(path string, p *PosMap) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(p)
}

// LoadPosMap reads a PosMap previously written by SavePosMap.
func LoadPosMap(path string) (*PosMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var p PosMap
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
