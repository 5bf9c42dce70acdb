// Package tb is the translation-block builder: the bounded fetch-decode-
// emit loop that drives pkg/emit over a guest instruction stream and
// produces one Block per call, per spec.md §4.4.
package tb

// Block is the TB header pkg/tb owns for the duration of one emission,
// then hands off to the execution engine (spec.md §3 "Translation block").
type Block struct {
	StartPC uint64

	// Size is the emitted size in bytes of guest code covered so far.
	Size uint64
	// OriginalSize is recorded on the first (non search-PC) emission and
	// preserved across re-emission so a search-PC re-pass knows when it
	// has covered the same ground as the original.
	OriginalSize uint64
	// ICount is the number of guest instructions translated into this
	// block.
	ICount int
	// SearchPC marks this emission as a re-pass reconstructing guest PC
	// for an interrupted host instruction, rather than an original
	// translation.
	SearchPC bool
}

// New starts a Block at startPC. Pass searchPC true for a re-pass emission.
func New(startPC uint64, searchPC bool) *Block {
	return &Block{StartPC: startPC, SearchPC: searchPC}
}
