// Package tagging is a reference harness around a replacement engine: it owns
// the tag array, decides hits and misses, and installs missing lines where
// the engine says.
package tagging

import (
	"fmt"

	"github.com/sarchlab/crcrepl/replacement"
)

// A Set is the group of lines a block address can be stored at.
type Set struct {
	Lines []replacement.LineInfo
}

// TagArray keeps the tags of every line in the cache.
type TagArray struct {
	numSets   int
	numWays   int
	blockSize int
	sets      []Set
}

// NewTagArray creates a tag array with all lines invalid.
func NewTagArray(numSets, numWays, blockSize int) *TagArray {
	if numSets <= 0 || numWays <= 0 {
		panic("tag array must have at least one set and one way")
	}

	if blockSize <= 0 || blockSize&(blockSize-1) != 0 {
		panic(fmt.Sprintf("block size %d is not a power of two", blockSize))
	}

	t := &TagArray{
		numSets:   numSets,
		numWays:   numWays,
		blockSize: blockSize,
	}

	t.Reset()

	return t
}

// NumSets returns the number of sets.
func (t *TagArray) NumSets() int {
	return t.numSets
}

// NumWays returns the number of ways per set.
func (t *TagArray) NumWays() int {
	return t.numWays
}

// TotalSize returns the maximum number of bytes can be stored in the cache
func (t *TagArray) TotalSize() uint64 {
	return uint64(t.numSets) * uint64(t.numWays) * uint64(t.blockSize)
}

// Tag returns the block address of addr, which is what the array stores.
func (t *TagArray) Tag(addr uint64) uint64 {
	return addr / uint64(t.blockSize)
}

// GetSet returns the set that addr maps to and its index.
func (t *TagArray) GetSet(addr uint64) (set *Set, setID int) {
	setID = int(t.Tag(addr) % uint64(t.numSets))
	set = &t.sets[setID]

	return
}

// Lookup returns the way holding addr, if any.
func (t *TagArray) Lookup(addr uint64) (way int, ok bool) {
	set, _ := t.GetSet(addr)
	tag := t.Tag(addr)

	for w, line := range set.Lines {
		if line.IsValid && line.Tag == tag {
			return w, true
		}
	}

	return 0, false
}

// InvalidWay returns the first invalid way of a set, if any.
func (t *TagArray) InvalidWay(setID int) (way int, ok bool) {
	for w, line := range t.sets[setID].Lines {
		if !line.IsValid {
			return w, true
		}
	}

	return 0, false
}

// Line returns the line at a set and way.
func (t *TagArray) Line(setID, way int) replacement.LineInfo {
	return t.sets[setID].Lines[way]
}

// Install places addr into a way and returns the line it replaced.
func (t *TagArray) Install(
	setID, way int,
	addr uint64,
	dirty bool,
) (replaced replacement.LineInfo) {
	lines := t.sets[setID].Lines
	replaced = lines[way]

	lines[way] = replacement.LineInfo{
		Tag:     t.Tag(addr),
		IsValid: true,
		IsDirty: dirty,
	}

	return replaced
}

// MarkDirty marks a line as modified.
func (t *TagArray) MarkDirty(setID, way int) {
	t.sets[setID].Lines[way].IsDirty = true
}

// Reset will mark all the lines in the array invalid
func (t *TagArray) Reset() {
	t.sets = make([]Set, t.numSets)
	for i := range t.sets {
		t.sets[i].Lines = make([]replacement.LineInfo, t.numWays)
	}
}
