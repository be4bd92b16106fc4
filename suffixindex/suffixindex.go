// Package suffixindex maps a position in the packed text to the protein that
// contains it, in a dense (O(n) memory, O(1) lookup) or sparse (O(m) memory,
// O(log m) lookup) representation chosen once at build time.
package suffixindex

import (
	"math/bits"
	"sort"

	"github.com/bioutils/peptidesearch/bitpack"
	"github.com/bioutils/peptidesearch/packedtext"
)

// Null is the sentinel value returned for positions that do not belong to
// any protein (separator and terminator bytes).
const Null = ^uint32(0)

// Index maps a position in T to a protein index, or Null.
type Index interface {
	SuffixToProtein(pos int64) uint32
}

// Dense stores one protein id per residue of T in a bitpack.Array sized to
// the number of proteins, giving O(1) lookups at O(n) memory.
type Dense struct {
	mapping *bitpack.Array
}

// NewDense scans text once, assigning each residue the index of the protein
// it belongs to and Null to every separator/terminator position.
func NewDense(text []byte) (*Dense, error) {
	proteinCount := 0
	for _, b := range text {
		if b == packedtext.Separator || b == packedtext.Terminator {
			proteinCount++
		}
	}
	width := uint(bits.Len32(uint32(proteinCount) + 1))
	if width == 0 {
		width = 1
	}
	arr, err := bitpack.New(len(text), width)
	if err != nil {
		return nil, err
	}
	current := uint32(0)
	for i, b := range text {
		if b == packedtext.Separator || b == packedtext.Terminator {
			arr.Set(i, uint64(Null)&arr.Mask())
			current++
			continue
		}
		arr.Set(i, uint64(current))
	}
	return &Dense{mapping: arr}, nil
}

// SuffixToProtein returns the protein index containing pos, or Null.
func (d *Dense) SuffixToProtein(pos int64) uint32 {
	v := uint32(d.mapping.Get(int(pos)))
	if v == uint32(d.mapping.Mask()) {
		return Null
	}
	return v
}

// Sparse stores only the start offset of each protein (plus a final
// sentinel equal to len(T)), trading O(log m) lookups for O(m) memory.
type Sparse struct {
	starts []int64
}

// NewSparse emits starts = [0, position after each separator/terminator...].
func NewSparse(text []byte) *Sparse {
	starts := []int64{0}
	for i, b := range text {
		if b == packedtext.Separator || b == packedtext.Terminator {
			starts = append(starts, int64(i)+1)
		}
	}
	return &Sparse{starts: starts}
}

// SuffixToProtein binary-searches starts for the predecessor of pos; if the
// next start is exactly pos+1, pos names a sentinel byte and Null is
// returned.
func (s *Sparse) SuffixToProtein(pos int64) uint32 {
	// sort.Search finds the first index where starts[i] > pos; the
	// protein index is therefore one less, mirroring Rust's
	// binary_search().unwrap_or_else(|index| index - 1).
	idx := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > pos })
	proteinIndex := idx - 1
	if proteinIndex < 0 {
		proteinIndex = 0
	}
	if s.starts[proteinIndex+1] == pos+1 {
		return Null
	}
	return uint32(proteinIndex)
}
