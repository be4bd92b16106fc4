// Package packedtext holds the concatenated protein text the suffix array is
// built over, together with the per-protein record table.
package packedtext

// Separator is the sentinel byte placed between consecutive proteins in T.
const Separator byte = '-'

// Terminator is the sentinel byte that closes T. It must sort strictly
// before every amino acid and before Separator for suffix-array correctness.
const Terminator byte = '$'

// Protein is one record of the protein table: its accession, the byte range
// of its residues within T, its taxon id, and its encoded functional
// annotations (opaque to this package; see the annotation package).
type Protein struct {
	UniprotID   string
	Offset      int
	Length      uint32
	TaxonID     uint32
	Annotations []byte
}

// Text is the packed, sentinel-delimited concatenation of protein residues
// plus the table of the proteins it was built from. Callers never mutate T
// or Proteins after construction.
type Text struct {
	T        []byte
	Proteins []Protein
}

// Sequence returns the residue string of p as stored in t.T.
func (t *Text) Sequence(p Protein) []byte {
	return t.T[p.Offset : p.Offset+int(p.Length)]
}

// Len returns len(t.T).
func (t *Text) Len() int { return len(t.T) }

// Folded returns a copy of t.T with every 'L' replaced by 'I', the
// isoleucine/leucine folding applied before suffix-array construction.
func Folded(text []byte) []byte {
	out := make([]byte, len(text))
	for i, b := range text {
		if b == 'L' {
			b = 'I'
		}
		out[i] = b
	}
	return out
}
