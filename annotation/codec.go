// Package annotation implements the nibble-packed wire codec for EC/GO/IPR
// functional annotations and the aggregator that summarizes them across a
// peptide's matching proteins.
package annotation

import (
	"errors"
	"strings"
)

// ErrInvalidNibble is returned by Decode when a byte contains a nibble
// value outside the 15-symbol alphabet (0-14). The source this codec is
// grounded on panics here; annotation bytes arrive from an external TSV
// column that is not as trusted as an in-process symbol table, so this
// package returns an error instead.
var ErrInvalidNibble = errors.New("annotation: invalid nibble in encoded annotation byte")

const emptySymbol = 0

// alphabet maps nibble value -> character, and the reverse encodeTable maps
// character -> nibble value. Value 15 is deliberately unassigned.
var alphabet = [15]byte{'$', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-', '.', ',', ';'}

var encodeTable = func() map[byte]byte {
	m := make(map[byte]byte, len(alphabet))
	for i, c := range alphabet {
		m[c] = byte(i)
	}
	return m
}()

var prefixes = [3]string{"EC:", "GO:", "IPR:IPR"}

// Encode packs a semicolon-separated annotation string (entries prefixed
// "EC:", "GO:", or "IPR:IPR") into the nibble-packed wire form: entries are
// bucketed by prefix, rejoined as "<ecs>,<gos>,<iprs>", and packed two
// characters per byte from the 15-symbol alphabet.
func Encode(input string) []byte {
	if input == "" {
		return nil
	}

	var ecs, gos, iprs []string
	for _, ann := range strings.Split(input, ";") {
		switch {
		case strings.HasPrefix(ann, "IPR"):
			iprs = append(iprs, ann[7:])
		case strings.HasPrefix(ann, "GO"):
			gos = append(gos, ann[3:])
		case strings.HasPrefix(ann, "EC"):
			ecs = append(ecs, ann[3:])
		}
	}

	result := strings.Join(ecs, ";") + "," + strings.Join(gos, ";") + "," + strings.Join(iprs, ";")

	encoded := make([]byte, 0, (len(result)+1)/2)
	b := []byte(result)
	for i := 0; i < len(b); i += 2 {
		if i+1 < len(b) {
			encoded = append(encoded, encodeTable[b[i]]<<4|encodeTable[b[i+1]])
		} else {
			encoded = append(encoded, encodeTable[b[i]]<<4|emptySymbol)
		}
	}
	return encoded
}

// Decode reverses Encode, reconstructing the original semicolon-separated,
// prefixed annotation string.
func Decode(input []byte) (string, error) {
	if len(input) == 0 {
		return "", nil
	}

	var decoded strings.Builder
	decoded.Grow(len(input) * 2)
	for _, b := range input {
		c1, c2, err := decodePair(b)
		if err != nil {
			return "", err
		}
		decoded.WriteByte(c1)
		if c2 != '$' {
			decoded.WriteByte(c2)
		}
	}

	buckets := strings.SplitN(decoded.String(), ",", 3)
	for len(buckets) < 3 {
		buckets = append(buckets, "")
	}

	var result strings.Builder
	for i, bucket := range buckets {
		if bucket == "" {
			continue
		}
		for _, ann := range strings.Split(bucket, ";") {
			result.WriteString(prefixes[i])
			result.WriteString(ann)
			result.WriteByte(';')
		}
	}

	out := result.String()
	if out == "" {
		return "", nil
	}
	return out[:len(out)-1], nil
}

func decodePair(b byte) (byte, byte, error) {
	hi, lo := b>>4, b&0x0F
	if int(hi) >= len(alphabet) || int(lo) >= len(alphabet) {
		return 0, 0, ErrInvalidNibble
	}
	return alphabet[hi], alphabet[lo], nil
}
