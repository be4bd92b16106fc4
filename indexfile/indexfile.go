// Package indexfile reads and writes the on-disk suffix-array index:
// one byte sparseness factor, an 8-byte xxhash of the packed text, and the
// bitpack.Array payload.
package indexfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	"github.com/bioutils/peptidesearch/bitpack"
)

// ErrTextMismatch is returned by Load when the stamped text hash does not
// match the hash of the text the caller is loading the index against.
var ErrTextMismatch = errors.New("indexfile: text hash does not match index file")

// Header is the fixed-size metadata stored before the bitpack.Array
// payload: the sparseness factor and a stamp of the text the SA indexes.
type Header struct {
	Sparseness byte
	TextHash   uint64
}

// HashText returns the xxhash of text, the value stamped into and checked
// against the index file.
func HashText(text []byte) uint64 {
	return xxhash.Sum64(text)
}

// Write serializes sparseness, the hash of text, and sa's backing words to w.
func Write(w io.Writer, sparseness byte, text []byte, sa *bitpack.Array) error {
	bw := bufio.NewWriter(w)
	if err := bw.WriteByte(sparseness); err != nil {
		return err
	}
	var hashBuf [8]byte
	binary.LittleEndian.PutUint64(hashBuf[:], HashText(text))
	if _, err := bw.Write(hashBuf[:]); err != nil {
		return err
	}
	if _, err := sa.WriteTo(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadHeader reads just the header (sparseness + text hash) from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [9]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("indexfile: reading header: %w", err)
	}
	return Header{
		Sparseness: buf[0],
		TextHash:   binary.LittleEndian.Uint64(buf[1:]),
	}, nil
}

// Load reads the full index from r: header plus a ceil(n/s)-length
// bitpack.Array (s being the stamped sparseness) whose width is derived
// from n as bits.Len(n+1), the same width sacore.Build uses, verifying the
// stamped hash against text.
func Load(r io.Reader, text []byte, n int) (Header, *bitpack.Array, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return Header{}, nil, err
	}
	if hdr.TextHash != HashText(text) {
		return Header{}, nil, ErrTextMismatch
	}
	width := uint(bits.Len(uint(n) + 1))
	if width == 0 {
		width = 1
	}
	sparseLen := (n + int(hdr.Sparseness) - 1) / max(int(hdr.Sparseness), 1)
	arr, err := bitpack.New(sparseLen, width)
	if err != nil {
		return Header{}, nil, err
	}
	if _, err := arr.ReadFrom(r); err != nil {
		return Header{}, nil, fmt.Errorf("indexfile: reading payload: %w", err)
	}
	return hdr, arr, nil
}

// LoadMapped behaves like Load but takes a file path and reads the payload
// through a read-only mmap of the file. The payload is still decoded into a
// heap-allocated bitpack.Array, so the suffix array is not served from the
// mapping itself. The returned function unmaps the file.
func LoadMapped(path string, text []byte, n int) (Header, *bitpack.Array, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, nil, err
	}
	defer f.Close()

	hdr, err := ReadHeader(f)
	if err != nil {
		return Header{}, nil, nil, err
	}
	if hdr.TextHash != HashText(text) {
		return Header{}, nil, nil, ErrTextMismatch
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return Header{}, nil, nil, fmt.Errorf("indexfile: mmap: %w", err)
	}

	width := uint(bits.Len(uint(n) + 1))
	if width == 0 {
		width = 1
	}
	sparseLen := (n + int(hdr.Sparseness) - 1) / max(int(hdr.Sparseness), 1)
	arr, err := bitpack.New(sparseLen, width)
	if err != nil {
		m.Unmap()
		return Header{}, nil, nil, err
	}
	payload := m[9:]
	if _, err := arr.ReadFrom(bytes.NewReader(payload)); err != nil {
		m.Unmap()
		return Header{}, nil, nil, fmt.Errorf("indexfile: reading mapped payload: %w", err)
	}

	return hdr, arr, m.Unmap, nil
}
