package indexfile

import (
	"bytes"
	"testing"

	"github.com/bioutils/peptidesearch/bitpack"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	text := []byte("ACGTACGT") // len 8, sparseness 2 -> sa length ceil(8/2) = 4
	// Load derives the width from len(text) as bits.Len(8+1) = 4.
	sa, _ := bitpack.New(4, 4)
	for i := range 4 {
		sa.Set(i, uint64(i*2))
	}

	var buf bytes.Buffer
	if err := Write(&buf, 2, text, sa); err != nil {
		t.Fatalf("Write: %v", err)
	}

	hdr, got, err := Load(&buf, text, len(text))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if hdr.Sparseness != 2 {
		t.Fatalf("sparseness: got %d want 2", hdr.Sparseness)
	}
	for i := range 4 {
		if got.Get(i) != sa.Get(i) {
			t.Fatalf("index %d: got %d want %d", i, got.Get(i), sa.Get(i))
		}
	}
}

func TestLoadRejectsMismatchedText(t *testing.T) {
	text := []byte("ACG-CG-AAA$")
	sa, _ := bitpack.New(4, 8)

	var buf bytes.Buffer
	if err := Write(&buf, 1, text, sa); err != nil {
		t.Fatalf("Write: %v", err)
	}

	_, _, err := Load(&buf, []byte("DIFFERENT-TEXT$"), len("DIFFERENT-TEXT$"))
	if err != ErrTextMismatch {
		t.Fatalf("got %v want ErrTextMismatch", err)
	}
}
