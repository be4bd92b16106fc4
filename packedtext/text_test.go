package packedtext

import "testing"

func TestSequence(t *testing.T) {
	text := &Text{
		T: []byte("MLPGLALLLLAAWTARALEV-PTDGNAGLLAEPQIAMFCGRLNMHMNVQNG$"),
		Proteins: []Protein{
			{UniprotID: "P12345", Offset: 0, Length: 20, TaxonID: 1},
			{UniprotID: "P54321", Offset: 21, Length: 30, TaxonID: 2},
		},
	}
	if got := string(text.Sequence(text.Proteins[0])); got != "MLPGLALLLLAAWTARALEV" {
		t.Fatalf("got %q", got)
	}
	if got := string(text.Sequence(text.Proteins[1])); got != "PTDGNAGLLAEPQIAMFCGRLNMHMNVQNG" {
		t.Fatalf("got %q", got)
	}
}

func TestFolded(t *testing.T) {
	got := string(Folded([]byte("MLPLALL-$")))
	want := "MIPIAII-$"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSentinelOrdering(t *testing.T) {
	if !(Terminator < Separator) {
		t.Fatalf("terminator must sort before separator")
	}
}
