package orchestrator

import (
	"context"
	"sort"
	"testing"

	"github.com/bioutils/peptidesearch/annotation"
	"github.com/bioutils/peptidesearch/bitpack"
	"github.com/bioutils/peptidesearch/packedtext"
	"github.com/bioutils/peptidesearch/search"
	"github.com/bioutils/peptidesearch/suffixindex"
	"github.com/bioutils/peptidesearch/taxonomy"
)

func buildSA(t *testing.T, text []byte) *bitpack.Array {
	t.Helper()
	offsets := make([]int, len(text))
	for i := range offsets {
		offsets[i] = i
	}
	sort.Slice(offsets, func(i, j int) bool {
		a, b := text[offsets[i]:], text[offsets[j]:]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	sa, err := bitpack.New(len(offsets), 16)
	if err != nil {
		t.Fatalf("bitpack.New: %v", err)
	}
	for i, off := range offsets {
		sa.Set(i, uint64(off))
	}
	return sa
}

// fixture builds a two-protein database ("MPEPTIDE" twice, under sibling
// taxa 7 and 9 whose genus is 6, rooted at taxon 1) with distinct
// annotations, matching the S5/S6 scenarios.
func fixture(t *testing.T) *Orchestrator {
	t.Helper()

	text := []byte("MPEPTIDE-MPEPTIDE$")
	sa := buildSA(t, text)

	proteins := []packedtext.Protein{
		{UniprotID: "P1", Offset: 0, Length: 8, TaxonID: 7, Annotations: annotation.Encode("EC:1.1.1.-;GO:0009279")},
		{UniprotID: "P2", Offset: 9, Length: 8, TaxonID: 9, Annotations: annotation.Encode("IPR:IPR016364;GO:0009279")},
	}
	pt := &packedtext.Text{T: text, Proteins: proteins}

	dense, err := suffixindex.NewDense(text)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}

	rows := []taxonomy.Row{
		{ID: 1, Name: "root", Rank: "root", ParentID: 1, Valid: true},
		{ID: 6, Name: "genus", Rank: "genus", ParentID: 1, Valid: true},
		{ID: 7, Name: "species-a", Rank: "species", ParentID: 6, Valid: true},
		{ID: 9, Name: "species-b", Rank: "species", ParentID: 6, Valid: true},
	}
	tree := taxonomy.Build(rows)
	taxAgg := taxonomy.NewAggregator(tree, taxonomy.Lca)

	sparse := &search.SparseSearcher{
		BoundSearcher: &search.BoundSearcher{SA: sa, Text: text},
		SampleRate:    1,
		UnfoldedText:  text,
	}

	return New(sparse, pt, dense, taxAgg, Config{Cutoff: 10000, EqualizeIAndL: true, CleanTaxa: true})
}

func TestSearchOneAggregatesTaxaAndAnnotations(t *testing.T) {
	o := fixture(t)

	res, ok := o.SearchOne(context.Background(), "PEPTIDE")
	if !ok {
		t.Fatalf("expected a result")
	}
	if res.LCA != 6 {
		t.Fatalf("LCA: got %d want 6", res.LCA)
	}
	if len(res.Taxa) != 2 {
		t.Fatalf("Taxa: got %v", res.Taxa)
	}
	if res.FA.Counts.All != 2 || res.FA.Counts.EC != 1 || res.FA.Counts.GO != 2 || res.FA.Counts.IPR != 1 {
		t.Fatalf("FA counts: got %+v", res.FA.Counts)
	}
	if res.FA.Data["GO:0009279"] != 2 {
		t.Fatalf("GO count: got %d want 2", res.FA.Data["GO:0009279"])
	}
}

func TestSearchOneNoMatchIsDropped(t *testing.T) {
	o := fixture(t)
	_, ok := o.SearchOne(context.Background(), "ZZZZZZ")
	if ok {
		t.Fatalf("expected no result for a non-occurring peptide")
	}
}

func TestSearchOneCutoffUsesRootLCA(t *testing.T) {
	o := fixture(t)
	o.Config.Cutoff = 1

	res, ok := o.SearchOne(context.Background(), "PEPTIDE")
	if !ok {
		t.Fatalf("expected a result")
	}
	if !res.CutoffUsed {
		t.Fatalf("expected CutoffUsed")
	}
	if res.LCA != rootTaxon {
		t.Fatalf("LCA: got %d want root %d", res.LCA, rootTaxon)
	}
}

func TestSearchOneShortQuery(t *testing.T) {
	o := fixture(t)
	o.Sparse.SampleRate = 3

	res, ok := o.SearchOne(context.Background(), "AA")
	if !ok {
		t.Fatalf("expected ok for a short-query marker")
	}
	if !res.ShortQuery {
		t.Fatalf("expected ShortQuery")
	}
}

func TestSearchOneOutOfTime(t *testing.T) {
	o := fixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, ok := o.SearchOne(ctx, "PEPTIDE")
	if !ok {
		t.Fatalf("expected ok for an out-of-time marker")
	}
	if !res.OutOfTime {
		t.Fatalf("expected OutOfTime")
	}
}

func TestSearchBatchPreservesOrderAndDropsNoMatches(t *testing.T) {
	o := fixture(t)

	out, err := o.SearchBatch(context.Background(), []string{"ZZZZZZ", "PEPTIDE", "ZZZZZZ", "MPEP"})
	if err != nil {
		t.Fatalf("SearchBatch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected exactly two surviving results, got %d", len(out))
	}
	if out[0].Sequence != "PEPTIDE" {
		t.Fatalf("got %q", out[0].Sequence)
	}
	if out[1].Sequence != "MPEP" {
		t.Fatalf("got %q", out[1].Sequence)
	}
}
