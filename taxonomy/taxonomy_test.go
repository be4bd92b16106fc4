package taxonomy

import "testing"

// buildFixture mirrors the 14-node reference taxonomy used to validate
// both aggregation strategies, including ids the file never lists (these
// remain absent from the tree entirely, not merely invalid).
func buildFixture() *Tree {
	rows := []Row{
		{ID: 1, Name: "root", Rank: "no rank", ParentID: 1, Valid: true},
		{ID: 2, Name: "Bacteria", Rank: "superkingdom", ParentID: 1, Valid: true},
		{ID: 6, Name: "Azorhizobium", Rank: "genus", ParentID: 1, Valid: true},
		{ID: 7, Name: "Azorhizobium caulinodans", Rank: "species", ParentID: 6, Valid: true},
		{ID: 9, Name: "Buchnera aphidicola", Rank: "species", ParentID: 6, Valid: true},
		{ID: 10, Name: "Cellvibrio", Rank: "genus", ParentID: 6, Valid: true},
		{ID: 11, Name: "Cellulomonas gilvus", Rank: "species", ParentID: 10, Valid: true},
		{ID: 13, Name: "Dictyoglomus", Rank: "genus", ParentID: 11, Valid: true},
		{ID: 14, Name: "Dictyoglomus thermophilum", Rank: "species", ParentID: 10, Valid: true},
		{ID: 16, Name: "Methylophilus", Rank: "genus", ParentID: 14, Valid: true},
		{ID: 17, Name: "Methylophilus methylotrophus", Rank: "species", ParentID: 16, Valid: true},
		{ID: 18, Name: "Pelobacter", Rank: "genus", ParentID: 17, Valid: true},
		{ID: 19, Name: "Syntrophotalea carbinolica", Rank: "species", ParentID: 17, Valid: true},
		{ID: 20, Name: "Phenylobacterium", Rank: "genus", ParentID: 19, Valid: true},
	}
	return Build(rows)
}

func TestTaxonExists(t *testing.T) {
	tree := buildFixture()
	missing := map[uint32]bool{0: true, 3: true, 4: true, 5: true, 8: true, 12: true, 15: true}
	for i := uint32(0); i <= 20; i++ {
		want := !missing[i]
		if got := tree.Exists(i); got != want {
			t.Fatalf("id %d: got exists=%v want %v", i, got, want)
		}
	}
}

func TestSnapTaxonIsIdentityWhenValid(t *testing.T) {
	tree := buildFixture()
	missing := map[uint32]bool{0: true, 3: true, 4: true, 5: true, 8: true, 12: true, 15: true}
	for i := uint32(0); i <= 20; i++ {
		if missing[i] {
			continue
		}
		if got := tree.Snap(i); got != i {
			t.Fatalf("id %d: got snap=%d want %d", i, got, i)
		}
	}
}

func TestAggregateLca(t *testing.T) {
	tree := buildFixture()
	agg := NewAggregator(tree, Lca)

	cases := []struct {
		ids  []uint32
		want uint32
	}{
		{[]uint32{7, 9}, 6},
		{[]uint32{11, 14}, 10},
		{[]uint32{17, 19}, 17},
	}
	for _, c := range cases {
		got, ok := agg.Aggregate(c.ids)
		if !ok {
			t.Fatalf("ids %v: expected ok", c.ids)
		}
		if got != c.want {
			t.Fatalf("ids %v: got %d want %d", c.ids, got, c.want)
		}
	}
}

func TestAggregateLcaStar(t *testing.T) {
	tree := buildFixture()
	agg := NewAggregator(tree, LcaStar)

	cases := []struct {
		ids  []uint32
		want uint32
	}{
		{[]uint32{7, 9}, 6},
		{[]uint32{11, 14}, 10},
		{[]uint32{17, 19}, 19},
	}
	for _, c := range cases {
		got, ok := agg.Aggregate(c.ids)
		if !ok {
			t.Fatalf("ids %v: expected ok", c.ids)
		}
		if got != c.want {
			t.Fatalf("ids %v: got %d want %d", c.ids, got, c.want)
		}
	}
}

func TestAggregateSkipsUnassigned(t *testing.T) {
	tree := buildFixture()
	agg := NewAggregator(tree, Lca)
	got, ok := agg.Aggregate([]uint32{7, 9, 0})
	if !ok || got != 6 {
		t.Fatalf("got %d, %v want 6, true", got, ok)
	}
}

func TestAggregateEmptyAfterFilterFails(t *testing.T) {
	tree := buildFixture()
	agg := NewAggregator(tree, Lca)
	if _, ok := agg.Aggregate([]uint32{0}); ok {
		t.Fatalf("expected ok=false for all-unassigned input")
	}
}
