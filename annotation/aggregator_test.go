package annotation

import "testing"

func TestAggregateCountsAndData(t *testing.T) {
	proteins := []Protein{
		{UniprotID: "P1", Annotations: "EC:1.1.1.-;GO:0009279"},
		{UniprotID: "P2", Annotations: "IPR:IPR016364;GO:0009279"},
	}
	agg := Aggregator{}.Aggregate(proteins)

	if agg.Counts.All != 2 {
		t.Fatalf("All: got %d want 2", agg.Counts.All)
	}
	if agg.Counts.EC != 1 {
		t.Fatalf("EC: got %d want 1", agg.Counts.EC)
	}
	if agg.Counts.GO != 2 {
		t.Fatalf("GO: got %d want 2", agg.Counts.GO)
	}
	if agg.Counts.IPR != 1 {
		t.Fatalf("IPR: got %d want 1", agg.Counts.IPR)
	}
	if agg.Data["GO:0009279"] != 2 {
		t.Fatalf("data[GO:0009279]: got %d want 2", agg.Data["GO:0009279"])
	}
}

func TestAggregateDropsEmptyAnnotationKey(t *testing.T) {
	proteins := []Protein{{UniprotID: "P1", Annotations: ""}}
	agg := Aggregator{}.Aggregate(proteins)
	if _, ok := agg.Data[""]; ok {
		t.Fatalf("empty annotation key should have been removed from data")
	}
	if agg.Counts.All != 1 {
		t.Fatalf("All: got %d want 1", agg.Counts.All)
	}
}

func TestAllAnnotationsFiltersEmpty(t *testing.T) {
	proteins := []Protein{
		{UniprotID: "P1", Annotations: "EC:1.1.1.-;GO:0009279"},
		{UniprotID: "P2", Annotations: ""},
	}
	got := Aggregator{}.AllAnnotations(proteins)
	if len(got[0]) != 2 {
		t.Fatalf("got %v", got[0])
	}
	if len(got[1]) != 0 {
		t.Fatalf("got %v", got[1])
	}
}
