package annotation

import "strings"

// Aggregate is the result of aggregating the functional annotations of a
// set of proteins: per-kind counts of distinct proteins possessing at
// least one annotation of that kind, and the raw occurrence count of every
// individual annotation string observed.
type Aggregate struct {
	Counts Counts
	Data   map[string]uint32
}

// Counts holds the distinct-protein counts required by the aggregate.
type Counts struct {
	All, EC, GO, IPR int
}

// Protein is the minimal view of a protein record the aggregator needs:
// its accession (for distinct-protein counting) and decoded annotations.
type Protein struct {
	UniprotID   string
	Annotations string // already decoded, semicolon-separated
}

// Aggregator aggregates the functional annotations of proteins.
type Aggregator struct{}

// Aggregate computes the per-kind distinct-protein counts and the
// occurrence-count data map across proteins. The empty-string annotation
// (from a protein with no annotations at all) is never counted in Data.
func (Aggregator) Aggregate(proteins []Protein) Aggregate {
	withEC := make(map[string]struct{})
	withGO := make(map[string]struct{})
	withIPR := make(map[string]struct{})
	data := make(map[string]uint32)

	for _, p := range proteins {
		for _, ann := range strings.Split(p.Annotations, ";") {
			if len(ann) > 0 {
				switch ann[0] {
				case 'E':
					withEC[p.UniprotID] = struct{}{}
				case 'G':
					withGO[p.UniprotID] = struct{}{}
				case 'I':
					withIPR[p.UniprotID] = struct{}{}
				}
			}
			data[ann]++
		}
	}
	delete(data, "")

	return Aggregate{
		Counts: Counts{
			All: len(proteins),
			EC:  len(withEC),
			GO:  len(withGO),
			IPR: len(withIPR),
		},
		Data: data,
	}
}

// AllAnnotations returns, per protein, the list of its non-empty decoded
// annotation strings.
func (Aggregator) AllAnnotations(proteins []Protein) [][]string {
	out := make([][]string, len(proteins))
	for i, p := range proteins {
		var anns []string
		for _, ann := range strings.Split(p.Annotations, ";") {
			if ann != "" {
				anns = append(anns, ann)
			}
		}
		out[i] = anns
	}
	return out
}
