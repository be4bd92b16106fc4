// Package taxonomy implements the taxonomic tree, its snapping table, and
// the two taxon-aggregation strategies (LCA and LCA*) used to summarize the
// taxon ids of a peptide's matching proteins.
package taxonomy

import "fmt"

// Row is one line of the taxonomy TSV: id, name, rank, parent id, validity.
type Row struct {
	ID       uint32
	Name     string
	Rank     string
	ParentID uint32
	Valid    bool
}

type node struct {
	id, parent uint32
	valid      bool
	depth      int
}

// Tree is a rooted tree on integer taxon ids with parent pointers, a
// validity bit per node, and a precomputed snapping table mapping every id
// to its nearest valid ancestor (itself if valid).
type Tree struct {
	nodes    map[uint32]*node
	snapping map[uint32]uint32
	root     uint32
}

// Build constructs the tree from rows and precomputes depths and the
// snapping table. The root is the row whose ParentID equals its own ID.
func Build(rows []Row) *Tree {
	t := &Tree{nodes: make(map[uint32]*node, len(rows))}
	for _, r := range rows {
		t.nodes[r.ID] = &node{id: r.ID, parent: r.ParentID, valid: r.Valid}
		if r.ID == r.ParentID {
			t.root = r.ID
		}
	}
	for id := range t.nodes {
		t.depthOf(id)
	}
	t.snapping = make(map[uint32]uint32, len(t.nodes))
	for id := range t.nodes {
		t.snapping[id] = t.computeSnap(id)
	}
	return t
}

func (t *Tree) depthOf(id uint32) int {
	n, ok := t.nodes[id]
	if !ok {
		return 0
	}
	if n.depth != 0 || id == t.root {
		return n.depth
	}
	n.depth = t.depthOf(n.parent) + 1
	return n.depth
}

func (t *Tree) computeSnap(id uint32) uint32 {
	cur := id
	for {
		n, ok := t.nodes[cur]
		if !ok {
			return t.root
		}
		if n.valid {
			return cur
		}
		if cur == n.parent {
			return cur
		}
		cur = n.parent
	}
}

// Exists reports whether id is present in the tree.
func (t *Tree) Exists(id uint32) bool {
	_, ok := t.nodes[id]
	return ok
}

// Valid reports whether id's validity bit is set. Panics if id is unknown:
// a programmer error per the taxon_valid caller contract.
func (t *Tree) Valid(id uint32) bool {
	n, ok := t.nodes[id]
	if !ok {
		panic(fmt.Sprintf("taxonomy: unknown taxon id %d", id))
	}
	return n.valid
}

// Snap maps id to its nearest valid ancestor (itself if valid). Panics if
// id is outside the snapping table, matching the source's caller contract.
func (t *Tree) Snap(id uint32) uint32 {
	v, ok := t.snapping[id]
	if !ok {
		panic(fmt.Sprintf("taxonomy: could not snap taxon with id %d", id))
	}
	return v
}

func (t *Tree) isAncestorOrSelf(anc, id uint32) bool {
	cur := id
	for {
		if cur == anc {
			return true
		}
		n, ok := t.nodes[cur]
		if !ok || cur == n.parent {
			return false
		}
		cur = n.parent
	}
}

// lca2 returns the lowest common ancestor of a and b: bring the deeper node
// up to the shallower node's depth, then walk both upward together until
// they meet.
func (t *Tree) lca2(a, b uint32) uint32 {
	na, oka := t.nodes[a]
	nb, okb := t.nodes[b]
	if !oka {
		return b
	}
	if !okb {
		return a
	}
	for na.depth > nb.depth {
		a = na.parent
		na = t.nodes[a]
	}
	for nb.depth > na.depth {
		b = nb.parent
		nb = t.nodes[b]
	}
	for a != b {
		a = na.parent
		na = t.nodes[a]
		b = nb.parent
		nb = t.nodes[b]
	}
	return a
}

// classicLCA folds lca2 across every distinct input id: the node at which
// the root-to-id paths of all inputs share their deepest common prefix.
func (t *Tree) classicLCA(ids []uint32) uint32 {
	result := ids[0]
	for _, id := range ids[1:] {
		result = t.lca2(result, id)
	}
	return result
}

// Method selects which aggregation strategy Aggregate uses.
type Method int

const (
	// Lca is the "mix" aggregator at ratio 1.0: the deepest node fully
	// supported by every input's weight, equivalent to the classic
	// root-path-intersection LCA. Tends toward the root as inputs disagree.
	Lca Method = iota
	// LcaStar is the strict aggregator: if every input lies on a single
	// ancestor chain, returns the deepest (most specific) one; otherwise
	// falls back to the classic branching-point LCA.
	LcaStar
)

// Aggregator aggregates sets of taxon ids under one Method.
type Aggregator struct {
	Tree   *Tree
	Method Method
}

// NewAggregator builds an Aggregator over tree using method.
func NewAggregator(tree *Tree, method Method) *Aggregator {
	return &Aggregator{Tree: tree, Method: method}
}

// Aggregate aggregates taxa (skipping id 0, "unassigned") and snaps the
// result. Returns ok=false only when no input id survives the id-0 filter.
func (a *Aggregator) Aggregate(taxa []uint32) (uint32, bool) {
	var filtered []uint32
	for _, id := range taxa {
		if id != 0 {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		return 0, false
	}

	var result uint32
	switch a.Method {
	case LcaStar:
		result = a.lcaStar(filtered)
	default:
		result = a.Tree.classicLCA(filtered)
	}
	return a.Tree.Snap(result), true
}

// lcaStar finds the deepest input id that every other input id is an
// ancestor-or-self of (the chain case), falling back to the classic
// branching LCA when inputs diverge.
func (a *Aggregator) lcaStar(ids []uint32) uint32 {
	t := a.Tree
	var best uint32
	bestDepth := -1
	haveCandidate := false

	for _, candidate := range ids {
		ok := true
		for _, other := range ids {
			if !t.isAncestorOrSelf(other, candidate) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		d := t.depthOf(candidate)
		if d > bestDepth {
			best, bestDepth, haveCandidate = candidate, d, true
		}
	}

	if haveCandidate {
		return best
	}
	return t.classicLCA(ids)
}

// TaxonValid reports whether a protein's recorded taxon id is flagged
// valid in the tree, used by the orchestrator to drop proteins before
// aggregation.
func (a *Aggregator) TaxonValid(taxonID uint32) bool {
	return a.Tree.Valid(taxonID)
}
