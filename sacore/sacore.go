// Package sacore builds the suffix array over packed text that the caller
// has already L->I folded: full-array construction and sparseness
// compaction into a bitpack.Array.
package sacore

import (
	"math/bits"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bioutils/peptidesearch/bitpack"
)

// Algorithm selects which construction strategy Build uses. Neither variant
// is a binding to the named C library; both are genuine pure-Go
// constructions offered as honest stand-ins (see DESIGN.md).
type Algorithm int

const (
	// LibSais selects prefix-doubling (Manber-Myers rank doubling), each
	// round re-sorting by rank pairs with a comparison sort, O(n log^2 n).
	LibSais Algorithm = iota
	// LibDivSufSort selects a direct comparison sort of all suffixes,
	// parallelized across an errgroup-bounded worker pool.
	LibDivSufSort
)

// Build constructs the full suffix array of text (length n, already L->I
// folded by the caller), compacts it to every s-th suffix if s > 1
// (preserving relative order, since sortedness is a property of the
// comparator and independent of which positions are retained), and packs
// the result into a bitpack.Array with width bits.Len(n+1). That width
// equals ceil(log2(n+1)) except when n+1 is a power of two, where it is one
// bit wider.
func Build(text []byte, sparseness int, algo Algorithm) (*bitpack.Array, error) {
	var sa []int64
	switch algo {
	case LibDivSufSort:
		sa = buildByComparisonSort(text)
	default:
		sa = buildByPrefixDoubling(text)
	}

	if sparseness > 1 {
		compact := sa[:0:0]
		for _, p := range sa {
			if p%int64(sparseness) == 0 {
				compact = append(compact, p)
			}
		}
		sa = compact
	}

	n := len(text)
	width := uint(bits.Len(uint(n) + 1))
	if width == 0 {
		width = 1
	}
	arr, err := bitpack.New(len(sa), width)
	if err != nil {
		return nil, err
	}
	for i, p := range sa {
		arr.Set(i, uint64(p))
	}
	return arr, nil
}

// buildByComparisonSort sorts every suffix start offset directly, using a
// bounded worker pool (errgroup) to parallelize the expensive lexicographic
// comparator the way a production build would spread the cost of a
// division-based suffix sort across cores.
func buildByComparisonSort(text []byte) []int64 {
	n := len(text)
	offsets := make([]int64, n)
	for i := range offsets {
		offsets[i] = int64(i)
	}

	// Parallel merge sort: split into chunks, sort each chunk concurrently,
	// then merge. This keeps the comparator (the expensive part) off the
	// single-threaded sort.Slice path for large corpora.
	const minParallelChunk = 1 << 16
	if n < minParallelChunk {
		sort.Slice(offsets, func(i, j int) bool {
			return lessSuffix(text, offsets[i], offsets[j])
		})
		return offsets
	}

	workers := 4
	chunkSize := (n + workers - 1) / workers
	chunks := make([][]int64, 0, workers)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		chunks = append(chunks, offsets[start:end])
	}

	var g errgroup.Group
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			sort.Slice(chunk, func(i, j int) bool {
				return lessSuffix(text, chunk[i], chunk[j])
			})
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]int64, 0, n)
	for _, chunk := range chunks {
		merged = mergeSuffixes(text, merged, chunk)
	}
	return merged
}

func mergeSuffixes(text []byte, a, b []int64) []int64 {
	out := make([]int64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if lessSuffix(text, a[i], b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func lessSuffix(text []byte, i, j int64) bool {
	a, b := text[i:], text[j:]
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}

// buildByPrefixDoubling constructs the suffix array by repeatedly doubling
// the compared prefix length, re-ranking suffixes by the pair of ranks at
// each step (Manber-Myers). Each round uses a comparison sort, so the
// whole construction is O(n log^2 n).
func buildByPrefixDoubling(text []byte) []int64 {
	n := len(text)
	sa := make([]int64, n)
	rank := make([]int, n)
	tmp := make([]int, n)
	for i := 0; i < n; i++ {
		sa[i] = int64(i)
		rank[i] = int(text[i])
	}

	for k := 1; ; k *= 2 {
		key := func(i, r int) (int, int) {
			second := -1
			if i+r < n {
				second = rank[i+r]
			}
			return rank[i], second
		}
		sort.Slice(sa, func(a, b int) bool {
			i, j := int(sa[a]), int(sa[b])
			ra1, ra2 := key(i, k)
			rb1, rb2 := key(j, k)
			if ra1 != rb1 {
				return ra1 < rb1
			}
			return ra2 < rb2
		})

		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			prev, cur := int(sa[i-1]), int(sa[i])
			pr1, pr2 := key(prev, k)
			cr1, cr2 := key(cur, k)
			tmp[cur] = tmp[prev]
			if pr1 != cr1 || pr2 != cr2 {
				tmp[cur]++
			}
		}
		copy(rank, tmp)

		if rank[sa[n-1]] == n-1 {
			break
		}
	}
	return sa
}
