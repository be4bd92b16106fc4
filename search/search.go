// Package search implements the double-binary-search bound finder and the
// sparseness-compensation wrapper that reconstructs the full match set of a
// query against a sparsely sampled suffix array.
package search

import (
	"context"

	"github.com/bioutils/peptidesearch/bitpack"
	"github.com/bioutils/peptidesearch/packedtext"
	"github.com/bioutils/peptidesearch/suffixindex"
)

// outOfTimeCheckInterval bounds how often the match-retrieval loop consults
// ctx while scanning a single skip's [Lo, Hi) window, so a query that lands
// on a huge, mostly-filtered-out region still notices an expired deadline
// instead of scanning it to completion.
const outOfTimeCheckInterval = 4096

// bound distinguishes which side of the match window a binary search looks for.
type bound int

const (
	minBound bound = iota
	maxBound
)

// BoundSearcher finds the [lo, hi) window of suffix-array positions whose
// suffix starts with a query, using the Manber-Myers double binary search
// with an LCP skip. Queries are matched against index text that has already
// had every L folded to I; BoundSearcher performs the same fold on the
// query byte-by-byte as it compares.
type BoundSearcher struct {
	SA   *bitpack.Array
	Text []byte // the folded packed text, T
}

// compare advances through query and T[suffix+skip:] as far as possible,
// folding L/I on both sides, and reports how far it got (the new LCP) plus
// whether the bound condition holds at the first mismatching byte.
func (s *BoundSearcher) compare(query []byte, suffix int64, skip int, b bound) (bool, int) {
	iSuffix := int(suffix) + skip
	iQuery := skip
	condOrEqual := false

	for iQuery < len(query) && iSuffix < len(s.Text) &&
		(query[iQuery] == s.Text[iSuffix] ||
			(query[iQuery] == 'L' && s.Text[iSuffix] == 'I') ||
			(query[iQuery] == 'I' && s.Text[iSuffix] == 'L')) {
		iSuffix++
		iQuery++
	}

	if len(query) != 0 {
		if iQuery == len(query) {
			condOrEqual = true
		} else if iSuffix < len(s.Text) {
			peptideChar := query[iQuery]
			if peptideChar == 'L' {
				peptideChar = 'I'
			}
			textChar := s.Text[iSuffix]
			if textChar == 'L' {
				textChar = 'I'
			}
			if b == minBound {
				condOrEqual = peptideChar < textChar
			} else {
				condOrEqual = peptideChar > textChar
			}
		}
	}

	return condOrEqual, iQuery
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// binarySearchBound runs one Manber-Myers double binary search for the
// requested bound and returns whether a full match was observed anywhere
// during the search, plus the resulting bound index.
func (s *BoundSearcher) binarySearchBound(b bound, query []byte) (bool, int) {
	left, right := 0, s.SA.Len()
	lcpLeft, lcpRight := 0, 0
	found := false

	for right-left > 1 {
		center := (left + right) / 2
		skip := minInt(lcpLeft, lcpRight)
		retval, lcpCenter := s.compare(query, int64(s.SA.Get(center)), skip, b)

		found = found || lcpCenter == len(query)

		if (retval && b == minBound) || (!retval && b == maxBound) {
			right = center
			lcpRight = lcpCenter
		} else {
			left = center
			lcpLeft = lcpCenter
		}
	}

	if right == 1 && left == 0 {
		retval, lcpCenter := s.compare(query, int64(s.SA.Get(0)), minInt(lcpLeft, lcpRight), b)
		found = found || lcpCenter == len(query)
		if b == minBound && retval {
			right = 0
		}
	}

	if b == minBound {
		return found, right
	}
	return found, left
}

// Bounds is the half-open [Lo, Hi) window of matching suffix-array indices,
// or Found == false if query occurs nowhere.
type Bounds struct {
	Found bool
	Lo    int
	Hi    int
}

// SearchBounds returns the bound window for query. An empty query is
// defined to match every suffix: callers that want to reject blank queries
// must do so before calling SearchBounds (see orchestrator).
func (s *BoundSearcher) SearchBounds(query []byte) Bounds {
	if len(query) == 0 {
		return Bounds{Found: true, Lo: 0, Hi: s.SA.Len()}
	}
	foundMin, lo := s.binarySearchBound(minBound, query)
	if !foundMin {
		return Bounds{Found: false}
	}
	_, hi := s.binarySearchBound(maxBound, query)
	return Bounds{Found: true, Lo: lo, Hi: hi + 1}
}

// SparseSearcher reconstructs the full match set for a query against a
// suffix array sampled every SampleRate positions, by running SampleRate
// separate bound searches (one per possible alignment skip) and verifying
// each partial hit's unmatched prefix/suffix against the true text.
type SparseSearcher struct {
	*BoundSearcher
	SampleRate int
	// UnfoldedText is the original protein text before L->I folding, used
	// to re-verify true I/L identity when EqualizeIAndL is false.
	UnfoldedText []byte
}

// AllSuffixesResult is the discriminated union returned by
// SearchMatchingSuffixes: either no matches, a capped MaxMatches batch, the
// complete SearchResult set, or OutOfTime when ctx expired mid-search.
type AllSuffixesResult struct {
	Kind     AllSuffixesKind
	Suffixes []int64
}

// AllSuffixesKind enumerates the four SearchMatchingSuffixes outcomes.
type AllSuffixesKind int

const (
	NoMatches AllSuffixesKind = iota
	MaxMatches
	SearchResult
	// OutOfTime means ctx's deadline expired mid-search: the peptide was
	// searched but the result is inconclusive, distinct from NoMatches.
	OutOfTime
)

func ilLocations(s []byte) []int {
	var locs []int
	for i, c := range s {
		if c == 'I' || c == 'L' {
			locs = append(locs, i)
		}
	}
	return locs
}

func checkPrefix(searchPrefix, indexPrefix []byte, equalizeIAndL bool) bool {
	if equalizeIAndL {
		for i := range searchPrefix {
			sc, ic := searchPrefix[i], indexPrefix[i]
			if !(sc == ic || (sc == 'I' && ic == 'L') || (sc == 'L' && ic == 'I')) {
				return false
			}
		}
		return true
	}
	if len(searchPrefix) != len(indexPrefix) {
		return false
	}
	for i := range searchPrefix {
		if searchPrefix[i] != indexPrefix[i] {
			return false
		}
	}
	return true
}

func checkSuffix(skip int, ilLocs []int, searchString, indexString []byte, equalizeIAndL bool) bool {
	if equalizeIAndL {
		return true
	}
	for _, loc := range ilLocs {
		index := loc - skip
		if searchString[index] != indexString[index] {
			return false
		}
	}
	return true
}

// SearchMatchingSuffixes reconstructs every unfolded-text offset at which
// query occurs, stopping early with MaxMatches once maxMatches is reached.
// When equalizeIAndL is false, matches arising purely from I/L folding are
// filtered out by re-checking the true bytes at every I/L position.
//
// ctx's deadline is checked at the top of every skip and periodically while
// scanning a skip's [Lo, Hi) window; on expiry the search stops immediately
// and returns OutOfTime rather than completing an unbounded scan.
func (s *SparseSearcher) SearchMatchingSuffixes(ctx context.Context, query []byte, maxMatches int, equalizeIAndL bool) AllSuffixesResult {
	var matching []int64
	ilLocs := ilLocations(query)

	text := s.Text
	if !equalizeIAndL {
		text = s.UnfoldedText
	}

	checked := 0
	for skip := 0; skip < s.SampleRate; skip++ {
		if ctx.Err() != nil {
			return AllSuffixesResult{Kind: OutOfTime}
		}

		ilStart := 0
		for ilStart < len(ilLocs) && ilLocs[ilStart] < skip {
			ilStart++
		}
		ilCurrent := ilLocs[ilStart:]
		prefix := query[:skip]
		suffix := query[skip:]

		b := s.SearchBounds(query[skip:])
		if !b.Found {
			continue
		}
		for saIndex := b.Lo; saIndex < b.Hi; saIndex++ {
			checked++
			if checked%outOfTimeCheckInterval == 0 && ctx.Err() != nil {
				return AllSuffixesResult{Kind: OutOfTime}
			}
			suffixPos := int(s.SA.Get(saIndex))
			if suffixPos < skip {
				continue
			}
			if skip != 0 && !checkPrefix(prefix, text[suffixPos-skip:suffixPos], equalizeIAndL) {
				continue
			}
			if !checkSuffix(skip, ilCurrent, suffix, text[suffixPos:suffixPos+len(query)-skip], equalizeIAndL) {
				continue
			}
			matching = append(matching, int64(suffixPos-skip))
			if len(matching) >= maxMatches {
				return AllSuffixesResult{Kind: MaxMatches, Suffixes: matching}
			}
		}
	}

	if len(matching) == 0 {
		return AllSuffixesResult{Kind: NoMatches}
	}
	return AllSuffixesResult{Kind: SearchResult, Suffixes: matching}
}

// RetrieveProteins maps matched suffix offsets to protein records via idx,
// dropping any suffix that falls on a sentinel (separator/terminator) byte.
func RetrieveProteins(idx interface{ SuffixToProtein(int64) uint32 }, proteins []packedtext.Protein, suffixes []int64) []*packedtext.Protein {
	var res []*packedtext.Protein
	for _, suf := range suffixes {
		p := idx.SuffixToProtein(suf)
		if p != suffixindex.Null {
			res = append(res, &proteins[p])
		}
	}
	return res
}
