// Package orchestrator runs the per-peptide search pipeline — bound search,
// sparseness-compensated retrieval, taxon aggregation, functional annotation
// aggregation — and fans a batch of peptides out across a bounded worker
// pool while preserving input order in the output.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bioutils/peptidesearch/annotation"
	"github.com/bioutils/peptidesearch/packedtext"
	"github.com/bioutils/peptidesearch/search"
	"github.com/bioutils/peptidesearch/suffixindex"
	"github.com/bioutils/peptidesearch/taxonomy"
)

// Config holds the orchestrator's policy knobs, all independent of the
// immutable search structures themselves.
type Config struct {
	// Cutoff is the maximum number of matching proteins retrieved for a
	// single peptide before the search is abandoned in favor of the root
	// taxon; spec default is 10000.
	Cutoff int
	// EqualizeIAndL selects whether I/L are treated as equal during
	// sparseness-compensation re-verification.
	EqualizeIAndL bool
	// CleanTaxa drops proteins whose recorded taxon id is flagged invalid
	// before aggregation, per the taxon_valid contract.
	CleanTaxa bool
	// MaxPeptideSearchTime bounds a single peptide's search; zero means
	// unlimited. Checked between sparseness-compensation skips.
	MaxPeptideSearchTime time.Duration
	// Workers caps batch-level concurrency; zero sets no limit (one
	// goroutine per peptide). The CLI passes GOMAXPROCS when --threads is 0.
	Workers int
}

// rootTaxon is the taxonomy root id, used as the LCA when a cutoff is hit.
const rootTaxon uint32 = 1

// Result is one peptide's search outcome. A peptide with no surviving
// result (no match, or every matched protein's taxon filtered out) is
// omitted from a batch's output entirely.
type Result struct {
	Sequence          string
	LCA               uint32
	Taxa              []uint32
	UniprotAccessions []string
	FA                annotation.Aggregate
	CutoffUsed        bool
	// ShortQuery is set when the peptide is too short to be localized
	// within a sparse sample window; no search was attempted.
	ShortQuery bool
	// OutOfTime is set when MaxPeptideSearchTime elapsed mid-search; the
	// peptide was searched but the result is inconclusive.
	OutOfTime bool
}

// Orchestrator wires the immutable search structures together and exposes
// the batch query surface. Every field is read-only after construction and
// safe for concurrent use by multiple workers.
type Orchestrator struct {
	Sparse  *search.SparseSearcher
	Text    *packedtext.Text
	Index   suffixindex.Index
	TaxAgg  *taxonomy.Aggregator
	FuncAgg annotation.Aggregator
	Config  Config
}

// New builds an Orchestrator over the given immutable search structures.
func New(sparse *search.SparseSearcher, text *packedtext.Text, idx suffixindex.Index, taxAgg *taxonomy.Aggregator, cfg Config) *Orchestrator {
	if cfg.Cutoff <= 0 {
		cfg.Cutoff = 10000
	}
	return &Orchestrator{
		Sparse: sparse,
		Text:   text,
		Index:  idx,
		TaxAgg: taxAgg,
		Config: cfg,
	}
}

// SearchOne runs the full pipeline for one peptide: strip/uppercase, reject
// queries shorter than the sample rate, search, retrieve proteins, and
// aggregate taxa and functional annotations. ok is false when the peptide
// is dropped entirely (no match, or all matched taxa filtered out).
func (o *Orchestrator) SearchOne(ctx context.Context, peptide string) (Result, bool) {
	seq := strings.ToUpper(strings.TrimRight(peptide, "\r\n"))
	res := Result{Sequence: seq}

	if len(seq) < o.Sparse.SampleRate {
		res.ShortQuery = true
		return res, true
	}

	allRes := o.searchMatchingSuffixesWithDeadline(ctx, []byte(seq))

	switch allRes.Kind {
	case search.NoMatches:
		return Result{}, false
	case search.MaxMatches:
		res.CutoffUsed = true
		res.LCA = rootTaxon
		return res, true
	case search.OutOfTime:
		res.OutOfTime = true
		return res, true
	}

	matched := search.RetrieveProteins(o.Index, o.Text.Proteins, allRes.Suffixes)
	if len(matched) == 0 {
		return Result{}, false
	}

	taxa := make([]uint32, 0, len(matched))
	funcProteins := make([]annotation.Protein, 0, len(matched))
	accessions := make([]string, 0, len(matched))
	for _, p := range matched {
		if o.Config.CleanTaxa && o.TaxAgg != nil && !o.TaxAgg.TaxonValid(p.TaxonID) {
			continue
		}
		taxa = append(taxa, p.TaxonID)
		accessions = append(accessions, p.UniprotID)
		decoded, err := annotation.Decode(p.Annotations)
		if err != nil {
			decoded = ""
		}
		funcProteins = append(funcProteins, annotation.Protein{UniprotID: p.UniprotID, Annotations: decoded})
	}

	lca, ok := o.TaxAgg.Aggregate(taxa)
	if !ok {
		return Result{}, false
	}

	res.LCA = lca
	res.Taxa = taxa
	res.UniprotAccessions = accessions
	res.FA = o.FuncAgg.Aggregate(funcProteins)
	return res, true
}

// searchMatchingSuffixesWithDeadline attaches Config.MaxPeptideSearchTime as
// a deadline to ctx, if configured, and threads it through to
// SparseSearcher.SearchMatchingSuffixes, which checks it between skips and
// periodically within each skip's match-retrieval loop, returning OutOfTime
// as soon as it expires instead of running the skip to completion.
func (o *Orchestrator) searchMatchingSuffixesWithDeadline(ctx context.Context, query []byte) search.AllSuffixesResult {
	if o.Config.MaxPeptideSearchTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Config.MaxPeptideSearchTime)
		defer cancel()
	}
	return o.Sparse.SearchMatchingSuffixes(ctx, query, o.Config.Cutoff, o.Config.EqualizeIAndL)
}

// SearchBatch runs SearchOne over every peptide concurrently, bounded by
// Config.Workers (0 means unbounded, i.e. GOMAXPROCS-scale via errgroup's
// default scheduling), and returns one Result per input peptide that
// produced a surviving result, in input order. Dropped peptides are simply
// absent from the output; the caller that needs index correspondence can
// zip Result.Sequence back against the input slice.
func (o *Orchestrator) SearchBatch(ctx context.Context, peptides []string) ([]Result, error) {
	results := make([]*Result, len(peptides))

	g, gctx := errgroup.WithContext(ctx)
	if o.Config.Workers > 0 {
		g.SetLimit(o.Config.Workers)
	}

	for i, peptide := range peptides {
		i, peptide := i, peptide
		g.Go(func() error {
			if strings.TrimSpace(peptide) == "" {
				return nil
			}
			res, ok := o.SearchOne(gctx, peptide)
			if ok {
				results[i] = &res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(peptides))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}
