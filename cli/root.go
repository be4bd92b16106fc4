// Package cli assembles the peptidesearch command tree: build, query, and
// serve, sharing the database/index/search flag surface across all three.
package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bioutils/peptidesearch/bitpack"
	"github.com/bioutils/peptidesearch/indexfile"
	"github.com/bioutils/peptidesearch/orchestrator"
	"github.com/bioutils/peptidesearch/packedtext"
	"github.com/bioutils/peptidesearch/sacore"
	"github.com/bioutils/peptidesearch/search"
	"github.com/bioutils/peptidesearch/suffixindex"
	"github.com/bioutils/peptidesearch/taxonomy"
	"github.com/bioutils/peptidesearch/tsvdb"
)

// flags holds the shared, persistent flag surface every subcommand reads.
type flags struct {
	databaseFile string
	taxonomyFile string
	indexFile    string
	loadIndex    bool

	sparseness int
	mapping    string // "dense" | "sparse"
	algorithm  string // "lib-sais" | "lib-div-suf-sort"

	mode string // "match" | "min-max-bound" | "all-occurrences" | "taxon-id"

	cutoff    int
	threads   int
	buildOnly bool
}

var f flags

// Execute builds and runs the root command under ctx.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:   "peptidesearch",
		Short: "Bit-packed sparse suffix array peptide search",
	}

	root.PersistentFlags().StringVar(&f.databaseFile, "database-file", "", "protein TSV database path")
	root.PersistentFlags().StringVar(&f.taxonomyFile, "taxonomy", "", "taxonomy TSV path")
	root.PersistentFlags().StringVar(&f.indexFile, "index-file", "", "suffix array index file path")
	root.PersistentFlags().BoolVar(&f.loadIndex, "load-index", false, "load an existing index file instead of building one")

	root.PersistentFlags().IntVar(&f.sparseness, "sparseness-factor", 1, "suffix array sparseness (sample every Nth suffix)")
	root.PersistentFlags().IntVar(&f.sparseness, "sample-rate", 1, "alias of --sparseness-factor")

	root.PersistentFlags().StringVar(&f.mapping, "suffix-to-protein-mapping", "sparse", "suffix->protein index representation: dense|sparse")
	root.PersistentFlags().StringVar(&f.algorithm, "construction-algorithm", "lib-sais", "suffix array construction algorithm: lib-sais|lib-div-suf-sort")

	root.PersistentFlags().StringVar(&f.mode, "mode", "", "query output mode: match|min-max-bound|all-occurrences|taxon-id")
	root.PersistentFlags().IntVar(&f.cutoff, "cutoff", 10000, "maximum matching proteins before falling back to the root taxon")
	root.PersistentFlags().IntVar(&f.threads, "threads", 0, "worker count for batch queries (0 = GOMAXPROCS)")
	root.PersistentFlags().BoolVar(&f.buildOnly, "build-only", false, "stop after building/writing the index, without querying")

	root.AddCommand(newBuildCmd(), newQueryCmd(), newServeCmd())

	return root.ExecuteContext(ctx)
}

// database is everything loaded or built from --database-file,
// --taxonomy, and --index-file, ready to back an Orchestrator.
type database struct {
	text   *packedtext.Text
	tree   *taxonomy.Tree
	sparse *search.SparseSearcher
	index  suffixindex.Index
}

func algorithmFromFlag(s string) sacore.Algorithm {
	if s == "lib-div-suf-sort" {
		return sacore.LibDivSufSort
	}
	return sacore.LibSais
}

// loadDatabase reads the taxonomy and protein TSVs, then either loads an
// existing suffix-array index (--load-index) or builds one fresh,
// optionally persisting it to --index-file.
func loadDatabase(log zerolog.Logger) (*database, error) {
	if f.databaseFile == "" || f.taxonomyFile == "" {
		return nil, fmt.Errorf("cli: --database-file and --taxonomy are required")
	}

	taxFile, err := os.Open(f.taxonomyFile)
	if err != nil {
		return nil, fmt.Errorf("cli: opening taxonomy file: %w", err)
	}
	defer taxFile.Close()
	tree, err := tsvdb.LoadTaxonomy(taxFile)
	if err != nil {
		return nil, fmt.Errorf("cli: loading taxonomy: %w", err)
	}

	dbFile, err := os.Open(f.databaseFile)
	if err != nil {
		return nil, fmt.Errorf("cli: opening database file: %w", err)
	}
	defer dbFile.Close()
	text, err := tsvdb.LoadProteins(dbFile, tree, log)
	if err != nil {
		return nil, fmt.Errorf("cli: loading proteins: %w", err)
	}

	folded := packedtext.Folded(text.T)

	var sa *bitpack.Array
	if f.loadIndex && f.indexFile != "" {
		in, err := os.Open(f.indexFile)
		if err != nil {
			return nil, fmt.Errorf("cli: opening index file: %w", err)
		}
		defer in.Close()
		hdr, arr, err := indexfile.Load(in, folded, len(folded))
		if err != nil {
			return nil, fmt.Errorf("cli: loading index file: %w", err)
		}
		f.sparseness = int(hdr.Sparseness)
		sa = arr
	} else {
		arr, err := sacore.Build(folded, f.sparseness, algorithmFromFlag(f.algorithm))
		if err != nil {
			return nil, fmt.Errorf("cli: building suffix array: %w", err)
		}
		sa = arr
		if f.indexFile != "" {
			out, err := os.Create(f.indexFile)
			if err != nil {
				return nil, fmt.Errorf("cli: creating index file: %w", err)
			}
			defer out.Close()
			if err := indexfile.Write(out, byte(f.sparseness), folded, arr); err != nil {
				return nil, fmt.Errorf("cli: writing index file: %w", err)
			}
		}
	}

	var idx suffixindex.Index
	if f.mapping == "dense" {
		idx, err = suffixindex.NewDense(text.T)
		if err != nil {
			return nil, fmt.Errorf("cli: building suffix->protein index: %w", err)
		}
	} else {
		idx = suffixindex.NewSparse(text.T)
	}

	sparse := &search.SparseSearcher{
		BoundSearcher: &search.BoundSearcher{SA: sa, Text: folded},
		SampleRate:    f.sparseness,
		UnfoldedText:  text.T,
	}

	return &database{text: text, tree: tree, sparse: sparse, index: idx}, nil
}

func workerCount() int {
	if f.threads > 0 {
		return f.threads
	}
	return runtime.GOMAXPROCS(0)
}

func newOrchestrator(db *database) *orchestrator.Orchestrator {
	taxAgg := taxonomy.NewAggregator(db.tree, taxonomy.Lca)
	return orchestrator.New(db.sparse, db.text, db.index, taxAgg, orchestrator.Config{
		Cutoff:        f.cutoff,
		EqualizeIAndL: true,
		CleanTaxa:     true,
		Workers:       workerCount(),
	})
}

