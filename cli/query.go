package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bioutils/peptidesearch/orchestrator"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query [peptide...]",
		Short: "Search peptides against a built or loaded index",
		Long: `Search peptides against a built or loaded index.

Peptides are read from the positional arguments if given, otherwise one
per line from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

			db, err := loadDatabase(log)
			if err != nil {
				return err
			}
			if f.buildOnly {
				return nil
			}

			peptides := args
			if len(peptides) == 0 {
				peptides, err = readPeptides(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("cli: reading peptides: %w", err)
				}
			}

			return runQuery(cmd.Context(), db, peptides, cmd.OutOrStdout())
		},
	}
}

func readPeptides(r io.Reader) ([]string, error) {
	var peptides []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			peptides = append(peptides, line)
		}
	}
	return peptides, scanner.Err()
}

func runQuery(ctx context.Context, db *database, peptides []string, out io.Writer) error {
	enc := json.NewEncoder(out)

	switch f.mode {
	case "min-max-bound":
		for _, p := range peptides {
			b := db.sparse.SearchBounds([]byte(strings.ToUpper(p)))
			if err := enc.Encode(map[string]any{"sequence": p, "found": b.Found, "lo": b.Lo, "hi": b.Hi}); err != nil {
				return err
			}
		}
		return nil
	case "all-occurrences":
		for _, p := range peptides {
			res := db.sparse.SearchMatchingSuffixes(ctx, []byte(strings.ToUpper(p)), f.cutoff, true)
			if err := enc.Encode(map[string]any{"sequence": p, "kind": res.Kind, "suffixes": res.Suffixes}); err != nil {
				return err
			}
		}
		return nil
	case "taxon-id":
		orch := newOrchestrator(db)
		results, err := orch.SearchBatch(ctx, peptides)
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := enc.Encode(map[string]any{"sequence": r.Sequence, "lca": r.LCA}); err != nil {
				return err
			}
		}
		return nil
	default:
		return matchQuery(ctx, db, peptides, enc)
	}
}

func matchQuery(ctx context.Context, db *database, peptides []string, enc *json.Encoder) error {
	orch := newOrchestrator(db)
	results, err := orch.SearchBatch(ctx, peptides)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := enc.Encode(toRecord(r)); err != nil {
			return err
		}
	}
	return nil
}

// record is the batch query output record, matching the contract's
// sequence/lca/taxa/uniprot_accessions/fa/cutoff_used shape.
type record struct {
	Sequence          string   `json:"sequence"`
	LCA               uint32   `json:"lca"`
	Taxa              []uint32 `json:"taxa"`
	UniprotAccessions []string `json:"uniprot_accessions"`
	FA                any      `json:"fa"`
	CutoffUsed        bool     `json:"cutoff_used"`
}

func toRecord(r orchestrator.Result) record {
	return record{
		Sequence:          r.Sequence,
		LCA:               r.LCA,
		Taxa:              r.Taxa,
		UniprotAccessions: r.UniprotAccessions,
		FA:                r.FA,
		CutoffUsed:        r.CutoffUsed,
	}
}
