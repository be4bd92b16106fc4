// Package tsvdb reads the protein and taxonomy TSV formats into the
// in-memory structures the rest of the engine is built over: a
// packedtext.Text plus a taxonomy.Tree.
package tsvdb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bioutils/peptidesearch/annotation"
	"github.com/bioutils/peptidesearch/packedtext"
	"github.com/bioutils/peptidesearch/taxonomy"
)

// maxLineSize caps a single TSV line's buffer. Both loaders read line by
// line through bufio.Scanner, which needs an explicit ceiling above its
// 64KiB default for long protein sequences; a longer line fails the load.
const maxLineSize = 1 << 20

// LoadTaxonomy reads the 5-column taxonomy TSV (id, name, rank, parent_id,
// valid_bit) from r into a taxonomy.Tree.
func LoadTaxonomy(r io.Reader) (*taxonomy.Tree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var rows []taxonomy.Row
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			return nil, fmt.Errorf("tsvdb: taxonomy line %d: expected 5 fields, got %d", lineNo, len(fields))
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("tsvdb: taxonomy line %d: bad id: %w", lineNo, err)
		}
		parent, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("tsvdb: taxonomy line %d: bad parent id: %w", lineNo, err)
		}
		valid := len(fields[4]) > 0 && fields[4][0] == 0x01
		rows = append(rows, taxonomy.Row{
			ID:       uint32(id),
			Name:     fields[1],
			Rank:     fields[2],
			ParentID: uint32(parent),
			Valid:    valid,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tsvdb: reading taxonomy: %w", err)
	}
	return taxonomy.Build(rows), nil
}

// LoadProteins reads the protein TSV (uniprot_id, taxon_id, sequence,
// annotations) from r, uppercasing sequences, appending Separator after
// each and swapping the final Separator for Terminator, and dropping any
// protein whose taxon id the taxonomy does not recognize.
func LoadProteins(r io.Reader, tree *taxonomy.Tree, log zerolog.Logger) (*packedtext.Text, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var sb strings.Builder
	var proteins []packedtext.Protein
	startIndex := 0
	lineNo := 0
	dropped := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("tsvdb: protein line %d: expected 4 fields, got %d", lineNo, len(fields))
		}
		uniprotID := fields[0]
		taxonID, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("tsvdb: protein line %d: bad taxon id: %w", lineNo, err)
		}
		sequence := fields[2]
		annotations := []byte(fields[3])

		if !tree.Exists(uint32(taxonID)) {
			dropped++
			continue
		}

		upper := strings.ToUpper(sequence)
		sb.WriteString(upper)
		sb.WriteByte(packedtext.Separator)

		proteins = append(proteins, packedtext.Protein{
			UniprotID:   uniprotID,
			Offset:      startIndex,
			Length:      uint32(len(upper)),
			TaxonID:     uint32(taxonID),
			Annotations: annotations,
		})
		startIndex += len(upper) + 1
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tsvdb: reading proteins: %w", err)
	}

	text := sb.String()
	if len(text) > 0 {
		text = text[:len(text)-1] + string(packedtext.Terminator)
	} else {
		text = string(packedtext.Terminator)
	}

	log.Info().
		Int("proteins", len(proteins)).
		Int("dropped_unknown_taxon", dropped).
		Int("text_bytes", len(text)).
		Msg("loaded protein database")

	return &packedtext.Text{T: []byte(text), Proteins: proteins}, nil
}

// DecodeAnnotations decodes the opaque byte annotations of p into the
// semicolon-separated string form the annotation aggregator consumes.
func DecodeAnnotations(p packedtext.Protein) (string, error) {
	return annotation.Decode(p.Annotations)
}
