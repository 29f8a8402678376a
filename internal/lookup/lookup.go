// Package lookup builds per-base position lookup tables for reference sequences.
package lookup

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-lookup/internal/coding"
	"github.com/inodb/vibe-lookup/internal/partition"
	"github.com/inodb/vibe-lookup/internal/refseq"
)

// Columns is the header of a lookup table, in output order.
var Columns = []string{
	"Start_Position",
	"ATG_Position",
	"Transcript_Position",
	"GRCh37_Position",
	"GRCh38_Position",
	"Allele",
	"Exon_Annotation",
	"CDS_Annotation",
}

// ErrUnknownRegion is returned when a base could not be assigned a coding position.
var ErrUnknownRegion = errors.New("base in unrecognized region")

// LengthError reports a build coordinate range whose length differs from the sequence.
type LengthError struct {
	Build    string
	Expected int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s positions: expected %d, got %d", e.Build, e.Expected, e.Actual)
}

// Row is one base of a lookup table.
type Row struct {
	StartPosition      int
	ATGPosition        int
	TranscriptPosition string
	BuildAPosition     int64
	BuildBPosition     int64
	Allele             string
	ExonAnnotation     string
	CDSAnnotation      string
}

// Values returns the row formatted in Columns order.
func (r *Row) Values() []string {
	return []string{
		fmt.Sprintf("%d", r.StartPosition),
		fmt.Sprintf("%d", r.ATGPosition),
		r.TranscriptPosition,
		fmt.Sprintf("%d", r.BuildAPosition),
		fmt.Sprintf("%d", r.BuildBPosition),
		r.Allele,
		r.ExonAnnotation,
		r.CDSAnnotation,
	}
}

// Table is the lookup table of one reference sequence.
type Table struct {
	Name string
	Rows []Row

	Exons partition.Partition
	CDS   partition.Partition
}

// Row returns the row for 1-based position pos.
func (t *Table) Row(pos int) (*Row, bool) {
	if pos < 1 || pos > len(t.Rows) {
		return nil, false
	}
	return &t.Rows[pos-1], true
}

// Build creates the lookup table of rec. buildA and buildB hold the GRCh37 and
// GRCh38 position of every base and must match the sequence length.
func Build(rec *refseq.Record, buildA, buildB []int64) (*Table, error) {
	n := rec.Len()
	if len(buildA) != n {
		return nil, &LengthError{Build: "GRCh37", Expected: n, Actual: len(buildA)}
	}
	if len(buildB) != n {
		return nil, &LengthError{Build: "GRCh38", Expected: n, Actual: len(buildB)}
	}

	meta := &rec.Metadata
	exons, err := partition.Exons(meta, n)
	if err != nil {
		return nil, fmt.Errorf("exon partition: %w", err)
	}
	cds, err := partition.CDS(meta, n)
	if err != nil {
		return nil, fmt.Errorf("CDS partition: %w", err)
	}

	atg := meta.ATGPosition()
	positions, err := coding.Map(cds, n, atg)
	if err != nil {
		return nil, err
	}

	exonLabels := partition.Annotate(exons)
	cdsLabels := partition.Annotate(cds)

	rows := make([]Row, n)
	for i := range n {
		if positions[i].Kind == coding.Unknown {
			return nil, fmt.Errorf("position %d (%s): %w", i+1, cdsLabels[i], ErrUnknownRegion)
		}
		rows[i] = Row{
			StartPosition:      i + 1,
			ATGPosition:        i + 1 - atg,
			TranscriptPosition: positions[i].String(),
			BuildAPosition:     buildA[i],
			BuildBPosition:     buildB[i],
			Allele:             string(rec.Base(i + 1)),
			ExonAnnotation:     exonLabels[i],
			CDSAnnotation:      cdsLabels[i],
		}
	}

	return &Table{Name: rec.Name, Rows: rows, Exons: exons, CDS: cds}, nil
}

// BuildFromAssemblies creates the lookup table of rec from its GRCh37 and GRCh38 spans.
func BuildFromAssemblies(rec *refseq.Record, grch37, grch38 refseq.Assembly) (*Table, error) {
	return Build(rec, grch37.Positions(), grch38.Positions())
}
