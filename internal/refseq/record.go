// Package refseq provides reference sequence records and their annotation metadata.
package refseq

import (
	"errors"
	"fmt"
	"strings"
)

// Metadata holds the exon, CDS and mRNA boundaries of a reference sequence.
// All positions are 1-based and inclusive.
type Metadata struct {
	ExonCount  int   `json:"ExonCount"`
	ExonStarts []int `json:"ExonStarts"`
	ExonEnds   []int `json:"ExonEnds"`
	CDSCount   int   `json:"CDSCount"`
	CDSStarts  []int `json:"CDSStarts"`
	CDSEnds    []int `json:"CDSEnds"`

	// Genomic mRNA segments, used by the genomic-to-transcript mapper.
	MRNACount  int     `json:"mRNACount,omitempty"`
	MRNAStarts []int64 `json:"mRNAStarts,omitempty"`
	MRNAEnds   []int64 `json:"mRNAEnds,omitempty"`
}

// Record is a reference sequence with its annotation. Records are not modified
// after construction.
type Record struct {
	Name     string
	Bases    string
	Metadata Metadata
}

// NewRecord creates a record and validates its metadata against the sequence length.
func NewRecord(name, bases string, meta Metadata) (*Record, error) {
	if err := meta.Validate(len(bases)); err != nil {
		return nil, fmt.Errorf("record %s: %w", name, err)
	}
	return &Record{Name: name, Bases: bases, Metadata: meta}, nil
}

// Len returns the number of bases.
func (r *Record) Len() int {
	return len(r.Bases)
}

// Base returns the base at 1-based position pos.
func (r *Record) Base(pos int) byte {
	return r.Bases[pos-1]
}

// ErrNoCDS is returned for sequences without a coding region.
var ErrNoCDS = errors.New("no CDS annotated")

// MetadataError reports inconsistent exon or CDS arrays.
type MetadataError struct {
	Field  string
	Index  int
	Reason string
}

func (e *MetadataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed metadata: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed metadata: %s[%d]: %s", e.Field, e.Index, e.Reason)
}

// Validate checks that exon and CDS arrays are consistent, sorted, non-overlapping,
// inside 1..length, and that the CDS intervals are the coding parts of consecutive
// exons: only the first may start inside its exon and only the last may end inside it.
func (m *Metadata) Validate(length int) error {
	if err := validateIntervals("Exon", m.ExonCount, m.ExonStarts, m.ExonEnds, length); err != nil {
		return err
	}
	if len(m.CDSStarts) == 0 {
		return ErrNoCDS
	}
	if err := validateIntervals("CDS", m.CDSCount, m.CDSStarts, m.CDSEnds, length); err != nil {
		return err
	}
	if err := m.validateCDSExons(); err != nil {
		return err
	}

	if m.MRNACount != 0 && m.MRNACount != len(m.MRNAStarts) {
		return &MetadataError{Field: "mRNACount", Index: -1,
			Reason: fmt.Sprintf("count %d does not match %d starts", m.MRNACount, len(m.MRNAStarts))}
	}
	return checkSegments("mRNA", m.MRNAStarts, m.MRNAEnds)
}

func (m *Metadata) validateCDSExons() error {
	last := len(m.CDSStarts) - 1
	prev := -1
	for i := range m.CDSStarts {
		start, end := m.CDSStarts[i], m.CDSEnds[i]
		idx := m.exonIndex(start)
		switch {
		case idx < 0 || idx != m.exonIndex(end):
			return &MetadataError{Field: "CDS", Index: i, Reason: "not contained in a single exon"}
		case i > 0 && idx != prev+1:
			return &MetadataError{Field: "CDS", Index: i,
				Reason: fmt.Sprintf("in exon %d, expected exon %d after the previous CDS", idx+1, prev+2)}
		case i > 0 && start != m.ExonStarts[idx]:
			return &MetadataError{Field: "CDS", Index: i,
				Reason: fmt.Sprintf("start %d is inside exon %d (starts at %d)", start, idx+1, m.ExonStarts[idx])}
		case i < last && end != m.ExonEnds[idx]:
			return &MetadataError{Field: "CDS", Index: i,
				Reason: fmt.Sprintf("end %d is inside exon %d (ends at %d)", end, idx+1, m.ExonEnds[idx])}
		}
		prev = idx
	}
	return nil
}

// ValidateSegments checks the arrays a genomic liftover reads: the CDS arrays and
// the mRNA arrays, or the exon arrays when no mRNA arrays are given. Each must pair
// starts with ends and be ascending and non-overlapping. Unlike Validate it needs no
// sequence length, since mRNA segments are in genomic coordinates.
func (m *Metadata) ValidateSegments() error {
	if len(m.CDSStarts) == 0 {
		return ErrNoCDS
	}
	if err := checkSegments("CDS", m.CDSStarts, m.CDSEnds); err != nil {
		return err
	}
	if len(m.MRNAStarts) > 0 || len(m.MRNAEnds) > 0 {
		return checkSegments("mRNA", m.MRNAStarts, m.MRNAEnds)
	}
	return checkSegments("Exon", m.ExonStarts, m.ExonEnds)
}

func validateIntervals(field string, count int, starts, ends []int, length int) error {
	if len(starts) == 0 {
		return &MetadataError{Field: field, Index: -1, Reason: "no intervals"}
	}
	if count != 0 && count != len(starts) {
		return &MetadataError{Field: field + "Count", Index: -1,
			Reason: fmt.Sprintf("count %d does not match %d intervals", count, len(starts))}
	}
	if err := checkSegments(field, starts, ends); err != nil {
		return err
	}
	for i := range starts {
		switch {
		case starts[i] < 1:
			return &MetadataError{Field: field, Index: i, Reason: fmt.Sprintf("start %d < 1", starts[i])}
		case ends[i] > length:
			return &MetadataError{Field: field, Index: i,
				Reason: fmt.Sprintf("end %d beyond sequence length %d", ends[i], length)}
		}
	}
	return nil
}

// checkSegments reports unpaired, reversed, unsorted or overlapping intervals.
func checkSegments[T int | int64](field string, starts, ends []T) error {
	if len(starts) != len(ends) {
		return &MetadataError{Field: field, Index: -1,
			Reason: fmt.Sprintf("%d starts but %d ends", len(starts), len(ends))}
	}
	for i := range starts {
		switch {
		case ends[i] < starts[i]:
			return &MetadataError{Field: field, Index: i,
				Reason: fmt.Sprintf("end %d before start %d", ends[i], starts[i])}
		case i > 0 && starts[i] <= ends[i-1]:
			return &MetadataError{Field: field, Index: i,
				Reason: fmt.Sprintf("start %d overlaps or precedes previous end %d", starts[i], ends[i-1])}
		}
	}
	return nil
}

// exonIndex returns the 0-based index of the exon containing pos, or -1.
func (m *Metadata) exonIndex(pos int) int {
	for i := range m.ExonStarts {
		if m.ExonStarts[i] <= pos && pos <= m.ExonEnds[i] {
			return i
		}
	}
	return -1
}

// ATGPosition returns the position of the first base of the start codon.
func (m *Metadata) ATGPosition() int {
	return m.CDSStarts[0]
}

// StopPosition returns the position of the last base of the stop codon.
func (m *Metadata) StopPosition() int {
	return m.CDSEnds[len(m.CDSEnds)-1]
}

// ATGExonIndex returns the 0-based index of the exon holding the start codon, or -1.
func (m *Metadata) ATGExonIndex() int {
	return m.exonIndex(m.ATGPosition())
}

// StopExonIndex returns the 0-based index of the exon holding the stop codon, or -1.
func (m *Metadata) StopExonIndex() int {
	return m.exonIndex(m.StopPosition())
}

// Transcribe returns the mRNA sequence: the concatenated exon bases.
func (r *Record) Transcribe() string {
	var sb strings.Builder
	m := &r.Metadata
	for i := range m.ExonStarts {
		sb.WriteString(r.Bases[m.ExonStarts[i]-1 : m.ExonEnds[i]])
	}
	return sb.String()
}

// CodingSequence returns the concatenated CDS bases.
func (r *Record) CodingSequence() string {
	var sb strings.Builder
	m := &r.Metadata
	for i := range m.CDSStarts {
		sb.WriteString(r.Bases[m.CDSStarts[i]-1 : m.CDSEnds[i]])
	}
	return sb.String()
}

// UTR5Len returns the number of exonic bases before the start codon.
func (m *Metadata) UTR5Len() int {
	atg := m.ATGPosition()
	n := 0
	for i := range m.ExonStarts {
		switch {
		case m.ExonEnds[i] < atg:
			n += m.ExonEnds[i] - m.ExonStarts[i] + 1
		case m.ExonStarts[i] < atg:
			n += atg - m.ExonStarts[i]
		}
	}
	return n
}

// UTR3Len returns the number of exonic bases after the stop codon.
func (m *Metadata) UTR3Len() int {
	stop := m.StopPosition()
	n := 0
	for i := range m.ExonStarts {
		switch {
		case m.ExonStarts[i] > stop:
			n += m.ExonEnds[i] - m.ExonStarts[i] + 1
		case m.ExonEnds[i] > stop:
			n += m.ExonEnds[i] - stop
		}
	}
	return n
}
