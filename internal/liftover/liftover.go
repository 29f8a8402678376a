// Package liftover maps genomic positions onto transcript-relative coordinates.
package liftover

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-lookup/internal/refseq"
)

var (
	// ErrNotInCDS is returned for a position at or after the first mRNA
	// segment that falls in no CDS segment.
	ErrNotInCDS = errors.New("position is not in a CDS segment")
	// ErrNoSegments is returned when the mRNA or CDS table is empty.
	ErrNoSegments = errors.New("no segments")
)

// Segment is a 1-based inclusive genomic interval.
type Segment struct {
	Start int64
	End   int64
}

// Len returns the number of bases in the segment.
func (s Segment) Len() int64 {
	return s.End - s.Start + 1
}

// Contains reports whether pos falls inside the segment.
func (s Segment) Contains(pos int64) bool {
	return pos >= s.Start && pos <= s.End
}

// Map returns the signed transcript-relative offset of a genomic position.
// Positions before the first mRNA segment get a negative offset from the
// coding start; cdsStart is the 1-based position of the first coding base
// within the mRNA. Positions inside a CDS segment get their 1-based position
// in the concatenated coding sequence.
func Map(pos int64, mrna, cds []Segment, cdsStart int64) (int64, error) {
	if len(mrna) == 0 || len(cds) == 0 {
		return 0, ErrNoSegments
	}

	if pos < mrna[0].Start {
		return pos - mrna[0].Start - cdsStart + 1, nil
	}

	var bpSum int64
	for _, seg := range cds {
		if seg.Contains(pos) {
			return pos - seg.Start + 1 + bpSum, nil
		}
		bpSum += seg.Len()
	}
	return 0, fmt.Errorf("%d: %w", pos, ErrNotInCDS)
}

// Mapper holds the segment tables of one transcript.
type Mapper struct {
	MRNA     []Segment
	CDS      []Segment
	CDSStart int64
}

// FromMetadata builds a mapper from sequence metadata. The mRNA arrays are
// used when present, otherwise the exon arrays. Malformed arrays are reported
// as a *refseq.MetadataError. CDSStart is the number of exonic bases before
// the start codon plus one.
func FromMetadata(meta *refseq.Metadata) (*Mapper, error) {
	if err := meta.ValidateSegments(); err != nil {
		return nil, err
	}

	m := &Mapper{}
	if len(meta.MRNAStarts) > 0 {
		for i := range meta.MRNAStarts {
			m.MRNA = append(m.MRNA, Segment{Start: meta.MRNAStarts[i], End: meta.MRNAEnds[i]})
		}
	} else {
		for i := range meta.ExonStarts {
			m.MRNA = append(m.MRNA, Segment{Start: int64(meta.ExonStarts[i]), End: int64(meta.ExonEnds[i])})
		}
	}
	for i := range meta.CDSStarts {
		m.CDS = append(m.CDS, Segment{Start: int64(meta.CDSStarts[i]), End: int64(meta.CDSEnds[i])})
	}

	atg := m.CDS[0].Start
	var before int64
	for _, seg := range m.MRNA {
		switch {
		case seg.End < atg:
			before += seg.Len()
		case seg.Start <= atg:
			before += atg - seg.Start
		}
	}
	m.CDSStart = before + 1
	return m, nil
}

// Map returns the transcript-relative offset of pos.
func (m *Mapper) Map(pos int64) (int64, error) {
	return Map(pos, m.MRNA, m.CDS, m.CDSStart)
}
