// Package partition divides a reference sequence into named, non-overlapping regions.
package partition

import (
	"errors"
	"fmt"
	"sort"

	"github.com/inodb/vibe-lookup/internal/refseq"
)

// Kind classifies a region of a partition.
type Kind int

const (
	KindUnknown Kind = iota
	KindExon
	KindIntron
	KindUpstream
	KindDownstream
	KindCDS
	KindUTR5Exon
	KindUTR5Intron
	KindUTR3Exon
	KindUTR3Intron
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindExon:       "exon",
	KindIntron:     "intron",
	KindUpstream:   "upstream",
	KindDownstream: "downstream",
	KindCDS:        "cds",
	KindUTR5Exon:   "utr5_exon",
	KindUTR5Intron: "utr5_intron",
	KindUTR3Exon:   "utr3_exon",
	KindUTR3Intron: "utr3_intron",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Region names for the flanking intervals.
const (
	UpstreamName   = "Upstream"
	DownstreamName = "Downstream"
)

// Interval is a named region with 1-based inclusive bounds.
type Interval struct {
	Name  string
	Kind  Kind
	Start int
	End   int
}

// Len returns the number of bases the interval spans.
func (iv Interval) Len() int {
	return iv.End - iv.Start + 1
}

// Partition is an ordered list of intervals tiling 1..length.
type Partition []Interval

// ErrBoundNotFound is returned when a flanking interval needed to bound
// another partition is missing.
var ErrBoundNotFound = errors.New("bound interval not found")

// CoverageError reports a partition that does not tile 1..Expected exactly.
// Position is the first base where the tiling breaks.
type CoverageError struct {
	Expected int
	Computed int
	Position int
	Reason   string
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("partition coverage: %s at position %d (expected %d bp, computed %d bp)",
		e.Reason, e.Position, e.Expected, e.Computed)
}

// Validate checks that p covers 1..length with no gaps or overlaps.
func (p Partition) Validate(length int) error {
	computed := p.TotalLen()
	next := 1
	for _, iv := range p {
		if iv.End < iv.Start {
			return &CoverageError{Expected: length, Computed: computed, Position: iv.Start,
				Reason: fmt.Sprintf("%s ends before it starts", iv.Name)}
		}
		if iv.Start > next {
			return &CoverageError{Expected: length, Computed: computed, Position: next, Reason: "gap"}
		}
		if iv.Start < next {
			return &CoverageError{Expected: length, Computed: computed, Position: iv.Start,
				Reason: fmt.Sprintf("%s overlaps previous interval", iv.Name)}
		}
		next = iv.End + 1
	}
	if next != length+1 || computed != length {
		return &CoverageError{Expected: length, Computed: computed, Position: next, Reason: "length mismatch"}
	}
	return nil
}

// TotalLen returns the sum of interval spans.
func (p Partition) TotalLen() int {
	n := 0
	for _, iv := range p {
		n += iv.Len()
	}
	return n
}

// Find returns the first interval with the given name.
func (p Partition) Find(name string) (Interval, bool) {
	for _, iv := range p {
		if iv.Name == name {
			return iv, true
		}
	}
	return Interval{}, false
}

// SumLen returns the total span of intervals of the given kind.
func (p Partition) SumLen(k Kind) int {
	n := 0
	for _, iv := range p {
		if iv.Kind == k {
			n += iv.Len()
		}
	}
	return n
}

// Exons partitions 1..length into exons, introns and the two flanks.
func Exons(meta *refseq.Metadata, length int) (Partition, error) {
	if err := meta.Validate(length); err != nil {
		return nil, err
	}
	return finish(exonIntervals(meta, length), length)
}

// exonIntervals returns the exon partition intervals, including empty flanks.
func exonIntervals(meta *refseq.Metadata, length int) Partition {
	var ivs Partition
	ivs = appendNumbered(ivs, "Exon", KindExon, meta.ExonStarts, meta.ExonEnds)
	ivs = appendGaps(ivs, "Intron", KindIntron, meta.ExonStarts, meta.ExonEnds)
	return append(ivs,
		Interval{Name: UpstreamName, Kind: KindUpstream, Start: 1, End: meta.ExonStarts[0] - 1},
		Interval{Name: DownstreamName, Kind: KindDownstream, Start: meta.ExonEnds[len(meta.ExonEnds)-1] + 1, End: length},
	)
}

// CDS partitions 1..length into coding intervals, coding introns, 5' and 3'
// UTR exon pieces with their introns, and the two flanks. The flank bounds
// are taken from the exon partition.
func CDS(meta *refseq.Metadata, length int) (Partition, error) {
	if err := meta.Validate(length); err != nil {
		return nil, err
	}
	exons := exonIntervals(meta, length)
	up, ok := exons.Find(UpstreamName)
	if !ok {
		return nil, fmt.Errorf("%s: %w", UpstreamName, ErrBoundNotFound)
	}
	down, ok := exons.Find(DownstreamName)
	if !ok {
		return nil, fmt.Errorf("%s: %w", DownstreamName, ErrBoundNotFound)
	}

	var ivs Partition
	ivs = appendNumbered(ivs, "CDS", KindCDS, meta.CDSStarts, meta.CDSEnds)
	ivs = appendGaps(ivs, "Intron", KindIntron, meta.CDSStarts, meta.CDSEnds)

	utr5Starts, utr5Ends := utr5Pieces(meta)
	ivs = appendNumbered(ivs, "5' UTR Exon", KindUTR5Exon, utr5Starts, utr5Ends)
	ivs = appendGaps(ivs, "5' UTR Intron", KindUTR5Intron, utr5Starts, utr5Ends)

	utr3Starts, utr3Ends := utr3Pieces(meta)
	ivs = appendNumbered(ivs, "3' UTR Exon", KindUTR3Exon, utr3Starts, utr3Ends)
	ivs = appendGaps(ivs, "3' UTR Intron", KindUTR3Intron, utr3Starts, utr3Ends)

	ivs = append(ivs,
		Interval{Name: UpstreamName, Kind: KindUpstream, Start: 1, End: up.End},
		Interval{Name: DownstreamName, Kind: KindDownstream, Start: down.Start, End: length},
	)

	return finish(ivs, length)
}

// utr5Pieces returns the exon pieces before the start codon. The piece in the
// start codon's exon ends at atg-1 and may be empty.
func utr5Pieces(meta *refseq.Metadata) (starts, ends []int) {
	atg := meta.ATGPosition()
	idx := meta.ATGExonIndex()
	for i := 0; i <= idx; i++ {
		starts = append(starts, meta.ExonStarts[i])
		if i == idx {
			ends = append(ends, atg-1)
		} else {
			ends = append(ends, meta.ExonEnds[i])
		}
	}
	return starts, ends
}

// utr3Pieces returns the exon pieces after the stop codon. The piece in the
// stop codon's exon starts at stop+1 and may be empty.
func utr3Pieces(meta *refseq.Metadata) (starts, ends []int) {
	stop := meta.StopPosition()
	idx := meta.StopExonIndex()
	if idx < 0 {
		return nil, nil
	}
	for i := idx; i < len(meta.ExonStarts); i++ {
		if i == idx {
			starts = append(starts, stop+1)
		} else {
			starts = append(starts, meta.ExonStarts[i])
		}
		ends = append(ends, meta.ExonEnds[i])
	}
	return starts, ends
}

// appendNumbered adds one interval per start/end pair, named "<prefix> k".
// Empty pieces still consume their number; finish drops them.
func appendNumbered(ivs Partition, prefix string, kind Kind, starts, ends []int) Partition {
	for i := range starts {
		ivs = append(ivs, Interval{
			Name:  fmt.Sprintf("%s %d", prefix, i+1),
			Kind:  kind,
			Start: starts[i],
			End:   ends[i],
		})
	}
	return ivs
}

// appendGaps adds the gaps between consecutive start/end pairs.
func appendGaps(ivs Partition, prefix string, kind Kind, starts, ends []int) Partition {
	for i := 0; i+1 < len(starts); i++ {
		ivs = append(ivs, Interval{
			Name:  fmt.Sprintf("%s %d", prefix, i+1),
			Kind:  kind,
			Start: ends[i] + 1,
			End:   starts[i+1] - 1,
		})
	}
	return ivs
}

// finish drops empty intervals, sorts by start and validates coverage.
func finish(ivs Partition, length int) (Partition, error) {
	p := make(Partition, 0, len(ivs))
	for _, iv := range ivs {
		if iv.Len() > 0 {
			p = append(p, iv)
		}
	}
	sort.SliceStable(p, func(i, j int) bool {
		return p[i].Start < p[j].Start
	})
	if err := p.Validate(length); err != nil {
		return nil, err
	}
	return p, nil
}

// Annotate expands a partition into one region name per base.
func Annotate(p Partition) []string {
	labels := make([]string, 0, p.TotalLen())
	for _, iv := range p {
		for range iv.Len() {
			labels = append(labels, iv.Name)
		}
	}
	return labels
}
