package coding

import (
	"fmt"

	"github.com/inodb/vibe-lookup/internal/partition"
)

// LengthError reports a coding-position sequence whose length differs from
// the reference sequence length.
type LengthError struct {
	Expected int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("coding position length mismatch: expected %d bp, generated %d bp", e.Expected, e.Actual)
}

// counters holds the running numbering threaded through the partition.
type counters struct {
	coding int // next coding position
	utr5   int // next 5' UTR exon position (negative)
	utr3   int // next 3' UTR exon position
}

// frame is the per-sequence constant context shared by every step.
type frame struct {
	upstreamShift int // atg - total 5' UTR intron length
	utr3ExonLen   int
}

// Map returns the coding-DNA position of every base 1..length, given the CDS
// partition and the start codon position.
func Map(p partition.Partition, length, atg int) ([]Position, error) {
	f := frame{
		upstreamShift: atg - p.SumLen(partition.KindUTR5Intron),
		utr3ExonLen:   p.SumLen(partition.KindUTR3Exon),
	}
	state := counters{
		coding: 1,
		utr5:   -p.SumLen(partition.KindUTR5Exon),
		utr3:   1,
	}

	out := make([]Position, 0, length)
	for _, iv := range p {
		var emitted []Position
		state, emitted = step(state, f, iv)
		out = append(out, emitted...)
	}

	if len(out) != length {
		return nil, &LengthError{Expected: length, Actual: len(out)}
	}
	return out, nil
}

// step numbers the bases of one interval and returns the advanced counters.
func step(s counters, f frame, iv partition.Interval) (counters, []Position) {
	n := iv.Len()
	out := make([]Position, 0, n)

	switch iv.Kind {
	case partition.KindCDS:
		for range n {
			out = append(out, Position{Kind: Coding, Base: s.coding})
			s.coding++
		}

	case partition.KindIntron:
		for k := 1; k <= n; k++ {
			out = append(out, Position{Kind: IntronOffset, Base: s.coding - 1, Offset: k})
		}

	case partition.KindUpstream:
		// Counts back from the transcript start, continuous with 5' UTR numbering.
		for x := iv.Start; x <= iv.End; x++ {
			out = append(out, Position{Kind: Upstream, Base: x - f.upstreamShift})
		}

	case partition.KindUTR5Exon:
		for range n {
			out = append(out, Position{Kind: Upstream, Base: s.utr5})
			s.utr5++
		}

	case partition.KindUTR5Intron:
		for k := 1; k <= n; k++ {
			out = append(out, Position{Kind: IntronOffset, Base: s.utr5 - 1, Offset: k})
		}

	case partition.KindUTR3Exon:
		for range n {
			out = append(out, Position{Kind: Downstream, Base: s.utr3})
			s.utr3++
		}

	case partition.KindUTR3Intron:
		for k := 1; k <= n; k++ {
			if s.utr3 == 1 {
				// Stop codon ends its exon: no 3' UTR base numbered yet.
				out = append(out, Position{Kind: IntronOffset, Base: s.coding - 1, Offset: k})
				continue
			}
			out = append(out, Position{Kind: DownstreamIntron, Base: s.utr3 - 1, Offset: k})
		}

	case partition.KindDownstream:
		for x := range n {
			out = append(out, Position{Kind: Downstream, Base: x + f.utr3ExonLen + 1})
		}

	default:
		for range n {
			out = append(out, Position{Kind: Unknown})
		}
	}

	return s, out
}
