package refseq

import "fmt"

// Assembly is the span a reference sequence occupies in a genome build.
// Positions map 1:1 onto the reference sequence bases.
type Assembly struct {
	Name  string `json:"Name,omitempty"`
	Chrom string `json:"Chrom,omitempty"`
	Start int64  `json:"Start"`
	End   int64  `json:"End"`
}

// Len returns the number of positions in the span.
func (a Assembly) Len() int {
	return int(a.End - a.Start + 1)
}

// Positions expands the span into one genomic position per base.
func (a Assembly) Positions() []int64 {
	if a.End < a.Start {
		return nil
	}
	pos := make([]int64, 0, a.Len())
	for p := a.Start; p <= a.End; p++ {
		pos = append(pos, p)
	}
	return pos
}

func (a Assembly) String() string {
	if a.Chrom == "" {
		return fmt.Sprintf("%s:%d-%d", a.Name, a.Start, a.End)
	}
	return fmt.Sprintf("%s:%s:%d-%d", a.Name, a.Chrom, a.Start, a.End)
}
