package lookup

import "sort"

// SpanIndex answers which tables cover a genomic position in one build, in
// O(log n + k) using a sorted slice with a suffix-max array. Tables are added
// once and never modified after build.
type SpanIndex struct {
	spans  []span
	maxEnd []int64 // maxEnd[i] = max(end) for spans[i:]
}

type span struct {
	start int64
	end   int64
	table *Table
}

// BuildColumn selects the genomic position column of a row.
type BuildColumn func(r *Row) int64

// GRCh37 selects the GRCh37 position of a row.
func GRCh37(r *Row) int64 { return r.BuildAPosition }

// GRCh38 selects the GRCh38 position of a row.
func GRCh38(r *Row) int64 { return r.BuildBPosition }

// NewSpanIndex indexes tables by the span of the given build column.
func NewSpanIndex(tables []*Table, col BuildColumn) *SpanIndex {
	spans := make([]span, 0, len(tables))
	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		a, b := col(&t.Rows[0]), col(&t.Rows[len(t.Rows)-1])
		if a > b {
			a, b = b, a
		}
		spans = append(spans, span{start: a, end: b, table: t})
	}
	if len(spans) == 0 {
		return &SpanIndex{}
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i].start < spans[j].start
	})

	maxEnd := make([]int64, len(spans))
	maxEnd[len(spans)-1] = spans[len(spans)-1].end
	for i := len(spans) - 2; i >= 0; i-- {
		maxEnd[i] = max(spans[i].end, maxEnd[i+1])
	}

	return &SpanIndex{spans: spans, maxEnd: maxEnd}
}

// FindOverlaps returns all tables whose span contains pos.
func (x *SpanIndex) FindOverlaps(pos int64) []*Table {
	if len(x.spans) == 0 {
		return nil
	}

	var result []*Table

	// Candidates are spans[0:hi), the spans starting at or before pos.
	hi := sort.Search(len(x.spans), func(i int) bool {
		return x.spans[i].start > pos
	})

	for i := hi - 1; i >= 0; i-- {
		if x.maxEnd[i] < pos {
			break
		}
		if x.spans[i].end >= pos {
			result = append(result, x.spans[i].table)
		}
	}

	return result
}

// RowAt returns the row of t whose build column equals pos. Rows are assumed
// to advance by one genomic position per base.
func RowAt(t *Table, col BuildColumn, pos int64) (*Row, bool) {
	if len(t.Rows) == 0 {
		return nil, false
	}
	i := int(pos - col(&t.Rows[0]))
	if i < 0 || i >= len(t.Rows) || col(&t.Rows[i]) != pos {
		return nil, false
	}
	return &t.Rows[i], true
}
