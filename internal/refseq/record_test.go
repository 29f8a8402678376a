package refseq

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoExonMetadata describes a 30 bp sequence with exons 1-10 and 21-30
// and a CDS split across both.
func twoExonMetadata() Metadata {
	return Metadata{
		ExonCount:  2,
		ExonStarts: []int{1, 21},
		ExonEnds:   []int{10, 30},
		CDSCount:   2,
		CDSStarts:  []int{4, 21},
		CDSEnds:    []int{10, 25},
	}
}

func TestMetadata_Validate(t *testing.T) {
	m := twoExonMetadata()
	require.NoError(t, m.Validate(30))
}

func TestMetadata_ValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Metadata)
		length int
		field  string
		index  int
	}{
		{"exon count mismatch", func(m *Metadata) { m.ExonCount = 3 }, 30, "ExonCount", -1},
		{"exon arrays differ", func(m *Metadata) { m.ExonEnds = []int{10} }, 30, "Exon", -1},
		{"exon beyond length", func(m *Metadata) {}, 29, "Exon", 1},
		{"unsorted exons", func(m *Metadata) { m.ExonStarts, m.ExonEnds = []int{21, 1}, []int{30, 10} }, 30, "Exon", 1},
		{"overlapping exons", func(m *Metadata) { m.ExonStarts = []int{1, 10} }, 30, "Exon", 1},
		{"CDS end before start", func(m *Metadata) { m.CDSEnds = []int{3, 25} }, 30, "CDS", 0},
		{"CDS in intron", func(m *Metadata) { m.CDSStarts = []int{4, 15} }, 30, "CDS", 1},
		{"CDS spans intron", func(m *Metadata) {
			m.CDSStarts, m.CDSEnds, m.CDSCount = []int{4}, []int{25}, 1
		}, 30, "CDS", 0},
		{"CDS ends inside exon", func(m *Metadata) { m.CDSEnds = []int{7, 25} }, 30, "CDS", 0},
		{"CDS starts inside exon", func(m *Metadata) { m.CDSStarts = []int{4, 23} }, 30, "CDS", 1},
		{"exon without CDS between coding exons", func(m *Metadata) {
			m.ExonStarts, m.ExonEnds, m.ExonCount = []int{1, 14, 21}, []int{10, 17, 30}, 3
		}, 30, "CDS", 1},
		{"two CDS in one exon", func(m *Metadata) {
			m.CDSStarts, m.CDSEnds = []int{4, 8}, []int{6, 10}
		}, 30, "CDS", 0},
		{"mRNA arrays differ", func(m *Metadata) {
			m.MRNAStarts, m.MRNAEnds = []int64{100, 200}, []int64{120}
		}, 30, "mRNA", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := twoExonMetadata()
			tt.mutate(&m)
			err := m.Validate(tt.length)
			require.Error(t, err)

			var me *MetadataError
			require.True(t, errors.As(err, &me), "expected MetadataError, got %v", err)
			assert.Equal(t, tt.field, me.Field)
			assert.Equal(t, tt.index, me.Index)
		})
	}
}

func TestMetadata_ValidateSegments(t *testing.T) {
	m := twoExonMetadata()
	m.MRNAStarts, m.MRNAEnds = []int64{41196312, 41199660}, []int64{41197819, 41199720}
	require.NoError(t, m.ValidateSegments())

	tests := []struct {
		name   string
		mutate func(m *Metadata)
		field  string
		index  int
	}{
		{"mRNA ends missing", func(m *Metadata) { m.MRNAEnds = m.MRNAEnds[:1] }, "mRNA", -1},
		{"mRNA unsorted", func(m *Metadata) {
			m.MRNAStarts, m.MRNAEnds = []int64{41199660, 41196312}, []int64{41199720, 41197819}
		}, "mRNA", 1},
		{"mRNA reversed", func(m *Metadata) { m.MRNAEnds = []int64{41196000, 41199720} }, "mRNA", 0},
		{"CDS overlapping", func(m *Metadata) { m.CDSStarts = []int{4, 9} }, "CDS", 1},
		{"exon fallback unpaired", func(m *Metadata) {
			m.MRNAStarts, m.MRNAEnds = nil, nil
			m.ExonEnds = []int{10}
		}, "Exon", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := twoExonMetadata()
			m.MRNAStarts, m.MRNAEnds = []int64{41196312, 41199660}, []int64{41197819, 41199720}
			tt.mutate(&m)

			var me *MetadataError
			require.ErrorAs(t, m.ValidateSegments(), &me)
			assert.Equal(t, tt.field, me.Field)
			assert.Equal(t, tt.index, me.Index)
		})
	}
}

func TestMetadata_ValidateNoCDS(t *testing.T) {
	m := twoExonMetadata()
	m.CDSStarts, m.CDSEnds, m.CDSCount = nil, nil, 0
	assert.ErrorIs(t, m.Validate(30), ErrNoCDS)
}

func TestMetadata_CodonExons(t *testing.T) {
	m := twoExonMetadata()
	assert.Equal(t, 4, m.ATGPosition())
	assert.Equal(t, 25, m.StopPosition())
	assert.Equal(t, 0, m.ATGExonIndex())
	assert.Equal(t, 1, m.StopExonIndex())
	assert.Equal(t, 3, m.UTR5Len())
	assert.Equal(t, 5, m.UTR3Len())
}

func TestRecord_Transcribe(t *testing.T) {
	bases := "AAAATGCCCG" + strings.Repeat("t", 10) + "GGTAAACCCC"
	rec, err := NewRecord("NG_TEST", bases, twoExonMetadata())
	require.NoError(t, err)

	assert.Equal(t, 30, rec.Len())
	assert.Equal(t, byte('A'), rec.Base(4))
	assert.Equal(t, "AAAATGCCCGGGTAAACCCC", rec.Transcribe())
	assert.Equal(t, "ATGCCCGGGTAA", rec.CodingSequence())
}

func TestNewRecord_InvalidMetadata(t *testing.T) {
	_, err := NewRecord("NG_TEST", "ACGT", twoExonMetadata())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NG_TEST")
}

func TestAssembly_Positions(t *testing.T) {
	a := Assembly{Name: "GRCh38", Chrom: "17", Start: 100, End: 104}
	assert.Equal(t, 5, a.Len())
	assert.Equal(t, []int64{100, 101, 102, 103, 104}, a.Positions())
	assert.Equal(t, "GRCh38:17:100-104", a.String())

	assert.Nil(t, Assembly{Start: 10, End: 9}.Positions())
}
