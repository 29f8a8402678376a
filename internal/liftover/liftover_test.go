package liftover

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-lookup/internal/refseq"
)

var (
	testMRNA = []Segment{{Start: 100, End: 120}, {Start: 200, End: 230}}
	testCDS  = []Segment{{Start: 110, End: 120}, {Start: 200, End: 210}}
)

func TestMap(t *testing.T) {
	tests := []struct {
		name string
		pos  int64
		want int64
	}{
		{"first coding base", 110, 1},
		{"inside first CDS segment", 112, 3},
		{"last base of first segment", 120, 11},
		{"second CDS segment", 205, 17},
		{"before transcript", 95, -15},
		{"one before transcript", 99, -11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Map(tt.pos, testMRNA, testCDS, 11)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMap_NotInCDS(t *testing.T) {
	for _, pos := range []int64{105, 150, 215, 500} {
		_, err := Map(pos, testMRNA, testCDS, 11)
		assert.ErrorIs(t, err, ErrNotInCDS, "pos %d", pos)
	}
}

func TestMap_NoSegments(t *testing.T) {
	_, err := Map(100, nil, testCDS, 1)
	assert.ErrorIs(t, err, ErrNoSegments)

	_, err = Map(100, testMRNA, nil, 1)
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestFromMetadata_Exons(t *testing.T) {
	meta := &refseq.Metadata{
		ExonStarts: []int{100, 200}, ExonEnds: []int{120, 230},
		CDSStarts: []int{110, 200}, CDSEnds: []int{120, 210},
	}
	m, err := FromMetadata(meta)
	require.NoError(t, err)

	assert.Equal(t, testMRNA, m.MRNA)
	assert.Equal(t, testCDS, m.CDS)
	assert.Equal(t, int64(11), m.CDSStart)

	got, err := m.Map(205)
	require.NoError(t, err)
	assert.Equal(t, int64(17), got)
}

func TestFromMetadata_PrefersMRNA(t *testing.T) {
	meta := &refseq.Metadata{
		ExonStarts: []int{1}, ExonEnds: []int{300},
		CDSStarts: []int{110, 200}, CDSEnds: []int{120, 210},
		MRNACount: 2, MRNAStarts: []int64{100, 200}, MRNAEnds: []int64{120, 230},
	}
	m, err := FromMetadata(meta)
	require.NoError(t, err)
	assert.Equal(t, testMRNA, m.MRNA)
	assert.Equal(t, int64(11), m.CDSStart)
}

func TestFromMetadata_NoCDS(t *testing.T) {
	_, err := FromMetadata(&refseq.Metadata{ExonStarts: []int{1}, ExonEnds: []int{10}})
	assert.ErrorIs(t, err, refseq.ErrNoCDS)
}

func TestFromMetadata_MalformedSegments(t *testing.T) {
	tests := []struct {
		name  string
		meta  refseq.Metadata
		field string
	}{
		{"mRNA ends missing", refseq.Metadata{
			CDSStarts: []int{110}, CDSEnds: []int{120},
			MRNAStarts: []int64{100, 200}, MRNAEnds: []int64{120},
		}, "mRNA"},
		{"mRNA unsorted", refseq.Metadata{
			CDSStarts: []int{110}, CDSEnds: []int{120},
			MRNAStarts: []int64{200, 100}, MRNAEnds: []int64{230, 120},
		}, "mRNA"},
		{"CDS ends missing", refseq.Metadata{
			ExonStarts: []int{100}, ExonEnds: []int{230},
			CDSStarts: []int{110, 200}, CDSEnds: []int{120},
		}, "CDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromMetadata(&tt.meta)
			assert.Nil(t, m)
			var me *refseq.MetadataError
			require.True(t, errors.As(err, &me), "expected MetadataError, got %v", err)
			assert.Equal(t, tt.field, me.Field)
		})
	}
}
