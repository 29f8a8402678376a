package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-lookup/internal/lookup"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testTable(name string, a37, a38 int64) *lookup.Table {
	t := &lookup.Table{Name: name}
	labels := []string{"c.-2", "c.-1", "c.1", "c.2", "c.3"}
	for i, l := range labels {
		region := "CDS 1"
		if i < 2 {
			region = "5' UTR Exon 1"
		}
		t.Rows = append(t.Rows, lookup.Row{
			StartPosition:      i + 1,
			ATGPosition:        i - 2,
			TranscriptPosition: l,
			BuildAPosition:     a37 + int64(i),
			BuildBPosition:     a38 + int64(i),
			Allele:             "ACGTA"[i : i+1],
			ExonAnnotation:     "Exon 1",
			CDSAnnotation:      region,
		})
	}
	return t
}

func TestOpenClose(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lookup.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestWriteAndLookupPosition(t *testing.T) {
	s := openInMemory(t)
	tbl := testTable("NG_TEST", 1001, 2001)
	require.NoError(t, s.WriteTable(tbl))

	row, err := s.LookupPosition("NG_TEST", 3)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, tbl.Rows[2], *row)

	row, err = s.LookupPosition("NG_TEST", 99)
	require.NoError(t, err)
	assert.Nil(t, row)

	row, err = s.LookupPosition("NG_OTHER", 1)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestWriteTable_Replaces(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteTable(testTable("NG_TEST", 1001, 2001)))

	updated := testTable("NG_TEST", 5001, 6001)
	updated.Rows = updated.Rows[:3]
	require.NoError(t, s.WriteTable(updated))

	got, err := s.ReadTable("NG_TEST")
	require.NoError(t, err)
	assert.Equal(t, updated.Rows, got.Rows)
}

func TestReadTable(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteTable(testTable("NG_B", 1001, 2001)))
	require.NoError(t, s.WriteTable(testTable("NG_A", 3001, 4001)))

	got, err := s.ReadTable("NG_A")
	require.NoError(t, err)
	assert.Equal(t, "NG_A", got.Name)
	assert.Equal(t, testTable("NG_A", 3001, 4001).Rows, got.Rows)

	missing, err := s.ReadTable("NG_X")
	require.NoError(t, err)
	assert.Empty(t, missing.Rows)
}

func TestWriteTable_FailureKeepsPreviousRows(t *testing.T) {
	s := openInMemory(t)
	original := testTable("NG_TEST", 1001, 2001)
	require.NoError(t, s.WriteTable(original))

	// start_position must be >= 1, so the append fails after the old rows
	// have been deleted inside the transaction.
	bad := testTable("NG_TEST", 5001, 6001)
	bad.Rows[4].StartPosition = 0
	require.Error(t, s.WriteTable(bad))

	got, err := s.ReadTable("NG_TEST")
	require.NoError(t, err)
	assert.Equal(t, original.Rows, got.Rows)

	// The connection is usable again after the rollback.
	replacement := testTable("NG_TEST", 7001, 8001)
	require.NoError(t, s.WriteTable(replacement))
	got, err = s.ReadTable("NG_TEST")
	require.NoError(t, err)
	assert.Equal(t, replacement.Rows, got.Rows)
}

func TestRecordSources_Replaces(t *testing.T) {
	s := openInMemory(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fps := []FileFingerprint{{Path: "/data/seq.fa", Size: 100, ModTime: now}}

	require.NoError(t, s.RecordSources("NG_TEST", fps))
	require.NoError(t, s.RecordSources("NG_TEST", fps))

	fresh, err := s.Fresh("NG_TEST", fps)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestLookupGenomic(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteTable(testTable("NG_B", 1001, 2001)))
	require.NoError(t, s.WriteTable(testTable("NG_A", 1003, 9001)))

	rows, err := s.LookupGenomic("GRCh37", 1003)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "NG_A", rows[0].Name)
	assert.Equal(t, 1, rows[0].Row.StartPosition)
	assert.Equal(t, "NG_B", rows[1].Name)
	assert.Equal(t, 3, rows[1].Row.StartPosition)

	rows, err = s.LookupGenomic("GRCh38", 2002)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c.-1", rows[0].Row.TranscriptPosition)

	rows, err = s.LookupGenomic("GRCh38", 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = s.LookupGenomic("hg19", 1003)
	assert.Error(t, err)
}

func TestFresh(t *testing.T) {
	s := openInMemory(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	fps := []FileFingerprint{
		{Path: "/data/seq.fa", Size: 100, ModTime: now},
		{Path: "/data/seq.json", Size: 20, ModTime: now},
	}

	fresh, err := s.Fresh("NG_TEST", fps)
	require.NoError(t, err)
	assert.False(t, fresh, "nothing recorded yet")

	require.NoError(t, s.RecordSources("NG_TEST", fps))

	fresh, err = s.Fresh("NG_TEST", fps)
	require.NoError(t, err)
	assert.True(t, fresh)

	changed := []FileFingerprint{fps[0], {Path: "/data/seq.json", Size: 21, ModTime: now}}
	fresh, err = s.Fresh("NG_TEST", changed)
	require.NoError(t, err)
	assert.False(t, fresh, "size changed")

	fresh, err = s.Fresh("NG_TEST", fps[:1])
	require.NoError(t, err)
	assert.False(t, fresh, "source set changed")

	fresh, err = s.Fresh("NG_TEST", nil)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestStatFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seq.fa")
	require.NoError(t, os.WriteFile(path, []byte(">X\nACGT\n"), 0644))

	fps, err := StatFiles(path)
	require.NoError(t, err)
	require.Len(t, fps, 1)
	assert.Equal(t, int64(8), fps[0].Size)

	_, err = StatFiles(path, filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
