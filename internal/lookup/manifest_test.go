package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeSequenceFiles(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, "data/seq.fa", ">NG_TEST.1 test\nCCCATGTAAG\n")
	writeFile(t, dir, "data/seq.json",
		`{"ExonStarts": [1], "ExonEnds": [10], "CDSStarts": [4], "CDSEnds": [9]}`)
	writeFile(t, dir, "data/g37.json", `{"Chrom": "17", "Start": 1001, "End": 1010}`)
	writeFile(t, dir, "data/g38.json", `{"Chrom": "17", "Start": 2001, "End": 2010}`)
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	writeSequenceFiles(t, dir)
	path := writeFile(t, dir, "manifest.yaml", `sequences:
  - name: TEST
    fasta: data/seq.fa
    metadata: data/seq.json
    grch37: data/g37.json
    grch38: data/g38.json
`)

	m, err := ReadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Sequences, 1)

	e := m.Sequences[0]
	assert.Equal(t, filepath.Join(dir, "data/seq.fa"), e.FASTA)
	assert.Equal(t, filepath.Join(dir, "data/g38.json"), e.GRCh38)

	item, err := e.Load(3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Seq)
	assert.Equal(t, "TEST", item.Record.Name)
	assert.Equal(t, "GRCh37", item.GRCh37.Name)
	assert.Equal(t, int64(2001), item.GRCh38.Start)

	table, err := BuildFromAssemblies(item.Record, item.GRCh37, item.GRCh38)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 10)
}

func TestManifestEntry_LoadKeepsFASTAName(t *testing.T) {
	dir := t.TempDir()
	writeSequenceFiles(t, dir)
	e := ManifestEntry{
		FASTA:    filepath.Join(dir, "data/seq.fa"),
		Metadata: filepath.Join(dir, "data/seq.json"),
		GRCh37:   filepath.Join(dir, "data/g37.json"),
		GRCh38:   filepath.Join(dir, "data/g38.json"),
	}
	item, err := e.Load(0)
	require.NoError(t, err)
	assert.Equal(t, "NG_TEST.1 test", item.Record.Name)
}

func TestReadManifest_MissingField(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "manifest.yaml", `sequences:
  - fasta: seq.fa
    metadata: seq.json
    grch37: g37.json
`)
	_, err := ReadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")
}

func TestReadManifest_NotFound(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
