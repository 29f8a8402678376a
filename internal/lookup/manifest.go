package lookup

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-lookup/internal/refseq"
)

// ManifestEntry names the input files of one reference sequence.
// Relative paths are resolved against the manifest's directory.
type ManifestEntry struct {
	Name     string `yaml:"name"`
	FASTA    string `yaml:"fasta"`
	Metadata string `yaml:"metadata"`
	GRCh37   string `yaml:"grch37"`
	GRCh38   string `yaml:"grch38"`
}

// Manifest lists the reference sequences of a batch run.
type Manifest struct {
	Sequences []ManifestEntry `yaml:"sequences"`
}

// ReadManifest parses a YAML manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range m.Sequences {
		e := &m.Sequences[i]
		if e.FASTA == "" || e.Metadata == "" || e.GRCh37 == "" || e.GRCh38 == "" {
			return nil, fmt.Errorf("manifest %s: entry %d: fasta, metadata, grch37 and grch38 are required", path, i+1)
		}
		e.FASTA = resolve(dir, e.FASTA)
		e.Metadata = resolve(dir, e.Metadata)
		e.GRCh37 = resolve(dir, e.GRCh37)
		e.GRCh38 = resolve(dir, e.GRCh38)
	}
	return &m, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Load reads the files of an entry into a work item.
func (e *ManifestEntry) Load(seq int) (WorkItem, error) {
	rec, err := refseq.LoadRecord(e.FASTA, e.Metadata)
	if err != nil {
		return WorkItem{}, err
	}
	if e.Name != "" {
		rec.Name = e.Name
	}
	g37, err := refseq.ReadAssemblyFile(e.GRCh37)
	if err != nil {
		return WorkItem{}, err
	}
	g38, err := refseq.ReadAssemblyFile(e.GRCh38)
	if err != nil {
		return WorkItem{}, err
	}
	g37.Name, g38.Name = "GRCh37", "GRCh38"
	return WorkItem{Seq: seq, Record: rec, GRCh37: g37, GRCh38: g38}, nil
}
