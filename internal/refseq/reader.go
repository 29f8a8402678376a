package refseq

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// openMaybeGzip opens path, transparently decompressing .gz files.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	g.Reader.Close()
	return g.f.Close()
}

// ReadFASTAFile reads the first record of a FASTA file.
func ReadFASTAFile(path string) (name, bases string, err error) {
	r, err := openMaybeGzip(path)
	if err != nil {
		return "", "", fmt.Errorf("open FASTA file: %w", err)
	}
	defer r.Close()
	return ReadFASTA(r)
}

// ReadFASTA parses a single-record FASTA stream. The name is the header line
// without the leading '>'; sequence lines are concatenated.
func ReadFASTA(r io.Reader) (name, bases string, err error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var seq strings.Builder
	seenHeader := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if seenHeader {
				// Only the first record is used.
				break
			}
			name = strings.TrimPrefix(line, ">")
			seenHeader = true
			continue
		}
		if !seenHeader {
			return "", "", fmt.Errorf("sequence data before FASTA header")
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return "", "", fmt.Errorf("scan FASTA: %w", err)
	}
	if !seenHeader {
		return "", "", fmt.Errorf("no FASTA header found")
	}
	return name, seq.String(), nil
}

// ReadMetadataFile reads sequence metadata from a JSON file.
func ReadMetadataFile(path string) (Metadata, error) {
	var m Metadata
	if err := readJSONFile(path, &m); err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	return m, nil
}

// ReadAssemblyFile reads a genome-build span from a JSON file with Start and End keys.
func ReadAssemblyFile(path string) (Assembly, error) {
	var a Assembly
	if err := readJSONFile(path, &a); err != nil {
		return Assembly{}, fmt.Errorf("read assembly: %w", err)
	}
	if a.End < a.Start {
		return Assembly{}, fmt.Errorf("read assembly %s: end %d before start %d", path, a.End, a.Start)
	}
	return a, nil
}

func readJSONFile(path string, v any) error {
	r, err := openMaybeGzip(path)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// LoadRecord reads a FASTA file and its JSON metadata into a validated Record.
func LoadRecord(fastaPath, metaPath string) (*Record, error) {
	name, bases, err := ReadFASTAFile(fastaPath)
	if err != nil {
		return nil, err
	}
	meta, err := ReadMetadataFile(metaPath)
	if err != nil {
		return nil, err
	}
	return NewRecord(name, bases, meta)
}
