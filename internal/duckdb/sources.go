package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// StatFiles fingerprints every path.
func StatFiles(paths ...string) ([]FileFingerprint, error) {
	fps := make([]FileFingerprint, 0, len(paths))
	for _, p := range paths {
		fp, err := StatFile(p)
		if err != nil {
			return nil, err
		}
		fps = append(fps, fp)
	}
	return fps, nil
}

// RecordSources replaces the source fingerprints stored for a sequence.
func (s *Store) RecordSources(name string, fps []FileFingerprint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM table_sources WHERE name=?", name); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete sources: %w", err)
	}
	for _, fp := range fps {
		if _, err := tx.Exec("INSERT INTO table_sources VALUES (?, ?, ?, ?)",
			name, fp.Path, fp.Size, fp.ModTime.UTC().Format(time.RFC3339Nano)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert source: %w", err)
		}
	}
	return tx.Commit()
}

// Fresh reports whether the stored table of name was built from exactly the
// given source files, unchanged since.
func (s *Store) Fresh(name string, fps []FileFingerprint) (bool, error) {
	if len(fps) == 0 {
		return false, nil
	}
	rs, err := s.db.Query("SELECT path, size, modtime FROM table_sources WHERE name=?", name)
	if err != nil {
		return false, fmt.Errorf("query sources: %w", err)
	}
	defer rs.Close()

	stored := make(map[string]string)
	for rs.Next() {
		var path, modtime string
		var size int64
		if err := rs.Scan(&path, &size, &modtime); err != nil {
			return false, fmt.Errorf("scan source: %w", err)
		}
		stored[path] = fmt.Sprintf("%d|%s", size, modtime)
	}
	if err := rs.Err(); err != nil {
		return false, err
	}

	if len(stored) != len(fps) {
		return false, nil
	}
	for _, fp := range fps {
		if stored[fp.Path] != fmt.Sprintf("%d|%s", fp.Size, fp.ModTime.UTC().Format(time.RFC3339Nano)) {
			return false, nil
		}
	}
	return true, nil
}
