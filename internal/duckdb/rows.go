package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lookup/internal/lookup"
)

// WriteTable replaces the stored rows of t.Name with the rows of t using the
// Appender API. The delete and the append share one transaction, so a failed
// write leaves the previous rows in place.
func (s *Store) WriteTable(t *lookup.Table) error {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := appendTable(ctx, conn, t); err != nil {
		if _, rbErr := conn.ExecContext(ctx, "ROLLBACK"); rbErr != nil {
			s.logger.Warn("rollback failed", zap.String("name", t.Name), zap.Error(rbErr))
		}
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit lookup rows: %w", err)
	}

	s.logger.Info("stored lookup table", zap.String("name", t.Name), zap.Int("rows", len(t.Rows)))
	return nil
}

// appendTable deletes the rows of t.Name and appends the rows of t on conn.
func appendTable(ctx context.Context, conn *sql.Conn, t *lookup.Table) error {
	if _, err := conn.ExecContext(ctx, "DELETE FROM lookup_rows WHERE name=?", t.Name); err != nil {
		return fmt.Errorf("delete lookup rows: %w", err)
	}
	if len(t.Rows) == 0 {
		return nil
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "lookup_rows")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for i := range t.Rows {
		r := &t.Rows[i]
		if err := appender.AppendRow(
			t.Name, int32(r.StartPosition), int32(r.ATGPosition), r.TranscriptPosition,
			r.BuildAPosition, r.BuildBPosition, r.Allele,
			r.ExonAnnotation, r.CDSAnnotation,
		); err != nil {
			appender.Close()
			return fmt.Errorf("append lookup row: %w", err)
		}
	}

	// Close flushes the remaining rows.
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush lookup rows: %w", err)
	}
	return nil
}

const rowColumns = `start_position, atg_position, transcript_position,
		grch37_position, grch38_position, allele, exon_annotation, cds_annotation`

// LookupPosition returns the row at a 1-based reference position, or nil if absent.
func (s *Store) LookupPosition(name string, pos int) (*lookup.Row, error) {
	rows, err := s.queryRows(`SELECT `+rowColumns+` FROM lookup_rows
		WHERE name=? AND start_position=?`, name, pos)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// LookupGenomic returns the rows whose position in the given build equals pos.
// build must be "GRCh37" or "GRCh38".
func (s *Store) LookupGenomic(build string, pos int64) ([]NamedRow, error) {
	var col string
	switch build {
	case "GRCh37":
		col = "grch37_position"
	case "GRCh38":
		col = "grch38_position"
	default:
		return nil, fmt.Errorf("unknown build %q", build)
	}

	rs, err := s.db.Query(`SELECT name, `+rowColumns+` FROM lookup_rows
		WHERE `+col+`=? ORDER BY name`, pos)
	if err != nil {
		return nil, fmt.Errorf("query genomic position: %w", err)
	}
	defer rs.Close()

	var out []NamedRow
	for rs.Next() {
		var nr NamedRow
		r := &nr.Row
		if err := rs.Scan(&nr.Name, &r.StartPosition, &r.ATGPosition, &r.TranscriptPosition,
			&r.BuildAPosition, &r.BuildBPosition, &r.Allele,
			&r.ExonAnnotation, &r.CDSAnnotation); err != nil {
			return nil, fmt.Errorf("scan lookup row: %w", err)
		}
		out = append(out, nr)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup rows: %w", err)
	}
	return out, nil
}

// NamedRow is a lookup row with the name of its sequence.
type NamedRow struct {
	Name string
	Row  lookup.Row
}

// ReadTable loads every stored row of the named sequence in position order.
func (s *Store) ReadTable(name string) (*lookup.Table, error) {
	rows, err := s.queryRows(`SELECT `+rowColumns+` FROM lookup_rows
		WHERE name=? ORDER BY start_position`, name)
	if err != nil {
		return nil, err
	}
	return &lookup.Table{Name: name, Rows: rows}, nil
}

func (s *Store) queryRows(query string, args ...any) ([]lookup.Row, error) {
	rs, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lookup rows: %w", err)
	}
	defer rs.Close()

	var out []lookup.Row
	for rs.Next() {
		var r lookup.Row
		if err := rs.Scan(&r.StartPosition, &r.ATGPosition, &r.TranscriptPosition,
			&r.BuildAPosition, &r.BuildBPosition, &r.Allele,
			&r.ExonAnnotation, &r.CDSAnnotation); err != nil {
			return nil, fmt.Errorf("scan lookup row: %w", err)
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup rows: %w", err)
	}
	return out, nil
}
