package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lookup/internal/duckdb"
	"github.com/inodb/vibe-lookup/internal/lookup"
	"github.com/inodb/vibe-lookup/internal/output"
	"github.com/inodb/vibe-lookup/internal/refseq"
)

func newLookupCmd() *cobra.Command {
	var (
		fastaPath  string
		metaPath   string
		grch37Path string
		grch38Path string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Build the per-base lookup table of one reference sequence",
		Example: `  vibe-lookup lookup --fasta NG_007110.fa --metadata NG_007110.json \
    --grch37 NG_007110.grch37.json --grch38 NG_007110.grch38.json -o NG_007110.tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for flag, v := range map[string]string{
				"fasta": fastaPath, "metadata": metaPath, "grch37": grch37Path, "grch38": grch38Path,
			} {
				if v == "" {
					return &usageError{fmt.Errorf("--%s is required", flag)}
				}
			}

			entry := lookup.ManifestEntry{FASTA: fastaPath, Metadata: metaPath, GRCh37: grch37Path, GRCh38: grch38Path}
			item, err := entry.Load(0)
			if err != nil {
				return err
			}
			logger.Info("loaded reference sequence",
				zap.String("name", item.Record.Name),
				zap.Int("length", item.Record.Len()),
				zap.Int("utr5_len", item.Record.Metadata.UTR5Len()),
				zap.Int("utr3_len", item.Record.Metadata.UTR3Len()),
				zap.Stringer("grch37", item.GRCh37),
				zap.Stringer("grch38", item.GRCh38))

			table, err := lookup.BuildFromAssemblies(item.Record, item.GRCh37, item.GRCh38)
			if err != nil {
				return fmt.Errorf("build lookup table: %w", err)
			}

			if err := writeTSV(outputFile, table); err != nil {
				return err
			}

			if path := stringSetting(cmd, "duckdb", "duckdb.path"); path != "" {
				fps, err := duckdb.StatFiles(fastaPath, metaPath, grch37Path, grch38Path)
				if err != nil {
					return err
				}
				return storeTables(path, []storedTable{{table: table, sources: fps}})
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fastaPath, "fasta", "", "Reference sequence FASTA file")
	cmd.Flags().StringVar(&metaPath, "metadata", "", "Reference sequence JSON metadata")
	cmd.Flags().StringVar(&grch37Path, "grch37", "", "GRCh37 span JSON (Start, End)")
	cmd.Flags().StringVar(&grch38Path, "grch38", "", "GRCh38 span JSON (Start, End)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output TSV file (default: stdout)")
	cmd.Flags().String("duckdb", "", "Also store the table in this DuckDB database (default: duckdb.path)")

	return cmd
}

// stringSetting returns the flag value when set on the command line, else the config value.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	return viper.GetString(key)
}

// intSetting returns the flag value when set on the command line, else the config value.
func intSetting(cmd *cobra.Command, flag, key string) int {
	if cmd.Flags().Changed(flag) {
		n, _ := cmd.Flags().GetInt(flag)
		return n
	}
	return viper.GetInt(key)
}

// writeTSV writes a table to path, or to stdout when path is empty.
func writeTSV(path string, t *lookup.Table) error {
	if path == "" {
		if err := output.NewTabWriter(os.Stdout).WriteTable(t); err != nil {
			return fmt.Errorf("writing %s: %w", t.Name, err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := output.NewTabWriter(f).WriteTable(t); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", t.Name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

type storedTable struct {
	table   *lookup.Table
	sources []duckdb.FileFingerprint
}

func storeTables(path string, tables []storedTable) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	store.SetLogger(logger)

	for _, st := range tables {
		if err := store.WriteTable(st.table); err != nil {
			return fmt.Errorf("storing %s: %w", st.table.Name, err)
		}
		if err := store.RecordSources(st.table.Name, st.sources); err != nil {
			return fmt.Errorf("storing %s sources: %w", st.table.Name, err)
		}
	}
	return nil
}

// loadRecord is shared by commands that take a single FASTA and metadata file.
func loadRecord(fastaPath, metaPath string) (*refseq.Record, error) {
	if fastaPath == "" || metaPath == "" {
		return nil, &usageError{fmt.Errorf("--fasta and --metadata are required")}
	}
	return refseq.LoadRecord(fastaPath, metaPath)
}
