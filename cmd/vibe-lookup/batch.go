package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lookup/internal/duckdb"
	"github.com/inodb/vibe-lookup/internal/lookup"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Build lookup tables for every sequence in a manifest, in parallel",
		Long: `Build lookup tables for every sequence listed in a YAML manifest:

  sequences:
    - name: BRCA1
      fasta: NG_005905.fa
      metadata: NG_005905.json
      grch37: NG_005905.grch37.json
      grch38: NG_005905.grch38.json

Each table is written to <out-dir>/<name>.tsv. When a DuckDB path is configured,
tables are stored there too and sequences whose source files are unchanged since
the last run are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(args[0],
				stringSetting(cmd, "out-dir", "output.dir"),
				stringSetting(cmd, "duckdb", "duckdb.path"),
				intSetting(cmd, "workers", "workers"))
		},
	}

	cmd.Flags().String("out-dir", ".", "Directory for TSV output (default: output.dir)")
	cmd.Flags().String("duckdb", "", "DuckDB database for storing tables (default: duckdb.path)")
	cmd.Flags().Int("workers", 0, "Number of build workers, 0 for one per CPU (default: workers)")

	return cmd
}

func runBatch(manifestPath, outDir, dbPath string, workers int) error {
	manifest, err := lookup.ReadManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var store *duckdb.Store
	if dbPath != "" {
		store, err = duckdb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		store.SetLogger(logger)
	}

	items := make(chan lookup.WorkItem, len(manifest.Sequences))
	var (
		mu      sync.Mutex
		sources = make(map[string][]duckdb.FileFingerprint)
		loadErr error
	)

	go func() {
		defer close(items)
		seq := 0
		for i := range manifest.Sequences {
			e := &manifest.Sequences[i]
			fps, fresh, err := sourceState(store, e)
			if err != nil {
				loadErr = err
				return
			}
			if fresh {
				logger.Info("skipping unchanged sequence", zap.String("name", e.Name))
				continue
			}
			item, err := e.Load(seq)
			if err != nil {
				loadErr = fmt.Errorf("manifest entry %d: %w", i+1, err)
				return
			}
			mu.Lock()
			sources[item.Record.Name] = fps
			mu.Unlock()
			items <- item
			seq++
		}
	}()

	builder := lookup.NewBuilder()
	builder.SetLogger(logger)
	results := builder.ParallelBuild(items, workers)

	built := 0
	if err := lookup.OrderedCollect(results, func(r lookup.WorkResult) error {
		if r.Err != nil {
			return fmt.Errorf("build %s: %w", r.Name, r.Err)
		}
		path := filepath.Join(outDir, unsafeFileChars.ReplaceAllString(r.Name, "_")+".tsv")
		if err := writeTSV(path, r.Table); err != nil {
			return err
		}
		if store != nil {
			if err := store.WriteTable(r.Table); err != nil {
				return fmt.Errorf("storing %s: %w", r.Name, err)
			}
			mu.Lock()
			fps := sources[r.Name]
			mu.Unlock()
			if err := store.RecordSources(r.Name, fps); err != nil {
				return fmt.Errorf("storing %s sources: %w", r.Name, err)
			}
		}
		built++
		logger.Info("wrote lookup table", zap.String("name", r.Name), zap.String("path", path))
		return nil
	}); err != nil {
		return err
	}

	if loadErr != nil {
		return loadErr
	}

	logger.Info("batch complete", zap.Int("built", built), zap.Int("sequences", len(manifest.Sequences)))
	return nil
}

// sourceState fingerprints the input files of e and reports whether store
// already holds a table built from exactly those files. Unnamed entries are
// never fresh since their table name is only known after loading.
func sourceState(store *duckdb.Store, e *lookup.ManifestEntry) ([]duckdb.FileFingerprint, bool, error) {
	fps, err := duckdb.StatFiles(e.FASTA, e.Metadata, e.GRCh37, e.GRCh38)
	if err != nil {
		return nil, false, err
	}
	if store == nil || e.Name == "" {
		return fps, false, nil
	}
	fresh, err := store.Fresh(e.Name, fps)
	if err != nil {
		return nil, false, err
	}
	return fps, fresh, nil
}
