package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lookup/internal/duckdb"
	"github.com/inodb/vibe-lookup/internal/liftover"
	"github.com/inodb/vibe-lookup/internal/lookup"
	"github.com/inodb/vibe-lookup/internal/refseq"
	"github.com/inodb/vibe-lookup/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <manifest.yaml>",
		Short: "Serve lookup tables over HTTP",
		Long: `Serve the lookup tables of every sequence in a manifest over HTTP.

When a DuckDB path is configured, position queries are answered from the
database. Sequences whose source files are unchanged since they were last
stored are read back instead of being rebuilt.`,
		Example: `  vibe-lookup serve --port 8080 manifest.yaml
  curl localhost:8080/api/v1/transcripts/BRCA1/positions/5000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(args[0],
				intSetting(cmd, "port", "server.port"),
				intSetting(cmd, "workers", "workers"),
				stringSetting(cmd, "duckdb", "duckdb.path"))
		},
	}

	cmd.Flags().Int("port", 8080, "HTTP port (default: server.port)")
	cmd.Flags().Int("workers", 0, "Number of build workers, 0 for one per CPU (default: workers)")
	cmd.Flags().String("duckdb", "", "DuckDB database for stored tables (default: duckdb.path)")

	return cmd
}

func runServe(manifestPath string, port, workers int, dbPath string) error {
	manifest, err := lookup.ReadManifest(manifestPath)
	if err != nil {
		return err
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

	entries, err := loadEntries(manifest, workers, store)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(entries, store)
	srv.SetLogger(logger)

	addr := fmt.Sprintf(":%d", port)
	logger.Info("serving lookup tables", zap.String("addr", addr), zap.Int("sequences", len(entries)))
	return http.ListenAndServe(addr, srv.Handler())
}

// loadEntries returns the served entry of every manifest sequence. store may
// be nil; otherwise fresh tables are read from it and rebuilt ones written to it.
func loadEntries(manifest *lookup.Manifest, workers int, store *duckdb.Store) (map[string]*server.Entry, error) {
	entries := make(map[string]*server.Entry, len(manifest.Sequences))

	var (
		work    []lookup.WorkItem
		mappers []*liftover.Mapper
		sources [][]duckdb.FileFingerprint
	)
	for i := range manifest.Sequences {
		e := &manifest.Sequences[i]
		fps, fresh, err := sourceState(store, e)
		if err != nil {
			return nil, err
		}
		if fresh {
			entry, err := storedEntry(store, e)
			if err != nil {
				return nil, err
			}
			if entry != nil {
				logger.Info("reusing stored table", zap.String("name", e.Name))
				entries[e.Name] = entry
				continue
			}
		}

		item, err := e.Load(len(work))
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i+1, err)
		}
		mapper, err := liftover.FromMetadata(&item.Record.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", item.Record.Name, err)
		}
		work = append(work, item)
		mappers = append(mappers, mapper)
		sources = append(sources, fps)
	}

	items := make(chan lookup.WorkItem, len(work))
	for _, item := range work {
		items <- item
	}
	close(items)

	builder := lookup.NewBuilder()
	builder.SetLogger(logger)

	if err := lookup.OrderedCollect(builder.ParallelBuild(items, workers), func(r lookup.WorkResult) error {
		if r.Err != nil {
			return fmt.Errorf("build %s: %w", r.Name, r.Err)
		}
		if store != nil {
			if err := store.WriteTable(r.Table); err != nil {
				return fmt.Errorf("storing %s: %w", r.Name, err)
			}
			if err := store.RecordSources(r.Name, sources[r.Seq]); err != nil {
				return fmt.Errorf("storing %s sources: %w", r.Name, err)
			}
		}
		entries[r.Name] = &server.Entry{Table: r.Table, Mapper: mappers[r.Seq]}
		return nil
	}); err != nil {
		return nil, err
	}
	return entries, nil
}

// storedEntry reads the table of e back from store. It returns nil when the
// store holds no rows for it.
func storedEntry(store *duckdb.Store, e *lookup.ManifestEntry) (*server.Entry, error) {
	table, err := store.ReadTable(e.Name)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, nil
	}
	meta, err := refseq.ReadMetadataFile(e.Metadata)
	if err != nil {
		return nil, err
	}
	mapper, err := liftover.FromMetadata(&meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	return &server.Entry{Table: table, Mapper: mapper}, nil
}
