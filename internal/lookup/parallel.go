package lookup

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/vibe-lookup/internal/refseq"
)

// WorkItem holds a loaded reference sequence ready for table building.
type WorkItem struct {
	Seq    int
	Record *refseq.Record
	GRCh37 refseq.Assembly
	GRCh38 refseq.Assembly
}

// WorkResult holds the table built for a single reference sequence.
type WorkResult struct {
	Seq   int
	Name  string
	Table *Table
	Err   error
}

// Builder builds lookup tables on a pool of workers.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a builder that logs nothing.
func NewBuilder() *Builder {
	return &Builder{logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// ParallelBuild builds tables for work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (b *Builder) ParallelBuild(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				start := time.Now()
				table, err := BuildFromAssemblies(item.Record, item.GRCh37, item.GRCh38)
				if err == nil {
					b.logger.Debug("built lookup table",
						zap.String("name", item.Record.Name),
						zap.Int("rows", len(table.Rows)),
						zap.Duration("elapsed", time.Since(start)))
				}
				results <- WorkResult{
					Seq:   item.Seq,
					Name:  item.Record.Name,
					Table: table,
					Err:   err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
