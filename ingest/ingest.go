// Package ingest runs one course structure sync: fetch the document from the
// analytics API, flatten its blocks into modules and replace the module
// table with them.
package ingest

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"coursesync/db"
	"coursesync/model"
	"coursesync/plugins/analytics"
)

// Fetcher retrieves the course structure document.
type Fetcher interface {
	FetchStructure(ctx context.Context) (analytics.Document, error)
}

// OpenStoreFunc connects to the destination store. It is only called once
// the document has been fetched and validated.
type OpenStoreFunc func(ctx context.Context) (db.Store, error)

type Runner struct {
	Fetcher   Fetcher
	OpenStore OpenStoreFunc
	// Out receives one line per module as it is staged.
	Out io.Writer
	Log *zap.SugaredLogger
}

type Result struct {
	Modules int
	Elapsed time.Duration
}

// Run executes the sync. Any failure aborts the run: nothing is retried and
// a failed load leaves no rows from this run behind.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := r.logger()

	log.Infow("fetching course structure")
	doc, err := r.Fetcher.FetchStructure(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch course structure: %w", err)
	}

	entries, err := analytics.ExtractModules(doc)
	if err != nil {
		return nil, fmt.Errorf("extract modules: %w", err)
	}
	log.Infow("course structure fetched", "blocks", len(entries))
	warnOversized(log, entries)

	store, err := r.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnw("failed to close store", "error", err)
		}
	}()

	n, err := store.ReplaceModules(ctx, entries, r.printEntry)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}

	// the batch is committed; a failed read-back only costs the summary
	rows := -1
	if modules, err := store.ListModules(ctx); err != nil {
		log.Warnw("failed to read back module table", "error", err)
	} else {
		rows = len(modules)
	}

	result := &Result{Modules: n, Elapsed: time.Since(start)}
	log.Infow("sync completed", "modules", result.Modules, "rows", rows, "elapsed", result.Elapsed)
	return result, nil
}

// FormatModuleLine renders the operator line for e: the name left-aligned in
// a 128-character column followed by the id.
func FormatModuleLine(e model.ModuleEntry) string {
	return fmt.Sprintf("%-128s%s", e.Name, e.ID)
}

func (r *Runner) printEntry(e model.ModuleEntry) {
	if r.Out == nil {
		return
	}
	_, _ = fmt.Fprintln(r.Out, FormatModuleLine(e))
}

func (r *Runner) logger() *zap.SugaredLogger {
	if r.Log == nil {
		return zap.NewNop().Sugar()
	}
	return r.Log
}

// Values longer than the column width are still sent; whether they are
// rejected or truncated is up to the database.
func warnOversized(log *zap.SugaredLogger, entries []model.ModuleEntry) {
	for _, e := range entries {
		if utf8.RuneCountInString(e.ID) > model.MaxFieldLength || utf8.RuneCountInString(e.Name) > model.MaxFieldLength {
			log.Warnw("module value exceeds column width", "module_id", e.ID, "limit", model.MaxFieldLength)
		}
	}
}
