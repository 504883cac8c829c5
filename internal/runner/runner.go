package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gofrs/flock"

	"curator/internal/config"
	"curator/internal/dump"
	"curator/internal/plex"
	"curator/internal/reconcile"
	"curator/internal/resolve"
	"curator/internal/specfile"
)

// ServerClient is everything the run needs from the media server. Satisfied
// by *plex.Client; split here so tests can drive a run without a server.
type ServerClient interface {
	Library(ctx context.Context, title string) (plex.Library, error)

	resolve.Catalog
	reconcile.CollectionService
	dump.LibraryReader
}

// Options select the optional run phases.
type Options struct {
	DumpCollections bool
	DumpLibraries   bool
	AllFields       bool
	ExcludeEdit     bool
}

// Summary aggregates everything a run did for reporting and exit status.
type Summary struct {
	Warnings []specfile.DuplicateWarning
	Dumps    []string
	Results  []reconcile.Result
	// Errors holds per-library failures that did not stop the run, such as
	// a configured library missing from the server.
	Errors []error
}

// Failed reports whether the process should exit non-zero: any library
// error, or any collection that failed to resolve or reconcile.
func (s *Summary) Failed() bool {
	if len(s.Errors) > 0 {
		return true
	}
	for _, result := range s.Results {
		if result.Failed() {
			return true
		}
	}
	return false
}

// Runner sequences a full run: load config, dump, reconcile, summarize.
type Runner struct {
	cfg    *config.Config
	client ServerClient
	logger *slog.Logger

	reconciler *reconcile.Reconciler
	dumper     *dump.Dumper
	lock       *flock.Flock
}

// New wires a Runner over a connected client. The cache may be nil;
// machineID scopes cache entries to the connected server.
func New(cfg *config.Config, client ServerClient, machineID string, cache resolve.Cache, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	resolverOpts := []resolve.Option{resolve.WithLogger(logger)}
	if cache != nil {
		resolverOpts = append(resolverOpts, resolve.WithCache(cache, machineID))
	}
	resolver := resolve.New(client, resolverOpts...)

	return &Runner{
		cfg:        cfg,
		client:     client,
		logger:     logger.With("component", "runner"),
		reconciler: reconcile.New(client, resolver, logger),
		dumper:     dump.New(client, cfg.Paths.DumpDir, logger),
		lock:       flock.New(cfg.Paths.LockFile),
	}
}

// Run executes one synchronization pass. The returned error is fatal (lock
// held elsewhere, unreadable config); per-collection and per-library
// failures land in the Summary instead.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	locked, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another curator run holds %s", r.cfg.Paths.LockFile)
	}
	defer func() {
		_ = r.lock.Unlock()
	}()

	loaded, err := specfile.Load(r.cfg.Paths.RootConfig)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Warnings: loaded.Warnings}
	for _, warning := range loaded.Warnings {
		r.logger.Warn("duplicate collection ignored",
			"library", warning.Library,
			"collection", warning.Collection,
			"file", warning.File,
			"kept", warning.FirstFile)
	}

	for _, librarySpecs := range loaded.Libraries {
		r.runLibrary(ctx, librarySpecs, opts, summary)
	}
	return summary, nil
}

func (r *Runner) runLibrary(ctx context.Context, specs specfile.LibrarySpecs, opts Options, summary *Summary) {
	library, err := r.client.Library(ctx, specs.Name)
	if err != nil {
		if errors.Is(err, plex.ErrNotFound) {
			err = fmt.Errorf("library %q is configured but does not exist on the server", specs.Name)
		}
		r.logger.Error("library skipped", "library", specs.Name, "error", err)
		summary.Errors = append(summary.Errors, err)
		return
	}

	if opts.DumpCollections {
		if path, err := r.dumper.DumpCollections(ctx, library); err != nil {
			summary.Errors = append(summary.Errors, err)
		} else {
			summary.Dumps = append(summary.Dumps, path)
		}
	}
	if opts.DumpLibraries {
		if path, err := r.dumper.DumpLibrary(ctx, library, opts.AllFields); err != nil {
			summary.Errors = append(summary.Errors, err)
		} else {
			summary.Dumps = append(summary.Dumps, path)
		}
	}

	if opts.ExcludeEdit {
		return
	}
	for _, spec := range specs.Collections {
		result := r.reconciler.Reconcile(ctx, library, spec)
		if result.Err != nil {
			r.logger.Error("collection failed", "library", library.Title, "collection", spec.Name, "error", result.Err)
		}
		summary.Results = append(summary.Results, result)
	}
}
