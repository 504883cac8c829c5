package resolve

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"golang.org/x/text/cases"

	"curator/internal/plex"
)

// Catalog is the read-only remote lookup surface the resolver needs.
type Catalog interface {
	FindByGUID(ctx context.Context, library plex.Library, guid string) ([]plex.Item, error)
	SearchByTitle(ctx context.Context, library plex.Library, title string) ([]plex.Item, error)
	ItemByRatingKey(ctx context.Context, ratingKey string) (plex.Item, error)
}

// Cache stores previously resolved references keyed by server, library, and
// reference string. Implementations may be nil-safe no-ops.
type Cache interface {
	Get(machineID, library, reference string) (string, bool, error)
	Put(machineID, library, reference, ratingKey string) error
	Delete(machineID, library, reference string) error
}

// Resolver maps reference strings to catalog items.
type Resolver struct {
	catalog   Catalog
	cache     Cache
	machineID string
	logger    *slog.Logger

	fold cases.Caser
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache enables the resolution cache, scoped to the given server.
func WithCache(cache Cache, machineID string) Option {
	return func(r *Resolver) {
		r.cache = cache
		r.machineID = machineID
	}
}

// WithLogger attaches a logger for cache and fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New constructs a Resolver over the given catalog.
func New(catalog Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: catalog,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		fold:    cases.Fold(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up one reference in one library. Failures are per-item:
// *UnresolvedError or *AmbiguousError, never fatal to a run. Remote API
// failures pass through untouched.
func (r *Resolver) Resolve(ctx context.Context, library plex.Library, rawRef string) (plex.Item, error) {
	ref, err := ParseReference(rawRef)
	if err != nil {
		return plex.Item{}, &UnresolvedError{Library: library.Title, Reference: rawRef, Reason: err.Error()}
	}

	if item, ok, err := r.cachedItem(ctx, library, ref); err != nil {
		return plex.Item{}, err
	} else if ok {
		return item, nil
	}

	var item plex.Item
	switch ref.Kind {
	case KindGUID:
		item, err = r.resolveGUID(ctx, library, ref)
	case KindExternalID:
		item, err = r.resolveExternalID(ctx, library, ref)
	default:
		item, err = r.resolveTitle(ctx, library, ref)
	}
	if err != nil {
		return plex.Item{}, err
	}

	r.remember(library, ref, item)
	return item, nil
}

// resolveGUID performs a direct lookup by internal identifier. It never
// falls back to a title search.
func (r *Resolver) resolveGUID(ctx context.Context, library plex.Library, ref Reference) (plex.Item, error) {
	matches, err := r.catalog.FindByGUID(ctx, library, ref.GUID)
	if err != nil {
		return plex.Item{}, err
	}
	if len(matches) == 0 {
		return plex.Item{}, &UnresolvedError{Library: library.Title, Reference: ref.Raw}
	}
	return matches[0], nil
}

func (r *Resolver) resolveExternalID(ctx context.Context, library plex.Library, ref Reference) (plex.Item, error) {
	guid := ref.ExternalGUID()
	matches, err := r.catalog.FindByGUID(ctx, library, guid)
	if err != nil {
		return plex.Item{}, err
	}
	if len(matches) > 0 {
		return matches[0], nil
	}

	// Some agents don't index external guids for filtering; fall back to a
	// title search and match against each candidate's guid list.
	if ref.Title != "" {
		r.logger.Debug("external id filter empty, trying title search", "component", "resolver", "reference", ref.Raw)
		candidates, err := r.catalog.SearchByTitle(ctx, library, ref.Title)
		if err != nil {
			return plex.Item{}, err
		}
		for _, candidate := range candidates {
			for _, g := range candidate.GUIDs {
				if g == guid {
					return candidate, nil
				}
			}
		}
	}
	return plex.Item{}, &UnresolvedError{Library: library.Title, Reference: ref.Raw, Reason: "no item carries " + guid}
}

func (r *Resolver) resolveTitle(ctx context.Context, library plex.Library, ref Reference) (plex.Item, error) {
	candidates, err := r.catalog.SearchByTitle(ctx, library, ref.Title)
	if err != nil {
		return plex.Item{}, err
	}

	// The server matches substrings; keep exact case-insensitive matches only.
	folded := r.fold.String(ref.Title)
	exact := candidates[:0]
	for _, candidate := range candidates {
		if r.fold.String(candidate.Title) == folded {
			exact = append(exact, candidate)
		}
	}

	if ref.Year != 0 {
		byYear := exact[:0]
		for _, candidate := range exact {
			if candidate.Year == ref.Year {
				byYear = append(byYear, candidate)
			}
		}
		exact = byYear
	}

	switch len(exact) {
	case 0:
		return plex.Item{}, &UnresolvedError{Library: library.Title, Reference: ref.Raw}
	case 1:
		return exact[0], nil
	default:
		return plex.Item{}, &AmbiguousError{Library: library.Title, Reference: ref.Raw, Matches: exact}
	}
}

func (r *Resolver) cachedItem(ctx context.Context, library plex.Library, ref Reference) (plex.Item, bool, error) {
	if r.cache == nil || r.machineID == "" {
		return plex.Item{}, false, nil
	}
	ratingKey, ok, err := r.cache.Get(r.machineID, library.Title, ref.Raw)
	if err != nil {
		r.logger.Warn("resolution cache read failed", "component", "resolver", "error", err)
		return plex.Item{}, false, nil
	}
	if !ok {
		return plex.Item{}, false, nil
	}

	item, err := r.catalog.ItemByRatingKey(ctx, ratingKey)
	if err != nil {
		if errors.Is(err, plex.ErrNotFound) {
			// Stale entry; the item was deleted or re-keyed.
			_ = r.cache.Delete(r.machineID, library.Title, ref.Raw)
			return plex.Item{}, false, nil
		}
		return plex.Item{}, false, err
	}
	return item, true, nil
}

func (r *Resolver) remember(library plex.Library, ref Reference, item plex.Item) {
	if r.cache == nil || r.machineID == "" {
		return
	}
	if err := r.cache.Put(r.machineID, library.Title, ref.Raw, item.RatingKey); err != nil {
		r.logger.Warn("resolution cache write failed", "component", "resolver", "error", err)
	}
}
