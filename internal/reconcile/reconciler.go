package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"curator/internal/plex"
	"curator/internal/resolve"
	"curator/internal/specfile"
)

// CollectionService is the remote surface the reconciler mutates.
type CollectionService interface {
	CollectionByName(ctx context.Context, library plex.Library, name string) (plex.Collection, bool, error)
	CollectionItems(ctx context.Context, collection plex.Collection) ([]plex.Item, error)
	CollectionPreferences(ctx context.Context, collection plex.Collection) (sort, mode string, err error)
	CreateCollection(ctx context.Context, library plex.Library, title string, ratingKeys []string) (plex.Collection, error)
	AddItems(ctx context.Context, collection plex.Collection, ratingKeys []string) error
	RemoveItem(ctx context.Context, collection plex.Collection, ratingKey string) error
	MoveItem(ctx context.Context, collection plex.Collection, ratingKey, afterKey string) error
	UpdateCollection(ctx context.Context, library plex.Library, collection plex.Collection, update plex.CollectionUpdate) error
	SetPoster(ctx context.Context, collection plex.Collection, source string) error
	SetArt(ctx context.Context, collection plex.Collection, source string) error
}

// ItemResolver resolves reference strings against a library.
type ItemResolver interface {
	Resolve(ctx context.Context, library plex.Library, reference string) (plex.Item, error)
}

// Reconciler converges remote collection state to declared specs with the
// minimal set of API calls.
type Reconciler struct {
	service  CollectionService
	resolver ItemResolver
	logger   *slog.Logger
}

// New constructs a Reconciler.
func New(service CollectionService, resolver ItemResolver, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		service:  service,
		resolver: resolver,
		logger:   logger.With("component", "reconciler"),
	}
}

// Reconcile converges one collection. None of the remote calls are
// transactional: a failure partway leaves the collection in an intermediate
// but valid state that the next run corrects.
func (r *Reconciler) Reconcile(ctx context.Context, library plex.Library, spec specfile.CollectionSpec) Result {
	result := Result{Library: library.Title, Collection: spec.Name}

	desired, failures, err := r.resolveItems(ctx, library, spec)
	result.Unresolved = failures
	if err != nil {
		result.Err = err
		return result
	}

	collection, exists, err := r.service.CollectionByName(ctx, library, spec.Name)
	if err != nil {
		result.Err = fmt.Errorf("fetch collection %q: %w", spec.Name, err)
		return result
	}

	if !exists {
		if len(desired) == 0 {
			result.Err = fmt.Errorf("collection %q: no references resolved, nothing to create", spec.Name)
			return result
		}
		collection, err = r.service.CreateCollection(ctx, library, spec.Name, ratingKeys(desired))
		if err != nil {
			result.Err = fmt.Errorf("create collection %q: %w", spec.Name, err)
			return result
		}
		result.Created = true
		result.Added = len(desired)
		r.logger.Info("created collection", "library", library.Title, "collection", spec.Name, "items", len(desired))
	} else {
		// All references failing to resolve reads as a broken config, not a
		// request to empty the collection.
		if len(desired) == 0 {
			result.Err = fmt.Errorf("collection %q: no references resolved, keeping existing members", spec.Name)
			return result
		}
		if err := r.convergeMembership(ctx, collection, desired, &result); err != nil {
			result.Err = err
			return result
		}
	}

	if spec.Sort == specfile.SortCustom {
		if err := r.convergeOrder(ctx, collection, desired, &result); err != nil {
			result.Err = err
			return result
		}
	}

	if err := r.convergeAttributes(ctx, library, collection, spec, result.Created, &result); err != nil {
		result.Err = err
		return result
	}

	r.applyArtwork(ctx, collection, spec, &result)
	return result
}

// resolveItems resolves every reference, dropping unresolved and ambiguous
// ones. Remote API failures abort the collection; resolution failures do
// not. Duplicate references to the same item collapse to the first.
func (r *Reconciler) resolveItems(ctx context.Context, library plex.Library, spec specfile.CollectionSpec) ([]plex.Item, []ResolutionFailure, error) {
	desired := make([]plex.Item, 0, len(spec.Items))
	var failures []ResolutionFailure
	seen := map[string]struct{}{}

	for _, entry := range spec.Items {
		reference := entry.Reference()
		item, err := r.resolver.Resolve(ctx, library, reference)
		if err != nil {
			var unresolved *resolve.UnresolvedError
			var ambiguous *resolve.AmbiguousError
			if errors.As(err, &unresolved) || errors.As(err, &ambiguous) {
				r.logger.Warn("reference skipped", "library", library.Title, "collection", spec.Name, "reference", reference, "error", err)
				failures = append(failures, ResolutionFailure{Reference: reference, Err: err})
				continue
			}
			return nil, failures, fmt.Errorf("resolve %q: %w", reference, err)
		}
		if _, dup := seen[item.RatingKey]; dup {
			continue
		}
		seen[item.RatingKey] = struct{}{}
		desired = append(desired, item)
	}
	return desired, failures, nil
}

func (r *Reconciler) convergeMembership(ctx context.Context, collection plex.Collection, desired []plex.Item, result *Result) error {
	current, err := r.service.CollectionItems(ctx, collection)
	if err != nil {
		return fmt.Errorf("list collection %q: %w", collection.Title, err)
	}

	currentKeys := map[string]struct{}{}
	for _, item := range current {
		currentKeys[item.RatingKey] = struct{}{}
	}
	desiredKeys := map[string]struct{}{}
	for _, item := range desired {
		desiredKeys[item.RatingKey] = struct{}{}
	}

	var additions []string
	for _, item := range desired {
		if _, ok := currentKeys[item.RatingKey]; !ok {
			additions = append(additions, item.RatingKey)
		}
	}
	if len(additions) > 0 {
		if err := r.service.AddItems(ctx, collection, additions); err != nil {
			return fmt.Errorf("add items to %q: %w", collection.Title, err)
		}
		result.Added = len(additions)
		r.logger.Info("added items", "collection", collection.Title, "count", len(additions))
	}

	for _, item := range current {
		if _, ok := desiredKeys[item.RatingKey]; ok {
			continue
		}
		if err := r.service.RemoveItem(ctx, collection, item.RatingKey); err != nil {
			return fmt.Errorf("remove %q from %q: %w", item.Title, collection.Title, err)
		}
		result.Removed++
		r.logger.Info("removed item", "collection", collection.Title, "title", item.Title)
	}
	return nil
}

// convergeOrder reissues the declared order once membership has settled.
// Ordering is only enforceable after adds and removes are done.
func (r *Reconciler) convergeOrder(ctx context.Context, collection plex.Collection, desired []plex.Item, result *Result) error {
	current, err := r.service.CollectionItems(ctx, collection)
	if err != nil {
		return fmt.Errorf("list collection %q for ordering: %w", collection.Title, err)
	}
	if orderMatches(current, desired) {
		return nil
	}

	previous := ""
	for _, item := range desired {
		if err := r.service.MoveItem(ctx, collection, item.RatingKey, previous); err != nil {
			return fmt.Errorf("reorder %q in %q: %w", item.Title, collection.Title, err)
		}
		result.Moved++
		previous = item.RatingKey
	}
	r.logger.Info("reordered collection", "collection", collection.Title, "moves", result.Moved)
	return nil
}

func (r *Reconciler) convergeAttributes(ctx context.Context, library plex.Library, collection plex.Collection, spec specfile.CollectionSpec, created bool, result *Result) error {
	update := plex.CollectionUpdate{}
	if spec.TitleSort != "" && (created || collection.TitleSort != spec.TitleSort) {
		update.TitleSort = spec.TitleSort
	}
	if spec.ContentRating != "" && (created || collection.ContentRating != spec.ContentRating) {
		update.ContentRating = spec.ContentRating
	}
	if spec.Summary != "" && (created || collection.Summary != spec.Summary) {
		update.Summary = spec.Summary
	}

	if spec.Sort != "" || spec.Mode != "" {
		currentSort, currentMode := "", ""
		if !created {
			var err error
			currentSort, currentMode, err = r.service.CollectionPreferences(ctx, collection)
			if err != nil {
				return fmt.Errorf("read preferences of %q: %w", collection.Title, err)
			}
		}
		if spec.Sort != "" && spec.Sort != currentSort {
			update.Sort = spec.Sort
		}
		if spec.Mode != "" && spec.Mode != currentMode {
			update.Mode = spec.Mode
		}
	}

	if update.Empty() {
		return nil
	}
	if err := r.service.UpdateCollection(ctx, library, collection, update); err != nil {
		return fmt.Errorf("update attributes of %q: %w", collection.Title, err)
	}
	result.AttributesUpdated = true
	r.logger.Info("updated attributes", "collection", collection.Title)
	return nil
}

// applyArtwork uploads poster and art only for newly created collections;
// re-uploading on every run would pile up duplicate images server-side.
// Artwork failures are warnings, not reconciliation failures.
func (r *Reconciler) applyArtwork(ctx context.Context, collection plex.Collection, spec specfile.CollectionSpec, result *Result) {
	if !result.Created {
		return
	}
	if spec.Poster != "" {
		if err := r.service.SetPoster(ctx, collection, spec.Poster); err != nil {
			r.logger.Warn("poster upload failed", "collection", spec.Name, "error", err)
		} else {
			result.PosterSet = true
		}
	}
	if spec.Art != "" {
		if err := r.service.SetArt(ctx, collection, spec.Art); err != nil {
			r.logger.Warn("art upload failed", "collection", spec.Name, "error", err)
		}
	}
}

func ratingKeys(items []plex.Item) []string {
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = item.RatingKey
	}
	return keys
}

func orderMatches(current, desired []plex.Item) bool {
	if len(current) != len(desired) {
		return false
	}
	for i := range current {
		if current[i].RatingKey != desired[i].RatingKey {
			return false
		}
	}
	return true
}
