package dump

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"curator/internal/plex"
	"curator/internal/specfile"
)

// LibraryReader is the read-only remote surface the dumper needs.
type LibraryReader interface {
	Collections(ctx context.Context, library plex.Library) ([]plex.Collection, error)
	CollectionItems(ctx context.Context, collection plex.Collection) ([]plex.Item, error)
	CollectionPreferences(ctx context.Context, collection plex.Collection) (sort, mode string, err error)
	Items(ctx context.Context, library plex.Library) ([]plex.Item, error)
}

// Dumper serializes remote state into the collection-file schema, so dumps
// can be listed as collection files on later runs.
type Dumper struct {
	reader LibraryReader
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Dumper writing into dir.
func New(reader LibraryReader, dir string, logger *slog.Logger) *Dumper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dumper{
		reader: reader,
		dir:    dir,
		logger: logger.With("component", "dumper"),
		now:    time.Now,
	}
}

// DumpCollections writes every collection of a library to a timestamped
// file and returns its path. Read-only against the server.
func (d *Dumper) DumpCollections(ctx context.Context, library plex.Library) (string, error) {
	collections, err := d.reader.Collections(ctx, library)
	if err != nil {
		return "", fmt.Errorf("list collections of %q: %w", library.Title, err)
	}

	specs := make([]specfile.CollectionSpec, 0, len(collections))
	for _, collection := range collections {
		spec, err := d.collectionSpec(ctx, collection)
		if err != nil {
			return "", err
		}
		specs = append(specs, spec)
	}

	path := d.outputPath(library, "collections")
	if err := d.write(path, specs); err != nil {
		return "", err
	}
	d.logger.Info("dumped collections", "library", library.Title, "collections", len(specs), "path", path)
	return path, nil
}

// DumpLibrary writes a library's whole catalog as one collection block named
// after the library. With allFields each item carries every available
// metadata field instead of just identifying ones.
func (d *Dumper) DumpLibrary(ctx context.Context, library plex.Library, allFields bool) (string, error) {
	items, err := d.reader.Items(ctx, library)
	if err != nil {
		return "", fmt.Errorf("list items of %q: %w", library.Title, err)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("library %q has no items to dump", library.Title)
	}

	entries := make([]specfile.ItemEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, itemEntry(item, allFields))
	}

	spec := specfile.CollectionSpec{Name: library.Title, Items: entries}
	path := d.outputPath(library, "library")
	if err := d.write(path, []specfile.CollectionSpec{spec}); err != nil {
		return "", err
	}
	d.logger.Info("dumped library", "library", library.Title, "items", len(items), "path", path, "all_fields", allFields)
	return path, nil
}

func (d *Dumper) collectionSpec(ctx context.Context, collection plex.Collection) (specfile.CollectionSpec, error) {
	items, err := d.reader.CollectionItems(ctx, collection)
	if err != nil {
		return specfile.CollectionSpec{}, fmt.Errorf("list collection %q: %w", collection.Title, err)
	}
	sortPref, modePref, err := d.reader.CollectionPreferences(ctx, collection)
	if err != nil {
		return specfile.CollectionSpec{}, fmt.Errorf("read preferences of %q: %w", collection.Title, err)
	}

	entries := make([]specfile.ItemEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, itemEntry(item, false))
	}
	return specfile.CollectionSpec{
		Name:          collection.Title,
		Items:         entries,
		Sort:          sortPref,
		Mode:          modePref,
		TitleSort:     collection.TitleSort,
		ContentRating: collection.ContentRating,
		Summary:       collection.Summary,
	}, nil
}

func (d *Dumper) write(path string, specs []specfile.CollectionSpec) error {
	data, err := specfile.EncodeCollections(specs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dump %s: %w", path, err)
	}
	return nil
}

func (d *Dumper) outputPath(library plex.Library, kind string) string {
	stamp := d.now().UTC().Format("20060102-150405")
	name := fmt.Sprintf("%s-%s-%s.yml", slugify(library.Title), kind, stamp)
	return filepath.Join(d.dir, name)
}

func slugify(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// itemEntry builds the strongest re-resolvable reference for an item: an
// external id when the server knows one, otherwise a year-hinted title.
func itemEntry(item plex.Item, allFields bool) specfile.ItemEntry {
	entry := specfile.ItemEntry{
		Title: item.Title,
		Year:  item.Year,
	}
	for _, guid := range item.GUIDs {
		database, id, ok := strings.Cut(guid, "://")
		if !ok {
			continue
		}
		switch database {
		case "tmdb":
			entry.TMDB = id
		case "imdb":
			entry.IMDB = id
		case "tvdb":
			entry.TVDB = id
		}
	}
	if allFields {
		entry.GUID = item.GUID
		entry.ContentRating = item.ContentRating
		entry.Summary = item.Summary
		entry.AddedAt = item.AddedAt
	}
	return entry
}
