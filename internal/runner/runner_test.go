package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"curator/internal/config"
	"curator/internal/plex"
)

type fakeServer struct {
	libraries   map[string]plex.Library
	items       map[string][]plex.Item       // library title -> catalog
	collections map[string]map[string]*coll  // library title -> name -> collection
	nextKey     int
}

type coll struct {
	meta  plex.Collection
	items []plex.Item
	sort  string
	mode  string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		libraries:   map[string]plex.Library{},
		items:       map[string][]plex.Item{},
		collections: map[string]map[string]*coll{},
		nextKey:     500,
	}
}

func (s *fakeServer) addLibrary(title, typ string, items ...plex.Item) plex.Library {
	lib := plex.Library{Key: fmt.Sprint(len(s.libraries) + 1), Title: title, Type: typ}
	s.libraries[title] = lib
	s.items[title] = items
	s.collections[title] = map[string]*coll{}
	return lib
}

func (s *fakeServer) Library(_ context.Context, title string) (plex.Library, error) {
	lib, ok := s.libraries[title]
	if !ok {
		return plex.Library{}, fmt.Errorf("library %q: %w", title, plex.ErrNotFound)
	}
	return lib, nil
}

func (s *fakeServer) FindByGUID(_ context.Context, library plex.Library, guid string) ([]plex.Item, error) {
	var out []plex.Item
	for _, item := range s.items[library.Title] {
		if item.GUID == guid {
			out = append(out, item)
			continue
		}
		for _, g := range item.GUIDs {
			if g == guid {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeServer) SearchByTitle(_ context.Context, library plex.Library, title string) ([]plex.Item, error) {
	var out []plex.Item
	for _, item := range s.items[library.Title] {
		if strings.EqualFold(item.Title, title) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fakeServer) ItemByRatingKey(_ context.Context, ratingKey string) (plex.Item, error) {
	for _, items := range s.items {
		for _, item := range items {
			if item.RatingKey == ratingKey {
				return item, nil
			}
		}
	}
	return plex.Item{}, fmt.Errorf("item %s: %w", ratingKey, plex.ErrNotFound)
}

func (s *fakeServer) Items(_ context.Context, library plex.Library) ([]plex.Item, error) {
	return s.items[library.Title], nil
}

func (s *fakeServer) Collections(_ context.Context, library plex.Library) ([]plex.Collection, error) {
	var out []plex.Collection
	for _, c := range s.collections[library.Title] {
		out = append(out, c.meta)
	}
	return out, nil
}

func (s *fakeServer) CollectionByName(_ context.Context, library plex.Library, name string) (plex.Collection, bool, error) {
	c, ok := s.collections[library.Title][name]
	if !ok {
		return plex.Collection{}, false, nil
	}
	return c.meta, true, nil
}

func (s *fakeServer) collByKey(ratingKey string) *coll {
	for _, byName := range s.collections {
		for _, c := range byName {
			if c.meta.RatingKey == ratingKey {
				return c
			}
		}
	}
	return nil
}

func (s *fakeServer) CollectionItems(_ context.Context, collection plex.Collection) ([]plex.Item, error) {
	c := s.collByKey(collection.RatingKey)
	if c == nil {
		return nil, plex.ErrNotFound
	}
	return append([]plex.Item{}, c.items...), nil
}

func (s *fakeServer) CollectionPreferences(_ context.Context, collection plex.Collection) (string, string, error) {
	c := s.collByKey(collection.RatingKey)
	if c == nil {
		return "", "", plex.ErrNotFound
	}
	return c.sort, c.mode, nil
}

func (s *fakeServer) CreateCollection(_ context.Context, library plex.Library, title string, ratingKeys []string) (plex.Collection, error) {
	s.nextKey++
	c := &coll{meta: plex.Collection{RatingKey: fmt.Sprint(s.nextKey), Title: title}}
	for _, key := range ratingKeys {
		item, _ := s.ItemByRatingKey(context.Background(), key)
		c.items = append(c.items, item)
	}
	s.collections[library.Title][title] = c
	return c.meta, nil
}

func (s *fakeServer) AddItems(_ context.Context, collection plex.Collection, ratingKeys []string) error {
	c := s.collByKey(collection.RatingKey)
	for _, key := range ratingKeys {
		item, _ := s.ItemByRatingKey(context.Background(), key)
		c.items = append(c.items, item)
	}
	return nil
}

func (s *fakeServer) RemoveItem(_ context.Context, collection plex.Collection, ratingKey string) error {
	c := s.collByKey(collection.RatingKey)
	kept := c.items[:0]
	for _, item := range c.items {
		if item.RatingKey != ratingKey {
			kept = append(kept, item)
		}
	}
	c.items = kept
	return nil
}

func (s *fakeServer) MoveItem(_ context.Context, _ plex.Collection, _, _ string) error {
	return nil
}

func (s *fakeServer) UpdateCollection(_ context.Context, _ plex.Library, collection plex.Collection, update plex.CollectionUpdate) error {
	c := s.collByKey(collection.RatingKey)
	if update.Sort != "" {
		c.sort = update.Sort
	}
	if update.Mode != "" {
		c.mode = update.Mode
	}
	return nil
}

func (s *fakeServer) SetPoster(_ context.Context, _ plex.Collection, _ string) error { return nil }
func (s *fakeServer) SetArt(_ context.Context, _ plex.Collection, _ string) error   { return nil }

func testConfig(t *testing.T, rootContent string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(rootPath, []byte(rootContent), 0o644); err != nil {
		t.Fatalf("write root config: %v", err)
	}
	cfg := config.Default()
	cfg.Paths.RootConfig = rootPath
	cfg.Paths.DumpDir = filepath.Join(dir, "dumps")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.LockFile = filepath.Join(dir, "curator.lock")
	return &cfg
}

func writeCollectionFile(t *testing.T, cfg *config.Config, name, content string) {
	t.Helper()
	path := filepath.Join(filepath.Dir(cfg.Paths.RootConfig), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const moviesRoot = `
libraries:
  Movies:
    collection_files:
      - file: movies.yml
`

func alienServer() *fakeServer {
	server := newFakeServer()
	server.addLibrary("Movies", "movie",
		plex.Item{RatingKey: "42", Title: "Alien", Year: 1979, GUIDs: []string{"tmdb://348"}},
		plex.Item{RatingKey: "43", Title: "Aliens", Year: 1986, GUIDs: []string{"tmdb://679"}},
	)
	return server
}

func TestRunCreatesAndReports(t *testing.T) {
	cfg := testConfig(t, moviesRoot)
	writeCollectionFile(t, cfg, "movies.yml", `
collections:
  Alien:
    items:
      - "Alien {tmdb-348}"
      - "Aliens {tmdb-679}"
    sort: alpha
`)
	server := alienServer()
	r := New(cfg, server, "m1", nil, nil)

	summary, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Failed() {
		t.Fatalf("run failed: %+v", summary)
	}
	if len(summary.Results) != 1 || !summary.Results[0].Created {
		t.Fatalf("results: %+v", summary.Results)
	}
	if c := server.collections["Movies"]["Alien"]; c == nil || len(c.items) != 2 || c.sort != "alpha" {
		t.Fatalf("remote state not converged: %+v", c)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t, moviesRoot)
	writeCollectionFile(t, cfg, "movies.yml", `
collections:
  Alien:
    items:
      - "Alien {tmdb-348}"
    sort: alpha
`)
	server := alienServer()
	r := New(cfg, server, "m1", nil, nil)

	if _, err := r.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	summary, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Results[0].Changed() {
		t.Fatalf("second run should change nothing: %+v", summary.Results[0])
	}
}

func TestRunExcludeEditSkipsReconcile(t *testing.T) {
	cfg := testConfig(t, moviesRoot)
	writeCollectionFile(t, cfg, "movies.yml", `
collections:
  Alien:
    items: ["Alien {tmdb-348}"]
`)
	server := alienServer()
	r := New(cfg, server, "m1", nil, nil)

	summary, err := r.Run(context.Background(), Options{ExcludeEdit: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Results) != 0 {
		t.Fatalf("reconcile ran despite exclude-edit: %+v", summary.Results)
	}
	if len(server.collections["Movies"]) != 0 {
		t.Fatal("remote state mutated despite exclude-edit")
	}
}

func TestRunDumpCollections(t *testing.T) {
	cfg := testConfig(t, moviesRoot)
	writeCollectionFile(t, cfg, "movies.yml", `
collections:
  Alien:
    items: ["Alien {tmdb-348}"]
`)
	server := alienServer()
	r := New(cfg, server, "m1", nil, nil)

	// First run creates, second dumps what exists.
	if _, err := r.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	summary, err := r.Run(context.Background(), Options{DumpCollections: true, ExcludeEdit: true})
	if err != nil {
		t.Fatalf("dump run: %v", err)
	}
	if len(summary.Dumps) != 1 {
		t.Fatalf("dumps: %+v", summary.Dumps)
	}
	if _, err := os.Stat(summary.Dumps[0]); err != nil {
		t.Fatalf("dump file missing: %v", err)
	}
}

func TestRunMissingLibraryContinues(t *testing.T) {
	cfg := testConfig(t, `
libraries:
  Ghost Library:
    collection_files:
      - file: ghosts.yml
  Movies:
    collection_files:
      - file: movies.yml
`)
	writeCollectionFile(t, cfg, "ghosts.yml", `
collections:
  Nothing:
    items: ["Nope"]
`)
	writeCollectionFile(t, cfg, "movies.yml", `
collections:
  Alien:
    items: ["Alien {tmdb-348}"]
`)
	server := alienServer()
	r := New(cfg, server, "m1", nil, nil)

	summary, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("errors: %+v", summary.Errors)
	}
	if !summary.Failed() {
		t.Fatal("missing library must fail the run")
	}
	if len(summary.Results) != 1 || summary.Results[0].Collection != "Alien" {
		t.Fatalf("other libraries should still reconcile: %+v", summary.Results)
	}
}

func TestRunDuplicateWarningsSurface(t *testing.T) {
	cfg := testConfig(t, `
libraries:
  Movies:
    collection_files:
      - file: movies.yml
      - file: more.yml
`)
	writeCollectionFile(t, cfg, "movies.yml", `
collections:
  Alien:
    items: ["Alien {tmdb-348}"]
`)
	writeCollectionFile(t, cfg, "more.yml", `
collections:
  Alien:
    items: ["Aliens {tmdb-679}"]
`)
	server := alienServer()
	r := New(cfg, server, "m1", nil, nil)

	summary, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Warnings) != 1 || summary.Warnings[0].Collection != "Alien" {
		t.Fatalf("warnings: %+v", summary.Warnings)
	}
	// Warnings alone do not fail the run.
	if summary.Failed() {
		t.Fatalf("run failed: %+v", summary)
	}
}

func TestRunLockHeldElsewhere(t *testing.T) {
	cfg := testConfig(t, moviesRoot)
	writeCollectionFile(t, cfg, "movies.yml", `
collections:
  Alien:
    items: ["Alien {tmdb-348}"]
`)
	other := flock.New(cfg.Paths.LockFile)
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-lock: locked=%v err=%v", locked, err)
	}
	defer other.Unlock()

	r := New(cfg, alienServer(), "m1", nil, nil)
	if _, err := r.Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected lock contention error")
	}
}
