package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"curator/internal/plex"
)

type fakeCatalog struct {
	items        []plex.Item
	guidCalls    int
	titleCalls   int
	byKeyCalls   int
	guidIndexed  bool
	missingByKey map[string]bool
}

func (c *fakeCatalog) FindByGUID(_ context.Context, _ plex.Library, guid string) ([]plex.Item, error) {
	c.guidCalls++
	if !c.guidIndexed {
		return nil, nil
	}
	var out []plex.Item
	for _, item := range c.items {
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

func (c *fakeCatalog) SearchByTitle(_ context.Context, _ plex.Library, title string) ([]plex.Item, error) {
	c.titleCalls++
	var out []plex.Item
	for _, item := range c.items {
		// The real server matches substrings case-insensitively.
		if strings.HasPrefix(strings.ToLower(item.Title), strings.ToLower(title)) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *fakeCatalog) ItemByRatingKey(_ context.Context, ratingKey string) (plex.Item, error) {
	c.byKeyCalls++
	if c.missingByKey[ratingKey] {
		return plex.Item{}, fmt.Errorf("item %s: %w", ratingKey, plex.ErrNotFound)
	}
	for _, item := range c.items {
		if item.RatingKey == ratingKey {
			return item, nil
		}
	}
	return plex.Item{}, fmt.Errorf("item %s: %w", ratingKey, plex.ErrNotFound)
}

var movies = plex.Library{Key: "1", Title: "Movies", Type: "movie"}

func alienCatalog() *fakeCatalog {
	return &fakeCatalog{
		guidIndexed: true,
		items: []plex.Item{
			{RatingKey: "42", Title: "Alien", Year: 1979, GUID: "plex://movie/a1", GUIDs: []string{"tmdb://348", "imdb://tt0078748"}},
			{RatingKey: "43", Title: "Aliens", Year: 1986, GUID: "plex://movie/a2", GUIDs: []string{"tmdb://679"}},
			{RatingKey: "44", Title: "The Thing", Year: 1982, GUID: "plex://movie/t1", GUIDs: []string{"tmdb://1091"}},
			{RatingKey: "45", Title: "The Thing", Year: 2011, GUID: "plex://movie/t2", GUIDs: []string{"tmdb://60935"}},
		},
	}
}

func TestResolveGUIDNeverSearchesTitles(t *testing.T) {
	catalog := alienCatalog()
	resolver := New(catalog)

	item, err := resolver.Resolve(context.Background(), movies, "plex://movie/a1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if item.RatingKey != "42" {
		t.Fatalf("resolved wrong item: %+v", item)
	}
	if catalog.titleCalls != 0 {
		t.Fatalf("guid resolution performed %d title searches", catalog.titleCalls)
	}
}

func TestResolveGUIDMissingStaysDirect(t *testing.T) {
	catalog := alienCatalog()
	resolver := New(catalog)

	_, err := resolver.Resolve(context.Background(), movies, "plex://movie/nope")
	var unresolved *UnresolvedError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedError, got %v", err)
	}
	if catalog.titleCalls != 0 {
		t.Fatal("missing guid must not trigger a title search")
	}
}

func TestResolveExternalID(t *testing.T) {
	catalog := alienCatalog()
	resolver := New(catalog)

	item, err := resolver.Resolve(context.Background(), movies, "Aliens {tmdb-679}")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if item.RatingKey != "43" {
		t.Fatalf("resolved wrong item: %+v", item)
	}
}

func TestResolveExternalIDFallsBackToTitleSearch(t *testing.T) {
	catalog := alienCatalog()
	catalog.guidIndexed = false
	resolver := New(catalog)

	item, err := resolver.Resolve(context.Background(), movies, "Aliens {tmdb-679}")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if item.RatingKey != "43" {
		t.Fatalf("resolved wrong item: %+v", item)
	}
	if catalog.titleCalls == 0 {
		t.Fatal("expected title-search fallback")
	}
}

func TestResolveTitleExactMatchOnly(t *testing.T) {
	catalog := alienCatalog()
	resolver := New(catalog)

	// "Alien" is a prefix of "Aliens"; only the exact title may win.
	item, err := resolver.Resolve(context.Background(), movies, "Alien")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if item.RatingKey != "42" {
		t.Fatalf("resolved wrong item: %+v", item)
	}
}

func TestResolveTitleAmbiguousWithoutYear(t *testing.T) {
	resolver := New(alienCatalog())

	_, err := resolver.Resolve(context.Background(), movies, "The Thing")
	var ambiguous *AmbiguousError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	if len(ambiguous.Matches) != 2 {
		t.Fatalf("matches: %+v", ambiguous.Matches)
	}
}

func TestResolveTitleYearHintDisambiguates(t *testing.T) {
	resolver := New(alienCatalog())

	item, err := resolver.Resolve(context.Background(), movies, "The Thing (1982)")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if item.RatingKey != "44" {
		t.Fatalf("resolved wrong item: %+v", item)
	}
}

func TestResolveTitleCaseFolds(t *testing.T) {
	resolver := New(alienCatalog())

	_, err := resolver.Resolve(context.Background(), movies, "alien")
	var unresolved *UnresolvedError
	if errors.As(err, &unresolved) {
		t.Fatalf("case-insensitive match expected, got %v", err)
	}
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
}

type mapCache struct {
	entries map[string]string
}

func cacheKey(machineID, library, reference string) string {
	return machineID + "|" + library + "|" + reference
}

func (c *mapCache) Get(machineID, library, reference string) (string, bool, error) {
	key, ok := c.entries[cacheKey(machineID, library, reference)]
	return key, ok, nil
}

func (c *mapCache) Put(machineID, library, reference, ratingKey string) error {
	c.entries[cacheKey(machineID, library, reference)] = ratingKey
	return nil
}

func (c *mapCache) Delete(machineID, library, reference string) error {
	delete(c.entries, cacheKey(machineID, library, reference))
	return nil
}

func TestResolveUsesCacheAndDropsStaleEntries(t *testing.T) {
	catalog := alienCatalog()
	cache := &mapCache{entries: map[string]string{}}
	resolver := New(catalog, WithCache(cache, "abc123"))

	if _, err := resolver.Resolve(context.Background(), movies, "Alien {tmdb-348}"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	firstGUIDCalls := catalog.guidCalls

	if _, err := resolver.Resolve(context.Background(), movies, "Alien {tmdb-348}"); err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
	if catalog.guidCalls != firstGUIDCalls {
		t.Fatal("cached resolve should not search again")
	}

	// Simulate the item being re-keyed on the server.
	catalog.missingByKey = map[string]bool{"42": true}
	catalog.items[0].RatingKey = "99"
	item, err := resolver.Resolve(context.Background(), movies, "Alien {tmdb-348}")
	if err != nil {
		t.Fatalf("resolve after re-key: %v", err)
	}
	if item.RatingKey != "99" {
		t.Fatalf("stale cache entry not refreshed: %+v", item)
	}
}
