package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

const productName = "curator"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client issues authenticated JSON requests against one media server.
type Client struct {
	baseURL   string
	token     string
	clientID  string
	machineID string
	http      HTTPDoer
}

// NewClient constructs a client for the given base URL and token. The
// machine identifier is discovered on the first Identity call.
func NewClient(baseURL, token string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		clientID: uuid.NewString(),
		http:     doer,
	}
}

// BaseURL returns the address this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Identity fetches the server's identity and remembers its machine
// identifier for later item-uri construction.
func (c *Client) Identity(ctx context.Context) (Identity, error) {
	var resp containerResponse
	if err := c.get(ctx, "/identity", nil, &resp); err != nil {
		return Identity{}, err
	}
	mc := resp.MediaContainer
	if mc.MachineIdentifier == "" {
		return Identity{}, fmt.Errorf("plex: identity response missing machineIdentifier")
	}
	c.machineID = mc.MachineIdentifier
	return Identity{
		MachineIdentifier: mc.MachineIdentifier,
		FriendlyName:      mc.FriendlyName,
		Version:           mc.Version,
	}, nil
}

// Libraries lists the server's library sections.
func (c *Client) Libraries(ctx context.Context) ([]Library, error) {
	var resp containerResponse
	if err := c.get(ctx, "/library/sections", nil, &resp); err != nil {
		return nil, err
	}
	libraries := make([]Library, 0, len(resp.MediaContainer.Directory))
	for _, dir := range resp.MediaContainer.Directory {
		libraries = append(libraries, Library{Key: dir.Key, Title: dir.Title, Type: dir.Type})
	}
	return libraries, nil
}

// Library looks a section up by title.
func (c *Client) Library(ctx context.Context, title string) (Library, error) {
	libraries, err := c.Libraries(ctx)
	if err != nil {
		return Library{}, err
	}
	for _, lib := range libraries {
		if lib.Title == title {
			return lib, nil
		}
	}
	return Library{}, fmt.Errorf("library %q: %w", title, ErrNotFound)
}

// Items lists every item in a library section.
func (c *Client) Items(ctx context.Context, library Library) ([]Item, error) {
	return c.sectionItems(ctx, library, url.Values{"includeGuids": {"1"}})
}

// SearchByTitle returns the section items whose titles match the query. The
// server matches substrings; callers filter for exactness.
func (c *Client) SearchByTitle(ctx context.Context, library Library, title string) ([]Item, error) {
	return c.sectionItems(ctx, library, url.Values{
		"title":        {title},
		"includeGuids": {"1"},
	})
}

// FindByGUID returns the section items carrying the given guid, either the
// internal plex:// identifier or an external one such as tmdb://348.
func (c *Client) FindByGUID(ctx context.Context, library Library, guid string) ([]Item, error) {
	return c.sectionItems(ctx, library, url.Values{
		"guid":         {guid},
		"includeGuids": {"1"},
	})
}

func (c *Client) sectionItems(ctx context.Context, library Library, query url.Values) ([]Item, error) {
	path := fmt.Sprintf("/library/sections/%s/all", library.Key)
	var resp containerResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(resp.MediaContainer.Metadata))
	for _, meta := range resp.MediaContainer.Metadata {
		items = append(items, meta.toItem())
	}
	return items, nil
}

// ItemByRatingKey fetches a single item by its server-internal identifier.
func (c *Client) ItemByRatingKey(ctx context.Context, ratingKey string) (Item, error) {
	path := fmt.Sprintf("/library/metadata/%s", ratingKey)
	var resp containerResponse
	if err := c.get(ctx, path, url.Values{"includeGuids": {"1"}}, &resp); err != nil {
		return Item{}, err
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return Item{}, fmt.Errorf("item %s: %w", ratingKey, ErrNotFound)
	}
	return resp.MediaContainer.Metadata[0].toItem(), nil
}

// CollectionPreferences reads a collection's current sort and visibility
// settings, returned in the same vocabulary CollectionUpdate accepts. Unset
// preferences come back empty.
func (c *Client) CollectionPreferences(ctx context.Context, collection Collection) (sort, mode string, err error) {
	path := fmt.Sprintf("/library/metadata/%s", collection.RatingKey)
	var resp containerResponse
	if err := c.get(ctx, path, url.Values{"includePreferences": {"1"}}, &resp); err != nil {
		return "", "", err
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return "", "", fmt.Errorf("collection %s: %w", collection.RatingKey, ErrNotFound)
	}
	prefs := resp.MediaContainer.Metadata[0].Preferences
	if prefs == nil {
		return "", "", nil
	}
	for _, setting := range prefs.Setting {
		value := normalizePrefValue(setting.Value)
		switch setting.ID {
		case "collectionSort":
			sort = sortNames[value]
		case "collectionMode":
			mode = modeNames[value]
		}
	}
	return sort, mode, nil
}

func normalizePrefValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%d", int64(v))
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Collections lists the collections of a library section.
func (c *Client) Collections(ctx context.Context, library Library) ([]Collection, error) {
	path := fmt.Sprintf("/library/sections/%s/collections", library.Key)
	var resp containerResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	collections := make([]Collection, 0, len(resp.MediaContainer.Metadata))
	for _, meta := range resp.MediaContainer.Metadata {
		collections = append(collections, meta.toCollection())
	}
	return collections, nil
}

// CollectionByName fetches a collection by title. The boolean reports
// whether it exists; absence is not an error.
func (c *Client) CollectionByName(ctx context.Context, library Library, name string) (Collection, bool, error) {
	collections, err := c.Collections(ctx, library)
	if err != nil {
		return Collection{}, false, err
	}
	for _, coll := range collections {
		if coll.Title == name {
			return coll, true, nil
		}
	}
	return Collection{}, false, nil
}

// CollectionItems lists a collection's members in their current order.
func (c *Client) CollectionItems(ctx context.Context, collection Collection) ([]Item, error) {
	path := fmt.Sprintf("/library/collections/%s/children", collection.RatingKey)
	var resp containerResponse
	if err := c.get(ctx, path, url.Values{"includeGuids": {"1"}}, &resp); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(resp.MediaContainer.Metadata))
	for _, meta := range resp.MediaContainer.Metadata {
		items = append(items, meta.toItem())
	}
	return items, nil
}

// CreateCollection creates a collection containing the given items.
func (c *Client) CreateCollection(ctx context.Context, library Library, title string, ratingKeys []string) (Collection, error) {
	uri, err := c.itemURI(ratingKeys)
	if err != nil {
		return Collection{}, err
	}
	query := url.Values{
		"type":      {libraryTypeCode(library.Type)},
		"title":     {title},
		"smart":     {"0"},
		"sectionId": {library.Key},
		"uri":       {uri},
	}
	var resp containerResponse
	if err := c.do(ctx, http.MethodPost, "/library/collections", query, nil, "", &resp); err != nil {
		return Collection{}, err
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return Collection{}, fmt.Errorf("plex: create collection %q returned no metadata", title)
	}
	return resp.MediaContainer.Metadata[0].toCollection(), nil
}

// AddItems appends items to an existing collection.
func (c *Client) AddItems(ctx context.Context, collection Collection, ratingKeys []string) error {
	if len(ratingKeys) == 0 {
		return nil
	}
	uri, err := c.itemURI(ratingKeys)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/library/collections/%s/items", collection.RatingKey)
	return c.do(ctx, http.MethodPut, path, url.Values{"uri": {uri}}, nil, "", nil)
}

// RemoveItem removes one item from a collection.
func (c *Client) RemoveItem(ctx context.Context, collection Collection, ratingKey string) error {
	path := fmt.Sprintf("/library/collections/%s/children/%s", collection.RatingKey, ratingKey)
	return c.do(ctx, http.MethodDelete, path, url.Values{"excludeAllLeaves": {"1"}}, nil, "", nil)
}

// MoveItem places an item directly after another in a collection's custom
// order. An empty afterKey moves the item to the front.
func (c *Client) MoveItem(ctx context.Context, collection Collection, ratingKey, afterKey string) error {
	path := fmt.Sprintf("/library/collections/%s/items/%s/move", collection.RatingKey, ratingKey)
	query := url.Values{}
	if afterKey != "" {
		query.Set("after", afterKey)
	}
	return c.do(ctx, http.MethodPut, path, query, nil, "", nil)
}

// UpdateCollection applies attribute changes. Field edits and preference
// edits go through different endpoints; both are idempotent server-side.
func (c *Client) UpdateCollection(ctx context.Context, library Library, collection Collection, update CollectionUpdate) error {
	fields := url.Values{}
	if update.TitleSort != "" {
		fields.Set("titleSort.value", update.TitleSort)
		fields.Set("titleSort.locked", "1")
	}
	if update.ContentRating != "" {
		fields.Set("contentRating.value", update.ContentRating)
		fields.Set("contentRating.locked", "1")
	}
	if update.Summary != "" {
		fields.Set("summary.value", update.Summary)
		fields.Set("summary.locked", "1")
	}
	if len(fields) > 0 {
		fields.Set("type", typeCollection)
		fields.Set("id", collection.RatingKey)
		path := fmt.Sprintf("/library/sections/%s/all", library.Key)
		if err := c.do(ctx, http.MethodPut, path, fields, nil, "", nil); err != nil {
			return err
		}
	}

	prefs := url.Values{}
	if update.Sort != "" {
		code, ok := sortCodes[update.Sort]
		if !ok {
			return fmt.Errorf("plex: unknown collection sort %q", update.Sort)
		}
		prefs.Set("collectionSort", code)
	}
	if update.Mode != "" {
		code, ok := modeCodes[update.Mode]
		if !ok {
			return fmt.Errorf("plex: unknown collection mode %q", update.Mode)
		}
		prefs.Set("collectionMode", code)
	}
	if len(prefs) > 0 {
		path := fmt.Sprintf("/library/metadata/%s/prefs", collection.RatingKey)
		if err := c.do(ctx, http.MethodPut, path, prefs, nil, "", nil); err != nil {
			return err
		}
	}
	return nil
}

// SetPoster uploads a poster from a local file path or points the server at
// a URL.
func (c *Client) SetPoster(ctx context.Context, collection Collection, source string) error {
	return c.setImage(ctx, collection, "posters", source)
}

// SetArt uploads background art from a local file path or a URL.
func (c *Client) SetArt(ctx context.Context, collection Collection, source string) error {
	return c.setImage(ctx, collection, "arts", source)
}

func (c *Client) setImage(ctx context.Context, collection Collection, kind, source string) error {
	path := fmt.Sprintf("/library/metadata/%s/%s", collection.RatingKey, kind)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return c.do(ctx, http.MethodPost, path, url.Values{"url": {source}}, nil, "", nil)
	}
	expanded := source
	if strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		expanded = filepath.Join(home, expanded[2:])
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("read image %s: %w", source, err)
	}
	return c.do(ctx, http.MethodPost, path, nil, data, "image/jpeg", nil)
}

func (c *Client) itemURI(ratingKeys []string) (string, error) {
	if c.machineID == "" {
		return "", fmt.Errorf("plex: machine identifier unknown, call Identity first")
	}
	if len(ratingKeys) == 0 {
		return "", fmt.Errorf("plex: item uri requires at least one rating key")
	}
	return fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		c.machineID, strings.Join(ratingKeys, ",")), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out *containerResponse) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, out *containerResponse) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("plex request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
