package plex

// Identity describes the server answering at a base URL.
type Identity struct {
	MachineIdentifier string
	FriendlyName      string
	Version           string
}

// Library is a server-side section holding items of one media type.
type Library struct {
	Key   string
	Title string
	Type  string // "movie" or "show"
}

// Item is a catalog entry with enough metadata to disambiguate duplicates.
type Item struct {
	RatingKey     string
	Title         string
	TitleSort     string
	Year          int
	GUID          string   // plex://... identifier
	GUIDs         []string // external ids: tmdb://348, imdb://tt0078748, tvdb://...
	Type          string
	ContentRating string
	Summary       string
	AddedAt       int64
}

// Collection is the server-side representation of a collection.
type Collection struct {
	RatingKey     string
	Title         string
	TitleSort     string
	ContentRating string
	Summary       string
	ChildCount    int
}

// CollectionUpdate carries attribute changes for a collection. Empty fields
// are left untouched on the server.
type CollectionUpdate struct {
	TitleSort     string
	ContentRating string
	Summary       string
	Sort          string // release, alpha, custom
	Mode          string // show, hide, hideItems
}

// Empty reports whether the update would change nothing.
func (u CollectionUpdate) Empty() bool {
	return u == CollectionUpdate{}
}

// Media type codes used by the collections endpoints.
const (
	typeMovie      = "1"
	typeShow       = "2"
	typeCollection = "18"
)

func libraryTypeCode(libraryType string) string {
	if libraryType == "show" {
		return typeShow
	}
	return typeMovie
}

// Plex preference codes for collection sort and visibility.
var (
	sortCodes = map[string]string{
		"release": "0",
		"alpha":   "1",
		"custom":  "2",
	}
	modeCodes = map[string]string{
		"hide":      "0",
		"hideItems": "1",
		"show":      "2",
	}
	sortNames = map[string]string{
		"0": "release",
		"1": "alpha",
		"2": "custom",
	}
	modeNames = map[string]string{
		"0": "hide",
		"1": "hideItems",
		"2": "show",
	}
)

// MediaContainer envelopes. Plex wraps every JSON response in a
// MediaContainer object; Directory entries describe sections and Metadata
// entries describe items and collections.
type containerResponse struct {
	MediaContainer mediaContainer `json:"MediaContainer"`
}

type mediaContainer struct {
	Size              int         `json:"size"`
	MachineIdentifier string      `json:"machineIdentifier"`
	FriendlyName      string      `json:"friendlyName"`
	Version           string      `json:"version"`
	Directory         []directory `json:"Directory"`
	Metadata          []metadata  `json:"Metadata"`
}

type directory struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type metadata struct {
	RatingKey     string       `json:"ratingKey"`
	GUID          string       `json:"guid"`
	Type          string       `json:"type"`
	Title         string       `json:"title"`
	TitleSort     string       `json:"titleSort"`
	Year          int          `json:"year"`
	ContentRating string       `json:"contentRating"`
	Summary       string       `json:"summary"`
	AddedAt       int64        `json:"addedAt"`
	ChildCount    int          `json:"childCount"`
	Guids         []guidRef    `json:"Guid"`
	Preferences   *preferences `json:"Preferences"`
}

type preferences struct {
	Setting []prefSetting `json:"Setting"`
}

// The value field arrives as a string or a number depending on the setting.
type prefSetting struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

type guidRef struct {
	ID string `json:"id"`
}

func (m metadata) toItem() Item {
	item := Item{
		RatingKey:     m.RatingKey,
		Title:         m.Title,
		TitleSort:     m.TitleSort,
		Year:          m.Year,
		GUID:          m.GUID,
		Type:          m.Type,
		ContentRating: m.ContentRating,
		Summary:       m.Summary,
		AddedAt:       m.AddedAt,
	}
	for _, g := range m.Guids {
		if g.ID != "" {
			item.GUIDs = append(item.GUIDs, g.ID)
		}
	}
	return item
}

func (m metadata) toCollection() Collection {
	return Collection{
		RatingKey:     m.RatingKey,
		Title:         m.Title,
		TitleSort:     m.TitleSort,
		ContentRating: m.ContentRating,
		Summary:       m.Summary,
		ChildCount:    m.ChildCount,
	}
}
