package specfile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sort orders a collection spec may declare.
const (
	SortAlpha   = "alpha"
	SortRelease = "release"
	SortCustom  = "custom"
)

// Visibility modes a collection spec may declare.
const (
	ModeShow      = "show"
	ModeHide      = "hide"
	ModeHideItems = "hideItems"
)

// CollectionSpec is one declared collection: a name, an ordered item list,
// and optional attributes. Immutable once loaded.
type CollectionSpec struct {
	Name          string
	Items         []ItemEntry
	Sort          string
	Mode          string
	TitleSort     string
	ContentRating string
	Summary       string
	Poster        string
	Art           string
	// Source is the collection file the spec was loaded from.
	Source string
}

func (s CollectionSpec) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("collection with empty name in %s", s.Source)
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("collection %q in %s declares no items", s.Name, s.Source)
	}
	switch s.Sort {
	case "", SortAlpha, SortRelease, SortCustom:
	default:
		return fmt.Errorf("collection %q: unknown sort %q (want %s, %s, or %s)", s.Name, s.Sort, SortAlpha, SortRelease, SortCustom)
	}
	switch s.Mode {
	case "", ModeShow, ModeHide, ModeHideItems:
	default:
		return fmt.Errorf("collection %q: unknown mode %q (want %s, %s, or %s)", s.Name, s.Mode, ModeShow, ModeHide, ModeHideItems)
	}
	for i, item := range s.Items {
		if item.Reference() == "" {
			return fmt.Errorf("collection %q: item %d has no title or guid", s.Name, i+1)
		}
	}
	return nil
}

// ItemEntry is one entry of a collection's item list. In YAML it is either a
// plain reference string or a mapping carrying identification fields, which
// is what full-field dumps produce.
type ItemEntry struct {
	// Raw holds the user-written reference string when the entry was a
	// scalar. Mapping entries leave it empty and fill the fields below.
	Raw string

	Title string
	Year  int
	TMDB  string
	IMDB  string
	TVDB  string
	GUID  string

	// Extra metadata carried by full-field dumps; ignored for resolution.
	ContentRating string
	Summary       string
	AddedAt       int64
}

// Reference returns the reference string the resolver should look up. For
// mapping entries the strongest identification wins: internal guid, then an
// external id suffix, then a year-hinted or plain title.
func (e ItemEntry) Reference() string {
	if e.Raw != "" {
		return e.Raw
	}
	switch {
	case e.GUID != "":
		return e.GUID
	case e.TMDB != "":
		return fmt.Sprintf("%s {tmdb-%s}", e.Title, e.TMDB)
	case e.IMDB != "":
		return fmt.Sprintf("%s {imdb-%s}", e.Title, e.IMDB)
	case e.TVDB != "":
		return fmt.Sprintf("%s {tvdb-%s}", e.Title, e.TVDB)
	case e.Year != 0:
		return fmt.Sprintf("%s (%d)", e.Title, e.Year)
	default:
		return e.Title
	}
}

type itemEntryDoc struct {
	Title         string `yaml:"title"`
	Year          int    `yaml:"year,omitempty"`
	TMDB          string `yaml:"tmdb,omitempty"`
	IMDB          string `yaml:"imdb,omitempty"`
	TVDB          string `yaml:"tvdb,omitempty"`
	GUID          string `yaml:"guid,omitempty"`
	ContentRating string `yaml:"contentRating,omitempty"`
	Summary       string `yaml:"summary,omitempty"`
	AddedAt       int64  `yaml:"addedAt,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (e *ItemEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		e.Raw = strings.TrimSpace(raw)
		return nil
	case yaml.MappingNode:
		var doc itemEntryDoc
		if err := node.Decode(&doc); err != nil {
			return err
		}
		*e = ItemEntry{
			Title:         strings.TrimSpace(doc.Title),
			Year:          doc.Year,
			TMDB:          doc.TMDB,
			IMDB:          doc.IMDB,
			TVDB:          doc.TVDB,
			GUID:          doc.GUID,
			ContentRating: doc.ContentRating,
			Summary:       doc.Summary,
			AddedAt:       doc.AddedAt,
		}
		return nil
	default:
		return fmt.Errorf("item entry must be a string or a mapping (line %d)", node.Line)
	}
}

// MarshalYAML emits the scalar form unless the entry carries full-field
// metadata, keeping plain dumps as compact as hand-written files.
func (e ItemEntry) MarshalYAML() (any, error) {
	if e.Raw != "" {
		return e.Raw, nil
	}
	if e.ContentRating == "" && e.Summary == "" && e.AddedAt == 0 {
		return e.Reference(), nil
	}
	return itemEntryDoc{
		Title:         e.Title,
		Year:          e.Year,
		TMDB:          e.TMDB,
		IMDB:          e.IMDB,
		TVDB:          e.TVDB,
		GUID:          e.GUID,
		ContentRating: e.ContentRating,
		Summary:       e.Summary,
		AddedAt:       e.AddedAt,
	}, nil
}
