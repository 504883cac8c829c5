package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies how a reference identifies its item.
type Kind int

const (
	// KindTitle references by title, optionally with a year hint.
	KindTitle Kind = iota
	// KindExternalID references by an external database id suffix.
	KindExternalID
	// KindGUID references by the server-internal plex:// identifier.
	KindGUID
)

// Reference is a parsed item reference string.
type Reference struct {
	Raw   string
	Kind  Kind
	Title string
	Year  int
	// Database and ID are set for KindExternalID, e.g. "tmdb" and "348".
	Database string
	ID       string
	// GUID is set for KindGUID.
	GUID string
}

var (
	externalIDPattern = regexp.MustCompile(`^(.*\S)\s*\{(tmdb|imdb|tvdb)-([A-Za-z0-9]+)\}$`)
	yearHintPattern   = regexp.MustCompile(`^(.*\S)\s*\((\d{4})\)$`)
)

// ParseReference classifies a user-written reference string. The three
// forms, in recognition order: a plex:// guid, a title with an external-id
// suffix like "Alien {tmdb-348}", and a plain title with an optional
// "(1979)" year hint.
func ParseReference(raw string) (Reference, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Reference{}, fmt.Errorf("empty item reference")
	}

	if strings.HasPrefix(trimmed, "plex://") {
		return Reference{Raw: raw, Kind: KindGUID, GUID: trimmed}, nil
	}

	if m := externalIDPattern.FindStringSubmatch(trimmed); m != nil {
		return Reference{
			Raw:      raw,
			Kind:     KindExternalID,
			Title:    strings.TrimSpace(m[1]),
			Database: m[2],
			ID:       m[3],
		}, nil
	}

	ref := Reference{Raw: raw, Kind: KindTitle, Title: trimmed}
	if m := yearHintPattern.FindStringSubmatch(trimmed); m != nil {
		year, err := strconv.Atoi(m[2])
		if err == nil {
			ref.Title = strings.TrimSpace(m[1])
			ref.Year = year
		}
	}
	return ref, nil
}

// ExternalGUID returns the guid filter value for an external-id reference,
// e.g. "tmdb://348".
func (r Reference) ExternalGUID() string {
	if r.Kind != KindExternalID {
		return ""
	}
	return fmt.Sprintf("%s://%s", r.Database, r.ID)
}
