package resolve

import (
	"fmt"
	"strings"

	"curator/internal/plex"
)

// UnresolvedError reports a reference that matched nothing. Per-item and
// non-fatal: the caller drops the item and keeps going.
type UnresolvedError struct {
	Library   string
	Reference string
	Reason    string
}

func (e *UnresolvedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("item %q not found in library %q", e.Reference, e.Library)
	}
	return fmt.Sprintf("item %q not found in library %q: %s", e.Reference, e.Library, e.Reason)
}

// AmbiguousError reports a title reference matching several items with no
// disambiguating year hint.
type AmbiguousError struct {
	Library   string
	Reference string
	Matches   []plex.Item
}

func (e *AmbiguousError) Error() string {
	candidates := make([]string, 0, len(e.Matches))
	for _, item := range e.Matches {
		if item.Year != 0 {
			candidates = append(candidates, fmt.Sprintf("%s (%d)", item.Title, item.Year))
		} else {
			candidates = append(candidates, item.Title)
		}
	}
	return fmt.Sprintf("item %q is ambiguous in library %q: matches %s; add a year hint or an external id",
		e.Reference, e.Library, strings.Join(candidates, ", "))
}
