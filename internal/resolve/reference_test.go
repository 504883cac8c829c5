package resolve

import "testing"

func TestParseReferenceForms(t *testing.T) {
	cases := []struct {
		raw  string
		want Reference
	}{
		{
			raw:  "Alien",
			want: Reference{Kind: KindTitle, Title: "Alien"},
		},
		{
			raw:  "Alien (1979)",
			want: Reference{Kind: KindTitle, Title: "Alien", Year: 1979},
		},
		{
			raw:  "Alien {tmdb-348}",
			want: Reference{Kind: KindExternalID, Title: "Alien", Database: "tmdb", ID: "348"},
		},
		{
			raw:  "Alien {imdb-tt0078748}",
			want: Reference{Kind: KindExternalID, Title: "Alien", Database: "imdb", ID: "tt0078748"},
		},
		{
			raw:  "plex://movie/5d776b59ad5437001f79c6f8",
			want: Reference{Kind: KindGUID, GUID: "plex://movie/5d776b59ad5437001f79c6f8"},
		},
		{
			// An unknown database name is not an external-id suffix.
			raw:  "Weird {local-1}",
			want: Reference{Kind: KindTitle, Title: "Weird {local-1}"},
		},
	}

	for _, tc := range cases {
		got, err := ParseReference(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		got.Raw = ""
		if got != tc.want {
			t.Fatalf("parse %q: got %+v want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseReferenceEmpty(t *testing.T) {
	if _, err := ParseReference("   "); err == nil {
		t.Fatal("expected error for blank reference")
	}
}

func TestExternalGUID(t *testing.T) {
	ref, err := ParseReference("Aliens {tmdb-679}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ref.ExternalGUID() != "tmdb://679" {
		t.Fatalf("external guid: got %q", ref.ExternalGUID())
	}

	title, _ := ParseReference("Aliens")
	if title.ExternalGUID() != "" {
		t.Fatalf("title reference should have no external guid")
	}
}
