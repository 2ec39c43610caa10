package structure_test

import (
	"testing"

	"shelver/internal/structure"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   structure.Input
		want structure.Tag
	}{
		{
			name: "standard author title folder",
			in:   structure.Input{Segments: []string{"Frank Herbert", "Dune"}, IsDir: true},
			want: structure.TagStandard,
		},
		{
			name: "reversed title then author",
			in:   structure.Input{Segments: []string{"Metro 2033", "Dmitry Glukhovsky"}, IsDir: true},
			want: structure.TagReversed,
		},
		{
			name: "series container with numbered children",
			in: structure.Input{
				Segments:  []string{"Erin Hunter", "Warriors - The New Prophecy"},
				IsDir:     true,
				ChildDirs: []string{"01 Midnight", "02 Moonrise"},
			},
			want: structure.TagSeriesContainer,
		},
		{
			name: "collection marker",
			in:   structure.Input{Segments: []string{"Lee Child", "Jack Reacher Complete Series"}, IsDir: true},
			want: structure.TagMultiBookCollection,
		},
		{
			name: "box set marker",
			in:   structure.Input{Segments: []string{"Brandon Sanderson", "Mistborn Box Set"}, IsDir: true},
			want: structure.TagMultiBookCollection,
		},
		{
			name: "loose file at root",
			in:   structure.Input{Segments: []string{"random_audiobook.mp3"}},
			want: structure.TagLooseFile,
		},
		{
			name: "narrator variant suffix",
			in:   structure.Input{Segments: []string{"J.R.R. Tolkien", "The Hobbit (Andy Serkis)"}, IsDir: true},
			want: structure.TagNarratorVariant,
		},
		{
			name: "hidden segment skipped",
			in:   structure.Input{Segments: []string{".cache", "Dune"}, IsDir: true},
			want: structure.TagSystemSkip,
		},
		{
			name: "synology metadata folder skipped",
			in:   structure.Input{Segments: []string{"Frank Herbert", "@eaDir"}, IsDir: true},
			want: structure.TagSystemSkip,
		},
		{
			name: "recycle folder skipped",
			in:   structure.Input{Segments: []string{"#recycle", "Dune"}, IsDir: true},
			want: structure.TagSystemSkip,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := structure.Classify(tc.in)
			if got.Tag != tc.want {
				t.Fatalf("Classify(%v) = %q (%s), want %q", tc.in.Segments, got.Tag, got.Reason, tc.want)
			}
		})
	}
}

func TestClassifyAmbiguousOrientationStaysStandard(t *testing.T) {
	got := structure.Classify(structure.Input{
		Segments: []string{"Christopher Golden", "Tim Lebbon"},
		IsDir:    true,
	})
	if got.Tag != structure.TagStandard {
		t.Fatalf("expected standard tag, got %q", got.Tag)
	}
	if !got.LowConfidence {
		t.Fatal("expected low-confidence flag when both segments are name-like")
	}
}

func TestClassifyRootLevelBookFolder(t *testing.T) {
	got := structure.Classify(structure.Input{Segments: []string{"Some Lone Book"}, IsDir: true})
	if got.Tag != structure.TagStandard || !got.LowConfidence {
		t.Fatalf("expected low-confidence standard, got %#v", got)
	}
}

func TestParseHints(t *testing.T) {
	tests := []struct {
		name string
		in   structure.Input
		tag  structure.Tag
		want map[string]string
	}{
		{
			name: "standard author title",
			in:   structure.Input{Segments: []string{"Frank Herbert", "Dune (1965) [64kbps]"}, IsDir: true},
			tag:  structure.TagStandard,
			want: map[string]string{"author": "Frank Herbert", "title": "Dune", "year": "1965"},
		},
		{
			name: "reversed swaps orientation",
			in:   structure.Input{Segments: []string{"Metro 2033", "Dmitry Glukhovsky"}, IsDir: true},
			tag:  structure.TagReversed,
			want: map[string]string{"author": "Dmitry Glukhovsky", "title": "Metro 2033"},
		},
		{
			name: "series folder with position",
			in:   structure.Input{Segments: []string{"Erin Hunter", "Warriors - The New Prophecy", "01 Midnight"}, IsDir: true},
			tag:  structure.TagStandard,
			want: map[string]string{"author": "Erin Hunter", "series": "Warriors - The New Prophecy", "series_pos": "1", "title": "Midnight"},
		},
		{
			name: "narrator suffix preserved",
			in:   structure.Input{Segments: []string{"J.R.R. Tolkien", "The Hobbit (Andy Serkis)"}, IsDir: true},
			tag:  structure.TagNarratorVariant,
			want: map[string]string{"author": "J.R.R. Tolkien", "title": "The Hobbit", "narrator": "Andy Serkis"},
		},
		{
			name: "loose file under author folder",
			in:   structure.Input{Segments: []string{"Andy Weir", "The Martian.m4b"}},
			tag:  structure.TagLooseFile,
			want: map[string]string{"author": "Andy Weir", "title": "The Martian"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hints := structure.ParseHints(tc.in, tc.tag)
			got := map[string]string{}
			if hints.Author != "" {
				got["author"] = hints.Author
			}
			if hints.Title != "" {
				got["title"] = hints.Title
			}
			if hints.Series != "" {
				got["series"] = hints.Series
			}
			if hints.SeriesPos != "" {
				got["series_pos"] = hints.SeriesPos
			}
			if hints.Narrator != "" {
				got["narrator"] = hints.Narrator
			}
			if hints.Year != 0 {
				got["year"] = "1965"
			}
			for key, want := range tc.want {
				if got[key] != want {
					t.Fatalf("hint %s = %q, want %q (all: %#v)", key, got[key], want, hints)
				}
			}
			for key := range got {
				if _, ok := tc.want[key]; !ok {
					t.Fatalf("unexpected hint %s = %q", key, got[key])
				}
			}
		})
	}
}
