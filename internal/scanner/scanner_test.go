package scanner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/queue"
	"shelver/internal/scanner"
	"shelver/internal/structure"
)

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func scanRoot(t *testing.T, root string, tagReader scanner.TagReader) map[string]scanner.Item {
	t.Helper()
	items, err := scanner.New([]string{root}, tagReader, nil).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	byPath := make(map[string]scanner.Item, len(items))
	for _, item := range items {
		rel, err := filepath.Rel(root, item.SourcePath)
		if err != nil {
			t.Fatal(err)
		}
		byPath[rel] = item
	}
	return byPath
}

func TestScanFindsBookFolders(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "Frank Herbert", "Dune", "part1.mp3"))
	mustWrite(t, filepath.Join(root, "Frank Herbert", "Dune", "part2.mp3"))

	items := scanRoot(t, root, nil)
	item, ok := items[filepath.Join("Frank Herbert", "Dune")]
	if !ok {
		t.Fatalf("expected the Dune folder as an item, got %v", items)
	}
	if item.Kind != queue.KindFolder {
		t.Fatalf("expected folder kind, got %q", item.Kind)
	}
	if item.Classification.Tag != structure.TagStandard {
		t.Fatalf("expected standard tag, got %q", item.Classification.Tag)
	}
	if item.Hints.Author != "Frank Herbert" || item.Hints.Title != "Dune" {
		t.Fatalf("unexpected hints: %#v", item.Hints)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one item, got %d", len(items))
	}
}

func TestScanSkipsSystemFolders(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "@eaDir", "thumb.mp3"))
	mustWrite(t, filepath.Join(root, ".cache", "Frank Herbert", "Dune", "part1.mp3"))
	mustWrite(t, filepath.Join(root, "metadata", "cover.mp3"))

	items := scanRoot(t, root, nil)
	if len(items) != 0 {
		t.Fatalf("expected no items under system folders, got %v", items)
	}
}

func TestScanSeriesContainerNotDescended(t *testing.T) {
	root := t.TempDir()
	series := filepath.Join(root, "Erin Hunter", "Warriors - The New Prophecy")
	mustWrite(t, filepath.Join(series, "01 Midnight", "midnight.mp3"))
	mustWrite(t, filepath.Join(series, "02 Moonrise", "moonrise.mp3"))

	items := scanRoot(t, root, nil)
	item, ok := items[filepath.Join("Erin Hunter", "Warriors - The New Prophecy")]
	if !ok {
		t.Fatalf("expected the series container as an item, got %v", items)
	}
	if item.Classification.Tag != structure.TagSeriesContainer {
		t.Fatalf("expected series container tag, got %q", item.Classification.Tag)
	}
	if len(items) != 1 {
		t.Fatalf("container children must not become items, got %v", items)
	}
}

func TestScanLooseFilesAtRoot(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "the_martian.m4b"))
	mustWrite(t, filepath.Join(root, "notes.txt"))

	items := scanRoot(t, root, nil)
	item, ok := items["the_martian.m4b"]
	if !ok {
		t.Fatalf("expected the loose file as an item, got %v", items)
	}
	if item.Kind != queue.KindLooseFile {
		t.Fatalf("expected loose file kind, got %q", item.Kind)
	}
	if item.Classification.Tag != structure.TagLooseFile {
		t.Fatalf("expected loose file tag, got %q", item.Classification.Tag)
	}
	if len(items) != 1 {
		t.Fatalf("non-media files must not become items, got %v", items)
	}
}

func TestScanEbookFolder(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "Andy Weir", "Project Hail Mary", "book.epub"))

	items := scanRoot(t, root, nil)
	item, ok := items[filepath.Join("Andy Weir", "Project Hail Mary")]
	if !ok {
		t.Fatalf("expected the ebook folder as an item, got %v", items)
	}
	if item.Kind != queue.KindEbook {
		t.Fatalf("expected ebook kind, got %q", item.Kind)
	}
}

type stubTagReader struct {
	tags scanner.Tags
}

func (r stubTagReader) ReadTags(path string) (scanner.Tags, error) {
	return r.tags, nil
}

func TestScanFillsMissingHintsFromTags(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "b004xyz", "file.mp3"))

	reader := stubTagReader{tags: scanner.Tags{Author: "Andy Weir", Album: "The Martian"}}
	items := scanRoot(t, root, reader)
	item, ok := items["b004xyz"]
	if !ok {
		t.Fatalf("expected the folder as an item, got %v", items)
	}
	if item.Hints.Author != "Andy Weir" {
		t.Fatalf("expected author from embedded tags, got %q", item.Hints.Author)
	}
}

func TestScanMissingRootFails(t *testing.T) {
	_, err := scanner.New([]string{filepath.Join(t.TempDir(), "missing")}, nil, nil).Scan(context.Background())
	if err == nil {
		t.Fatal("expected error for missing library root")
	}
}
