// Package scanner enumerates candidate items under the configured library
// roots: book folders that directly hold audio or ebook files, container
// folders whose children are the books, and loose media files.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shelver/internal/logging"
	"shelver/internal/queue"
	"shelver/internal/structure"
)

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".m4b": {}, ".m4a": {}, ".aac": {}, ".flac": {},
	".ogg": {}, ".opus": {}, ".wma": {}, ".aax": {},
}

var ebookExtensions = map[string]struct{}{
	".epub": {}, ".mobi": {}, ".azw3": {}, ".pdf": {},
}

// Tags is the raw embedded metadata a media file may carry.
type Tags struct {
	Title  string
	Author string
	Album  string
}

// TagReader reads embedded metadata from a media file, best effort. A nil
// reader or any error simply means no tag hints.
type TagReader interface {
	ReadTags(path string) (Tags, error)
}

// Item is one scanned unit of work, classified and hinted but not yet
// queued.
type Item struct {
	SourcePath     string
	LibraryRoot    string
	Kind           queue.Kind
	Classification structure.Classification
	Hints          queue.Hints
}

// Scanner walks library roots and produces items.
type Scanner struct {
	roots     []string
	tagReader TagReader
	logger    *slog.Logger
}

// New constructs a scanner. tagReader may be nil.
func New(roots []string, tagReader TagReader, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		roots:     roots,
		tagReader: tagReader,
		logger:    logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan enumerates all roots. Unreadable directories are logged and skipped
// rather than failing the whole scan.
func (s *Scanner) Scan(ctx context.Context) ([]Item, error) {
	var items []Item
	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := os.Stat(root); err != nil {
			return nil, fmt.Errorf("library root %s: %w", root, err)
		}
		s.walk(ctx, root, root, nil, &items)
	}
	return items, nil
}

// walk descends one directory. Book folders and containers terminate the
// descent: a book folder's internal layout is never scanned as new items,
// and a container's children are excluded from book-level processing.
func (s *Scanner) walk(ctx context.Context, root, dir string, segments []string, items *[]Item) {
	if ctx.Err() != nil {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("skipping unreadable directory",
			logging.String(logging.FieldPath, dir),
			logging.Error(err),
		)
		return
	}

	var subdirs []string
	var mediaFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if structure.SkipSegment(name) {
			continue
		}
		if entry.IsDir() {
			subdirs = append(subdirs, name)
		} else if isMediaFile(name) {
			mediaFiles = append(mediaFiles, name)
		}
	}

	atRoot := len(segments) == 0
	if !atRoot {
		input := structure.Input{Segments: segments, IsDir: true, ChildDirs: subdirs}
		classification := structure.Classify(input)
		if classification.Tag.Terminal() {
			*items = append(*items, s.buildItem(root, dir, input, classification, queue.KindFolder, ""))
			return
		}
		if len(mediaFiles) > 0 {
			kind := queue.KindFolder
			if allEbooks(mediaFiles) {
				kind = queue.KindEbook
			}
			*items = append(*items, s.buildItem(root, dir, input, classification, kind, filepath.Join(dir, mediaFiles[0])))
			return
		}
	} else {
		for _, name := range mediaFiles {
			path := filepath.Join(dir, name)
			input := structure.Input{Segments: []string{name}}
			classification := structure.Classify(input)
			kind := queue.KindLooseFile
			if isEbook(name) {
				kind = queue.KindEbook
			}
			*items = append(*items, s.buildItem(root, path, input, classification, kind, path))
		}
	}

	for _, name := range subdirs {
		s.walk(ctx, root, filepath.Join(dir, name), append(segments[:len(segments):len(segments)], name), items)
	}
}

func (s *Scanner) buildItem(root, path string, input structure.Input, classification structure.Classification, kind queue.Kind, mediaPath string) Item {
	hints := structure.ParseHints(input, classification.Tag)
	if s.tagReader != nil && mediaPath != "" && (hints.Author == "" || hints.Title == "") {
		if tags, err := s.tagReader.ReadTags(mediaPath); err == nil {
			if hints.Author == "" {
				hints.Author = strings.TrimSpace(tags.Author)
			}
			if hints.Title == "" {
				if album := strings.TrimSpace(tags.Album); album != "" {
					hints.Title = album
				} else {
					hints.Title = strings.TrimSpace(tags.Title)
				}
			}
		}
	}
	return Item{
		SourcePath:     path,
		LibraryRoot:    root,
		Kind:           kind,
		Classification: classification,
		Hints:          hints,
	}
}

func isMediaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := audioExtensions[ext]; ok {
		return true
	}
	return isEbook(name)
}

func isEbook(name string) bool {
	_, ok := ebookExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func allEbooks(names []string) bool {
	for _, name := range names {
		if !isEbook(name) {
			return false
		}
	}
	return len(names) > 0
}
