// Package fs reads books from a directory tree and writes publication
// receipts next to them.
//
// A book directory holds a metadata file and a chapters directory:
//
//	<root>/<book>/metadata.toml
//	<root>/<book>/chapters/chapter_1.txt
//	<root>/<book>/chapters/chapter_2.txt
package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fwojciec/syopub"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// ChaptersDir is the subdirectory of a book directory holding chapter files.
const ChaptersDir = "chapters"

// Ensure BookSource implements syopub.BookSource at compile time.
var _ syopub.BookSource = (*BookSource)(nil)

// BookSource implements syopub.BookSource on the local filesystem.
type BookSource struct {
	ext      string
	encoding encoding.Encoding
}

// NewBookSource creates a BookSource reading chapter files with extension
// ext encoded in the named charset. Charset names are WHATWG labels such as
// "utf-8" or "shift_jis".
func NewBookSource(ext, charset string) (*BookSource, error) {
	if ext == "" {
		ext = syopub.DefaultChapterExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if charset == "" {
		charset = syopub.DefaultEncoding
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, syopub.Errorf(syopub.ECONFIG, "unknown chapter encoding %q", charset)
	}
	return &BookSource{ext: ext, encoding: enc}, nil
}

// Discover returns the book directories directly under root in name order.
// Hidden directories are ignored.
func (s *BookSource) Discover(ctx context.Context, root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, syopub.Errorf(syopub.ESTORAGE, "data directory %s does not exist", root)
		}
		return nil, syopub.Errorf(syopub.ESTORAGE, "read data directory %s: %v", root, err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirs = append(dirs, filepath.Join(root, e.Name()))
	}
	slices.Sort(dirs)
	return dirs, nil
}

// Load reads the metadata and every chapter of the book in dir. Chapters
// are returned sorted by index.
func (s *BookSource) Load(ctx context.Context, dir string) (*syopub.Book, error) {
	meta, err := ReadMetadata(dir)
	if err != nil {
		return nil, err
	}

	chapters, err := s.readChapters(ctx, filepath.Join(dir, ChaptersDir))
	if err != nil {
		return nil, err
	}

	book := &syopub.Book{
		Dir:         dir,
		Title:       meta.Title,
		Author:      meta.Author,
		Language:    meta.Language,
		Description: meta.Description,
		Subjects:    meta.Subject,
		Chapters:    chapters,
	}
	if book.Subjects == nil {
		book.Subjects = []string{}
	}
	if err := book.Validate(); err != nil {
		return nil, syopub.Errorf(syopub.ESTORAGE, "%s: %s", dir, syopub.ErrorMessage(err))
	}
	return book, nil
}

func (s *BookSource) readChapters(ctx context.Context, dir string) ([]*syopub.Chapter, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, syopub.Errorf(syopub.ESTORAGE, "chapters directory %s does not exist", dir)
		}
		return nil, syopub.Errorf(syopub.ESTORAGE, "read chapters directory %s: %v", dir, err)
	}

	// os.ReadDir returns entries sorted by name, which fixes the order of
	// chapters sharing an index.
	var chapters []*syopub.Chapter
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != s.ext {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ch, err := s.ReadChapter(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	syopub.SortChapters(chapters)
	return chapters, nil
}

// ReadChapter reads and parses a single chapter file.
func (s *BookSource) ReadChapter(path string) (*syopub.Chapter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, syopub.Errorf(syopub.ESTORAGE, "read chapter %s: %v", path, err)
	}
	text, err := s.encoding.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, syopub.Errorf(syopub.ESTORAGE, "decode chapter %s: %v", path, err)
	}
	return ParseChapter(filepath.Base(path), string(text))
}
