package syopub

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PublishThreshold is the number of characters a chapter body must exceed
// before the site accepts it for publication. Shorter chapters stay drafts.
const PublishThreshold = 200

// ChapterPrefix is the file name prefix carrying a chapter's sequence index.
const ChapterPrefix = "chapter_"

// Book represents a serialized work read from a book directory.
type Book struct {
	Dir         string     `json:"dir"`
	Title       string     `json:"title"`
	Author      string     `json:"author,omitempty"`
	Language    string     `json:"language,omitempty"`
	Description string     `json:"description,omitempty"`
	Subjects    []string   `json:"subject"`
	Chapters    []*Chapter `json:"chapters"`
}

// Validate returns an error if the book contains invalid fields.
func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return Errorf(EINVALID, "book title required")
	}
	for _, c := range b.Chapters {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Chapter represents one installment of a book.
type Chapter struct {
	Source  string `json:"source"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate returns an error if the chapter contains invalid fields.
func (c *Chapter) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return Errorf(EINVALID, "chapter %s: title required", c.Source)
	}
	return nil
}

// Chars returns the number of characters (not bytes) in the chapter body.
func (c *Chapter) Chars() int {
	return utf8.RuneCountInString(c.Content)
}

// Publishable reports whether the chapter body is long enough to publish.
func (c *Chapter) Publishable() bool {
	return c.Chars() > PublishThreshold
}

// ParseChapterIndex returns the sequence index encoded in a chapter file
// name such as "chapter_12.txt". Names without a parsable index return 0.
func ParseChapterIndex(name string) int {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	digits, ok := strings.CutPrefix(stem, ChapterPrefix)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SortChapters orders chapters by ascending index. The sort is numeric and
// stable, so chapters sharing an index keep their enumeration order.
func SortChapters(chapters []*Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Index < chapters[j].Index
	})
}

// KeywordArray serializes custom keywords in the form the site's metadata
// form expects: [{"value":"a"},{"value":"b"}]. No keywords yields "[]".
func KeywordArray(keywords []string) string {
	type keyword struct {
		Value string `json:"value"`
	}
	items := make([]keyword, 0, len(keywords))
	for _, k := range keywords {
		items = append(items, keyword{Value: k})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// BookSource reads books from storage.
type BookSource interface {
	// Discover returns the book directories found under root, sorted by name.
	// Returns ESTORAGE if root does not exist.
	Discover(ctx context.Context, root string) ([]string, error)

	// Load reads the metadata and chapters of one book directory.
	// Chapters are returned sorted by index.
	// Returns ESTORAGE if the directory layout is incomplete.
	Load(ctx context.Context, dir string) (*Book, error)
}
