package fs

import (
	"strings"
	"unicode"

	"github.com/fwojciec/syopub"
)

// ParseChapter splits chapter text into a title and content. The title is
// the first non-blank line, trimmed. The content is every line after it,
// with trailing whitespace removed. Leading indentation is kept and the
// characters are otherwise left as read.
func ParseChapter(source, text string) (*syopub.Chapter, error) {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		title := strings.TrimSpace(line)
		if title == "" {
			continue
		}
		content := strings.Join(lines[i+1:], "\n")
		return &syopub.Chapter{
			Source:  source,
			Index:   syopub.ParseChapterIndex(source),
			Title:   title,
			Content: strings.TrimRightFunc(content, unicode.IsSpace),
		}, nil
	}
	return nil, syopub.Errorf(syopub.ESTORAGE, "no title found in chapter %s", source)
}
