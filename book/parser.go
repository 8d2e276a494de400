package book

import (
	"regexp"
	"strconv"
	"strings"
)

// headingRegex matches a chapter or volume heading such as "第十章 风起" or
// "第3卷". It is applied to trimmed lines.
var headingRegex = regexp.MustCompile(`^\s*(第[0-9零一二三四五六七八九十百千万]+[卷章].*)$`)

// lineBreakRegex splits on both newline conventions.
var lineBreakRegex = regexp.MustCompile(`\r?\n`)

// IsHeading reports whether line starts a new chapter.
func IsHeading(line string) bool {
	return headingRegex.MatchString(strings.TrimSpace(line))
}

// Parse splits text into chapters at heading lines. Text before the first
// heading belongs to a chapter titled DefaultTitle. Chapters with no content
// are dropped, except that the end of input always leaves at least one.
func Parse(filename, text string) *Book {
	b := &Book{Filename: filename}

	title := DefaultTitle
	var buf []string

	for _, line := range lineBreakRegex.Split(text, -1) {
		trimmed := strings.TrimSpace(line)
		if headingRegex.MatchString(trimmed) {
			b.flush(title, buf, false)
			title = trimmed
			buf = buf[:0]
			continue
		}
		buf = append(buf, line)
	}
	b.flush(title, buf, true)

	return b
}

// flush emits a chapter for title with the buffered raw lines. Empty content
// is dropped unless this is the final flush and nothing was emitted yet.
func (b *Book) flush(title string, lines []string, final bool) {
	content := strings.TrimSpace(strings.Join(lines, "\n"))
	if content == "" && (!final || len(b.Chapters) > 0) {
		return
	}

	b.Chapters = append(b.Chapters, Chapter{
		ID:       idPrefix + strconv.Itoa(len(b.Chapters)),
		Title:    title,
		Content:  content,
		Segments: segments(content),
	})
}

// segments returns the non-empty trimmed lines of content.
func segments(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{EmptySegment}
	}
	return out
}
