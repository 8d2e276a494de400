// Package book turns plain-text novels into chapters and readable segments.
package book

const (
	// DefaultTitle names the chapter that collects text before the first heading.
	DefaultTitle = "序章 / 开始"

	// EmptySegment stands in for a chapter with no readable lines.
	EmptySegment = "(本章为空)"

	idPrefix = "chap-"
)

// Book is a parsed novel. It is never mutated after Parse returns; loading a
// new file produces a new Book.
type Book struct {
	Filename string
	Chapters []Chapter
}

// Chapter is one section of a Book.
type Chapter struct {
	ID       string   // Stable identity, "chap-N" in emission order
	Title    string   // Heading line, or DefaultTitle
	Content  string   // Trimmed raw text of the chapter
	Segments []string // Non-empty trimmed lines, never empty
}

// Len returns the number of chapters.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Chapters)
}

// Chapter returns the chapter at index i.
func (b *Book) Chapter(i int) (Chapter, bool) {
	if i < 0 || i >= b.Len() {
		return Chapter{}, false
	}
	return b.Chapters[i], true
}

// Segment returns the text of segment s in chapter c.
func (b *Book) Segment(c, s int) (string, bool) {
	ch, ok := b.Chapter(c)
	if !ok || s < 0 || s >= len(ch.Segments) {
		return "", false
	}
	return ch.Segments[s], true
}

// Len returns the number of segments.
func (c Chapter) Len() int {
	return len(c.Segments)
}
