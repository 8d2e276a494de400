package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dgnsrekt/tingshu/book"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chaptersCmd = &cobra.Command{
	Use:     "chapters FILE",
	Short:   "List the chapters of a novel",
	Long:    paragraph(fmt.Sprintf("\n%s the chapters tingshu finds in a TXT file, with their segment counts and sizes.", keyword("List"))),
	Example: paragraph("tingshu chapters 三体.txt"),
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		b, err := book.Load(args[0])
		if err != nil {
			return err //nolint:wrapcheck
		}
		writeChapters(os.Stdout, b, terminalWidth())
		return nil
	},
}

// terminalWidth returns the width of stdout, or 80 when it is not a terminal.
func terminalWidth() int {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}

// writeChapters prints one row per chapter. Titles are cut to fit width.
func writeChapters(w io.Writer, b *book.Book, width int) {
	const (
		numWidth  = 5
		idWidth   = 10
		segWidth  = 9
		sizeWidth = 9
		gaps      = 4
	)
	titleWidth := max(width-numWidth-idWidth-segWidth-sizeWidth-gaps, 10)

	row := func(num, id, title, segs, size string) string {
		return runewidth.FillLeft(num, numWidth) + " " +
			runewidth.FillRight(id, idWidth) + " " +
			runewidth.FillRight(runewidth.Truncate(title, titleWidth, "…"), titleWidth) + " " +
			runewidth.FillLeft(segs, segWidth) + " " +
			runewidth.FillLeft(size, sizeWidth)
	}

	fmt.Fprintln(w, headerStyle.Render(row("#", "ID", "TITLE", "SEGMENTS", "SIZE")))

	var total int
	for i, n := 0, b.Len(); i < n; i++ {
		ch, _ := b.Chapter(i)
		total += len(ch.Content)
		fmt.Fprintln(w, strings.TrimRight(row(
			strconv.Itoa(i+1),
			ch.ID,
			ch.Title,
			strconv.Itoa(ch.Len()),
			humanize.Bytes(uint64(len(ch.Content))), //nolint:gosec
		), " "))
	}

	fmt.Fprintln(w, faintStyle.Render(fmt.Sprintf("%s: %d chapters, %s", b.Filename, b.Len(), humanize.Bytes(uint64(total))))) //nolint:gosec
}
