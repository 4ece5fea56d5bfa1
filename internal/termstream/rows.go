package termstream

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// lastRows keeps the last maxRows terminal rows of rendered output,
// counting the rows long lines wrap onto at the given width. Width 0
// falls back to counting plain lines.
func lastRows(s string, maxRows, width int) string {
	lines := strings.Split(s, "\n")
	rows := 0
	start := len(lines)
	for start > 0 {
		rows += displayRows(lines[start-1], width)
		if rows > maxRows {
			break
		}
		start--
	}
	return strings.Join(lines[start:], "\n")
}

// displayRows reports how many terminal rows one line occupies.
func displayRows(line string, width int) int {
	if width <= 0 {
		return 1
	}
	cols := displayWidth(line)
	if cols == 0 {
		return 1
	}
	return (cols + width - 1) / width
}

// displayWidth measures the printed width of a line, skipping ANSI
// escape sequences and counting wide runes by their cell width.
func displayWidth(s string) int {
	cols := 0
	inEscape := false
	for i := 0; i < len(s); {
		b := s[i]
		if b == '\x1b' {
			inEscape = true
			i++
			continue
		}
		if inEscape {
			if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') {
				inEscape = false
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			cols++
			i++
			continue
		}
		cols += runewidth.RuneWidth(r)
		i += size
	}
	return cols
}
