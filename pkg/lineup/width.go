package lineup

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// DisplayWidth returns the number of terminal columns s occupies, accounting
// for wide characters. All budget arithmetic goes through it.
func DisplayWidth(s string) int {
	return ansi.StringWidth(s)
}

// FirstLineWidth returns the display width of the first line of s.
func FirstLineWidth(s string) int {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return DisplayWidth(s[:i])
	}
	return DisplayWidth(s)
}

// LastLineWidth returns the display width of the last line of s.
func LastLineWidth(s string) int {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return DisplayWidth(s[i+1:])
	}
	return DisplayWidth(s)
}

// CountNewlines returns the number of newline characters in s.
func CountNewlines(s string) int {
	return strings.Count(s, "\n")
}

// lastLine returns the text after the final newline of s.
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// firstLine returns the text before the first newline of s.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ExtraOffset is the width text adds to the current line, measured from
// the shape's indentation when text spans several lines.
func ExtraOffset(text string, shape Shape) int {
	if strings.Contains(text, "\n") {
		w := LastLineWidth(text) - shape.Indent.Width()
		if w < 0 {
			return 0
		}
		return w
	}
	return DisplayWidth(text)
}

func saturatingSub(a, b int) int {
	if b > a {
		return 0
	}
	return a - b
}
