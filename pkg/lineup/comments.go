package lineup

import (
	"strings"
	"unicode"
)

// charKind classifies a byte of source text.
type charKind uint8

const (
	kindCode charKind = iota
	kindString
	kindComment
)

// classify walks src and reports the kind of every byte to fn, stopping
// early when fn returns false. It understands double-quoted strings with
// backslash escapes, line comments and nested block comments.
func classify(src string, fn func(i int, k charKind) bool) {
	var (
		inString    bool
		inLine      bool
		blockDepth  int
		escaped     bool
		pendingKind = kindCode
	)
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inLine:
			if c == '\n' {
				inLine = false
				pendingKind = kindCode
			} else {
				pendingKind = kindComment
			}
		case blockDepth > 0:
			pendingKind = kindComment
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				if !fn(i, kindComment) {
					return
				}
				i++
				blockDepth--
			} else if c == '/' && i+1 < len(src) && src[i+1] == '*' {
				if !fn(i, kindComment) {
					return
				}
				i++
				blockDepth++
			}
		case inString:
			pendingKind = kindString
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		default:
			switch {
			case c == '"':
				inString = true
				pendingKind = kindString
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				inLine = true
				pendingKind = kindComment
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				if !fn(i, kindComment) {
					return
				}
				i++
				blockDepth = 1
				pendingKind = kindComment
			default:
				pendingKind = kindCode
			}
		}
		if !fn(i, pendingKind) {
			return
		}
	}
}

// FindUncommented returns the byte index of the first occurrence of pat in
// src that lies in code, outside of strings and comments, or -1.
func FindUncommented(src, pat string) int {
	if pat == "" {
		return -1
	}
	found := -1
	classify(src, func(i int, k charKind) bool {
		if k == kindCode && strings.HasPrefix(src[i:], pat) {
			found = i
			return false
		}
		return true
	})
	return found
}

// ContainsComment reports whether src has a line or block comment outside
// of string literals.
func ContainsComment(src string) bool {
	found := false
	classify(src, func(_ int, k charKind) bool {
		if k == kindComment {
			found = true
			return false
		}
		return true
	})
	return found
}

// FindCommentEnd returns the index just past the comment src starts with:
// after the closing "*/" of a block comment, or after the newline ending a
// line comment (len(src) if there is none).
func FindCommentEnd(src string) (int, bool) {
	if !strings.HasPrefix(src, "/*") && !strings.HasPrefix(src, "//") {
		return 0, false
	}
	end := len(src)
	classify(src, func(i int, k charKind) bool {
		if i > 1 && k != kindComment {
			end = i
			return false
		}
		return true
	})
	if strings.HasPrefix(src, "//") && end < len(src) && src[end] == '\n' {
		end++
	}
	if strings.HasPrefix(src, "/*") && !strings.HasSuffix(src[:end], "*/") {
		return 0, false
	}
	return end, true
}

// isLineComment reports whether the trimmed comment is a line comment.
func isLineComment(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "//")
}

func startsWithNewline(s string) bool {
	return strings.HasPrefix(s, "\n") || strings.HasPrefix(s, "\r\n")
}

// RewriteComment renders comment text for output at shape. With blockStyle
// set the result is a single line using block comment delimiters, suitable
// for placing inside a horizontal list; otherwise multi-line comments are
// re-indented to the shape's indentation.
func RewriteComment(orig string, blockStyle bool, shape Shape, cfg *Config) (string, error) {
	orig = strings.TrimSpace(orig)
	if orig == "" {
		return "", nil
	}

	if blockStyle {
		text := toBlockComment(orig)
		if strings.Contains(text, "\n") {
			return "", exceeds("comment %q cannot be placed inline", firstLine(orig))
		}
		return text, nil
	}

	if cfg.NormalizeComments {
		normalized := normalizeComment(orig)
		for _, line := range strings.Split(normalized, "\n") {
			if DisplayWidth(strings.TrimSpace(line)) > shape.Width {
				return "", exceeds("comment line %q", strings.TrimSpace(line))
			}
		}
		return strings.ReplaceAll(normalized, "\n", shape.Indent.Newline(cfg)), nil
	}

	return lightRewriteComment(orig, shape.Indent, cfg), nil
}

// lightRewriteComment trims every line and re-indents continuation lines,
// keeping a single space before a leading '*' so it lines up with "/*".
func lightRewriteComment(orig string, indent Indent, cfg *Config) string {
	lines := strings.Split(orig, "\n")
	for i, l := range lines {
		fnw := strings.IndexFunc(l, func(r rune) bool { return !unicode.IsSpace(r) })
		switch {
		case fnw < 0:
			lines[i] = ""
		case l[fnw] == '*' && fnw > 0:
			lines[i] = strings.TrimRightFunc(l[fnw-1:], unicode.IsSpace)
		default:
			lines[i] = strings.TrimRightFunc(l[fnw:], unicode.IsSpace)
		}
	}
	return strings.Join(lines, indent.Newline(cfg))
}

// toBlockComment converts a run of line comments or a single-line block
// comment into one inline block comment.
func toBlockComment(orig string) string {
	if strings.HasPrefix(orig, "/*") {
		return orig
	}
	var parts []string
	for _, line := range strings.Split(orig, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "//"))
		if line != "" {
			parts = append(parts, strings.ReplaceAll(line, "*/", "* /"))
		}
	}
	return "/* " + strings.Join(parts, " ") + " */"
}

// normalizeComment turns single-line block comments into line comments and
// puts one space after the "//" of line comments.
func normalizeComment(orig string) string {
	if strings.HasPrefix(orig, "/*") && strings.HasSuffix(orig, "*/") && !strings.Contains(orig, "\n") {
		body := strings.TrimSpace(orig[2 : len(orig)-2])
		if !strings.Contains(body, "/*") && !strings.Contains(body, "*/") {
			return strings.TrimRight("// "+body, " ")
		}
	}
	lines := strings.Split(orig, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "//"); ok {
			rest = strings.TrimSpace(rest)
			if rest == "" {
				line = "//"
			} else {
				line = "// " + rest
			}
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
