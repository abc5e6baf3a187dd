// Package lineup lays out lists of pre-rendered items (call arguments,
// struct fields, match arms, import lists, generic parameters) within a
// column budget.
//
// A caller turns its items into ListItems with Itemize, which attaches the
// comments and blank lines found between them in the source. DefinitiveTactic
// then picks a horizontal, vertical or mixed layout for the budget, and
// WriteList renders the items with separators, comments and indentation.
// Delimited wraps the three steps for call-like lists whose last item may
// overflow onto several lines.
//
// Everything in this package is synchronous and free of side effects. The
// same inputs always produce the same output.
package lineup

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// SeparatorTactic decides whether the last item gets a separator.
type SeparatorTactic uint8

const (
	// SeparatorVertical adds a trailing separator only when the list is
	// laid out vertically.
	SeparatorVertical SeparatorTactic = iota
	SeparatorAlways
	SeparatorNever
)

func (t SeparatorTactic) String() string {
	switch t {
	case SeparatorAlways:
		return "Always"
	case SeparatorNever:
		return "Never"
	default:
		return "Vertical"
	}
}

func (t *SeparatorTactic) UnmarshalText(text []byte) error {
	switch normalizeEnum(string(text)) {
	case "always":
		*t = SeparatorAlways
	case "never":
		*t = SeparatorNever
	case "vertical", "follows_tactic":
		*t = SeparatorVertical
	default:
		return fmt.Errorf("unknown trailing separator tactic %q", text)
	}
	return nil
}

func (t SeparatorTactic) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// SeparatorPlace decides which side of an item its separator goes on.
type SeparatorPlace uint8

const (
	SeparatorBack SeparatorPlace = iota
	// SeparatorFront places separators at the start of the following
	// item's line. It only applies to vertical lists.
	SeparatorFront
)

func (p SeparatorPlace) String() string {
	if p == SeparatorFront {
		return "Front"
	}
	return "Back"
}

func (p *SeparatorPlace) UnmarshalText(text []byte) error {
	switch normalizeEnum(string(text)) {
	case "front":
		*p = SeparatorFront
	case "back":
		*p = SeparatorBack
	default:
		return fmt.Errorf("unknown separator place %q", text)
	}
	return nil
}

func (p SeparatorPlace) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func separatorPlaceFor(place SeparatorPlace, tactic Tactic) SeparatorPlace {
	if tactic == Vertical {
		return place
	}
	return SeparatorBack
}

// ListFormatting holds everything WriteList needs besides the items.
type ListFormatting struct {
	Tactic            Tactic
	Separator         string
	TrailingSeparator SeparatorTactic
	SeparatorPlace    SeparatorPlace
	// Shape is the shape of every item; its indentation starts every line
	// after the first.
	Shape Shape
	// EndsWithNewline is set when the closing delimiter goes on its own
	// line, so a broken Mixed list gets a trailing separator.
	EndsWithNewline bool
	// PreserveNewline keeps one blank line where the source had one
	// between items of a vertical list.
	PreserveNewline bool
	// Nested marks nested import lists: an item containing "::" starts a
	// new line in Mixed layout.
	Nested bool
	// AlignComments aligns trailing comments of consecutive items.
	AlignComments bool
	// SpecialArgs is the number of arguments before the format string
	// under the SpecialMacro tactic.
	SpecialArgs int
	Config      *Config
}

// NewListFormatting returns the default formatting for items at shape: a
// horizontal comma-separated list without trailing separator.
func NewListFormatting(shape Shape, cfg *Config) ListFormatting {
	return ListFormatting{
		Tactic:            Horizontal,
		Separator:         ",",
		TrailingSeparator: SeparatorNever,
		SeparatorPlace:    SeparatorBack,
		Shape:             shape,
		EndsWithNewline:   true,
		AlignComments:     true,
		Config:            cfg,
	}
}

func (f ListFormatting) needsTrailingSeparator() bool {
	switch f.TrailingSeparator {
	case SeparatorAlways:
		return true
	case SeparatorVertical:
		return f.Tactic == Vertical
	default:
		return false
	}
}

// WriteList renders items according to formatting. It fails if any item
// failed to render or a comment does not fit.
func WriteList(items []ListItem, formatting ListFormatting) (string, error) {
	cfg := formatting.Config
	tactic := formatting.Tactic
	sepLen := len(formatting.Separator)
	trailingSeparator := formatting.needsTrailingSeparator()
	sepPlace := separatorPlaceFor(formatting.SeparatorPlace, tactic)
	blankLines := formatting.PreserveNewline && tactic == Vertical
	indentStr := formatting.Shape.Indent.String(cfg)

	var (
		result                 strings.Builder
		itemMaxWidth           = -1
		prevItemHadPostComment bool
		prevItemIsNestedImport bool
		lineLen                int
	)

	for i, item := range items {
		if item.Err != nil {
			return "", errors.Wrapf(item.Err, "item %d", i)
		}
		inner := item.Text
		first := i == 0
		last := i == len(items)-1

		separate := !last || trailingSeparator
		if sepPlace == SeparatorFront {
			separate = !first
		}
		// The closing delimiter of a Mixed list goes on its own line, so
		// the list is vertical as far as the trailing separator is
		// concerned.
		if tactic == Mixed && last && formatting.EndsWithNewline {
			separate = formatting.TrailingSeparator != SeparatorNever
		}
		itemSepLen := 0
		if separate {
			itemSepLen = sepLen
		}

		// The width of a multi-line item, for comment alignment, is the
		// width of its last line.
		itemLastLine := lastLine(inner)
		itemLastLineWidth := DisplayWidth(itemLastLine) + itemSepLen
		if strings.HasPrefix(itemLastLine, indentStr) {
			itemLastLineWidth -= DisplayWidth(indentStr)
		}

		if !item.IsSubstantial() {
			continue
		}

		switch tactic {
		case Horizontal:
			if !first {
				result.WriteByte(' ')
			}
		case SpecialMacro:
			switch {
			case first:
			case i < formatting.SpecialArgs:
				result.WriteByte(' ')
			case i <= formatting.SpecialArgs+1:
				result.WriteByte('\n')
				result.WriteString(indentStr)
			default:
				result.WriteByte(' ')
			}
		case Vertical:
			if !first && inner != "" && result.Len() > 0 {
				result.WriteByte('\n')
				result.WriteString(indentStr)
			}
		case Mixed:
			totalWidth := ItemWidth(item) + itemSepLen

			// 1 is the space between separator and item.
			if (lineLen > 0 && lineLen+1+totalWidth > formatting.Shape.Width) ||
				prevItemHadPostComment ||
				(formatting.Nested && (prevItemIsNestedImport || (!first && strings.Contains(inner, "::")))) {
				result.WriteByte('\n')
				result.WriteString(indentStr)
				lineLen = 0
			} else if lineLen > 0 {
				result.WriteByte(' ')
				lineLen++
			}

			lineLen += totalWidth
		}

		// Leading comment.
		if item.PreComment != "" {
			blockMode := tactic != Vertical
			comment, err := RewriteComment(item.PreComment, blockMode, formatting.Shape, cfg)
			if err != nil {
				return "", errors.Wrap(err, "leading comment")
			}
			result.WriteString(comment)

			if inner != "" {
				if tactic != Horizontal {
					// A normalized comment, or one that had its own line,
					// cannot stay in front of the item.
					keep := false
					switch {
					case tactic == Mixed:
						// Packing already counted the comment.
						keep = true
					case !cfg.NormalizeComments && item.PreCommentStyle == CommentSameLine && !isLineComment(comment):
						// 1 is the space between comment and item.
						keep = ItemWidth(item)+itemSepLen+1 <= formatting.Shape.Width
					}
					if keep {
						result.WriteByte(' ')
					} else {
						result.WriteByte('\n')
						result.WriteString(indentStr)
						lineLen = DisplayWidth(inner)
					}
				} else {
					result.WriteByte(' ')
				}
			}
			itemMaxWidth = -1
		}

		if separate && sepPlace == SeparatorFront && !first {
			result.WriteString(strings.TrimSpace(formatting.Separator))
			result.WriteByte(' ')
		}
		result.WriteString(inner)

		if tactic == Horizontal && item.PostComment != "" {
			comment, err := RewriteComment(item.PostComment, true, LegacyShape(formatting.Shape.Width, Indent{}), cfg)
			if err != nil {
				return "", err
			}
			result.WriteByte(' ')
			result.WriteString(comment)
		}

		if separate && sepPlace == SeparatorBack {
			result.WriteString(formatting.Separator)
		}

		if tactic != Horizontal && item.PostComment != "" {
			comment := item.PostComment
			overhead := currentLineWidth(result.String(), formatting.Shape) + FirstLineWidth(strings.TrimSpace(comment))

			rewritePostComment := func() (string, error) {
				if itemMaxWidth < 0 && !last && !strings.Contains(inner, "\n") {
					itemMaxWidth = maxWidthOfItemWithPostComment(items, i, overhead, cfg.MaxWidth, blankLines)
				}
				var commentOverhead int
				switch {
				case startsWithNewline(comment):
					commentOverhead = 0
				case itemMaxWidth >= 0:
					commentOverhead = itemMaxWidth + 2
				default:
					// 1 is the space between item and comment.
					commentOverhead = itemLastLineWidth + 1
				}
				width := formatting.Shape.Width - commentOverhead
				if width < 1 {
					width = 1
				}
				commentShape := LegacyShape(width, formatting.Shape.Indent.Add(commentOverhead))

				var blockStyle bool
				switch {
				case !formatting.EndsWithNewline && last && tactic != Vertical:
					blockStyle = true
				case startsWithNewline(comment):
					blockStyle = false
				default:
					trimmed := strings.TrimSpace(comment)
					blockStyle = tactic == Mixed && !isLineComment(trimmed) && !strings.Contains(trimmed, "\n")
				}
				return RewriteComment(strings.TrimLeft(comment, " \t\n"), blockStyle, commentShape, cfg)
			}

			formatted, err := rewritePostComment()
			if err != nil {
				return "", err
			}

			if !startsWithNewline(comment) {
				if strings.Contains(formatted, "\n") {
					itemMaxWidth = -1
					formatted, err = rewritePostComment()
					if err != nil {
						return "", err
					}
				} else {
					alignment := postCommentAlignment(itemMaxWidth, DisplayWidth(inner))
					if FirstLineWidth(formatted)+currentLineWidth(result.String(), formatting.Shape)+alignment+1 > cfg.MaxWidth {
						itemMaxWidth = -1
						formatted, err = rewritePostComment()
						if err != nil {
							return "", err
						}
						alignment = postCommentAlignment(itemMaxWidth, DisplayWidth(inner))
					}
					if !formatting.AlignComments {
						alignment = 0
					}
					result.WriteString(strings.Repeat(" ", alignment+1))
				}
				// One more space stands in for the missing trailing separator.
				if formatting.AlignComments && last && itemMaxWidth >= 0 && !separate && formatting.Separator != "" {
					result.WriteByte(' ')
				}
			} else {
				result.WriteByte('\n')
				result.WriteString(indentStr)
			}
			if strings.Contains(formatted, "\n") {
				itemMaxWidth = -1
			}
			result.WriteString(formatted)
		} else {
			itemMaxWidth = -1
		}

		if blankLines && !last && items[i+1].HasPrecedingBlankLine {
			itemMaxWidth = -1
			result.WriteByte('\n')
		}

		prevItemHadPostComment = item.PostComment != ""
		prevItemIsNestedImport = strings.Contains(inner, "::")
	}

	return result.String(), nil
}

// currentLineWidth is the column reached at the end of out, where the
// first line starts at the shape's indentation.
func currentLineWidth(out string, shape Shape) int {
	if strings.Contains(out, "\n") {
		return LastLineWidth(out)
	}
	return shape.Indent.Width() + DisplayWidth(out)
}

// maxWidthOfItemWithPostComment finds the widest item of the run starting
// at i whose trailing comments can share one column. A blank line ends the
// run only when it is written out.
func maxWidthOfItemWithPostComment(items []ListItem, i, overhead, maxBudget int, blankLines bool) int {
	maxWidth := 0
	for j, item := range items[i:] {
		w := DisplayWidth(item.Text)
		if j > 0 && (item.isDifferentGroup() || item.PostComment == "" || w+overhead > maxBudget) {
			return maxWidth
		}
		maxWidth = max(maxWidth, w)
		if blankLines && i+j+1 < len(items) && items[i+j+1].HasPrecedingBlankLine {
			return maxWidth
		}
	}
	return maxWidth
}

func postCommentAlignment(itemMaxWidth, innerWidth int) int {
	if itemMaxWidth < 0 {
		return 0
	}
	return saturatingSub(itemMaxWidth, innerWidth)
}
