package lineup

import (
	"fmt"
	"strconv"
	"strings"
)

type listTacticKind uint8

const (
	tacticVertical listTacticKind = iota
	tacticHorizontal
	tacticHorizontalVertical
	tacticLimitedHorizontalVertical
	tacticMixed
)

// ListTactic is a layout preference, resolved by DefinitiveTactic.
type ListTactic struct {
	kind  listTacticKind
	limit int
}

var (
	// PreferVertical puts every item on its own line.
	PreferVertical = ListTactic{kind: tacticVertical}
	// PreferHorizontal puts all items on one line regardless of width.
	PreferHorizontal = ListTactic{kind: tacticHorizontal}
	// PreferHorizontalVertical is Horizontal if everything fits on one line,
	// Vertical otherwise.
	PreferHorizontalVertical = ListTactic{kind: tacticHorizontalVertical}
	// PreferMixed packs as many items on each line as fit.
	PreferMixed = ListTactic{kind: tacticMixed}
)

// PreferLimitedHorizontalVertical is PreferHorizontalVertical with the
// single line capped at limit columns even when more would fit.
func PreferLimitedHorizontalVertical(limit int) ListTactic {
	return ListTactic{kind: tacticLimitedHorizontalVertical, limit: limit}
}

// Limit returns the soft width limit of a LimitedHorizontalVertical tactic.
func (t ListTactic) Limit() (int, bool) {
	return t.limit, t.kind == tacticLimitedHorizontalVertical
}

func (t ListTactic) String() string {
	switch t.kind {
	case tacticHorizontal:
		return "Horizontal"
	case tacticHorizontalVertical:
		return "HorizontalVertical"
	case tacticLimitedHorizontalVertical:
		return fmt.Sprintf("LimitedHorizontalVertical(%d)", t.limit)
	case tacticMixed:
		return "Mixed"
	default:
		return "Vertical"
	}
}

func (t *ListTactic) UnmarshalText(text []byte) error {
	s := normalizeEnum(string(text))
	switch s {
	case "vertical":
		*t = PreferVertical
	case "horizontal":
		*t = PreferHorizontal
	case "horizontal_vertical":
		*t = PreferHorizontalVertical
	case "mixed":
		*t = PreferMixed
	default:
		// limited_horizontal_vertical(40)
		if rest, ok := strings.CutPrefix(s, "limited_horizontal_vertical("); ok {
			n, err := strconv.Atoi(strings.TrimSuffix(rest, ")"))
			if err == nil && n >= 0 {
				*t = PreferLimitedHorizontalVertical(n)
				return nil
			}
		}
		return fmt.Errorf("unknown list tactic %q", text)
	}
	return nil
}

func (t ListTactic) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Tactic is a resolved layout.
type Tactic uint8

const (
	Horizontal Tactic = iota
	Vertical
	Mixed
	// SpecialMacro lays out format-style argument lists: the arguments
	// before the format string on the first line, the format string on its
	// own line, and the remaining arguments together on the line after.
	SpecialMacro
)

func (t Tactic) String() string {
	switch t {
	case Vertical:
		return "Vertical"
	case Mixed:
		return "Mixed"
	case SpecialMacro:
		return "SpecialMacro"
	default:
		return "Horizontal"
	}
}

// Separator is the token between list items, as far as width is concerned.
type Separator uint8

const (
	Comma Separator = iota
	VerticalBar
)

// Len is the width of the separator including surrounding spaces.
func (s Separator) Len() int {
	switch s {
	case VerticalBar:
		return len(" | ")
	default:
		return len(", ")
	}
}

// ItemWidth is the width an item occupies in a horizontal list: its last
// line plus any comments, each padded for " /* " and " */".
func ItemWidth(it ListItem) int {
	return commentWidth(it.PreComment) + commentWidth(it.PostComment) + DisplayWidth(lastLine(it.Text))
}

func commentWidth(comment string) int {
	n := DisplayWidth(strings.TrimSpace(comment))
	if n > 0 {
		n += 6
	}
	return n
}

// TotalWidth is the width of items laid out on one line.
func TotalWidth(items []ListItem, sep Separator) int {
	total := 0
	for _, it := range items {
		total += ItemWidth(it)
	}
	if len(items) > 1 {
		total += sep.Len() * (len(items) - 1)
	}
	return total
}

// DefinitiveTactic resolves a layout preference for items against width.
// It depends on nothing but its arguments.
func DefinitiveTactic(items []ListItem, preferred ListTactic, sep Separator, width int) Tactic {
	for _, it := range items {
		if it.PreComment != "" || isLineComment(it.PostComment) {
			return Vertical
		}
	}

	limit := width
	switch preferred.kind {
	case tacticHorizontal:
		return Horizontal
	case tacticVertical:
		return Vertical
	case tacticMixed:
		return Mixed
	case tacticLimitedHorizontalVertical:
		limit = min(width, preferred.limit)
	}

	for _, it := range items {
		if it.IsMultiline() {
			return Vertical
		}
	}
	if TotalWidth(items, sep) <= limit {
		return Horizontal
	}
	return Vertical
}
