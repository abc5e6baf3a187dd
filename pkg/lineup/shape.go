package lineup

import "strings"

// Indent is the indentation of a line: whole block levels plus alignment
// columns (for content lined up under an opening delimiter).
type Indent struct {
	// Block is a multiple of Config.TabSpaces.
	Block int
	// Alignment is always rendered as spaces.
	Alignment int
}

// Width is the total number of columns the indentation occupies.
func (i Indent) Width() int {
	return i.Block + i.Alignment
}

// BlockIndent returns i one block level deeper.
func (i Indent) BlockIndent(cfg *Config) Indent {
	i.Block += cfg.TabSpaces
	return i
}

// BlockUnindent returns i one block level shallower, clamped at zero.
func (i Indent) BlockUnindent(cfg *Config) Indent {
	i.Block = saturatingSub(i.Block, cfg.TabSpaces)
	return i
}

// BlockOnly drops the alignment component.
func (i Indent) BlockOnly() Indent {
	return Indent{Block: i.Block}
}

// Add returns i with n more alignment columns.
func (i Indent) Add(n int) Indent {
	i.Alignment += n
	return i
}

// String renders the indentation as it appears at the start of a line.
func (i Indent) String(cfg *Config) string {
	if cfg.HardTabs {
		tabs := i.Block / cfg.TabSpaces
		spaces := i.Block%cfg.TabSpaces + i.Alignment
		return strings.Repeat("\t", tabs) + strings.Repeat(" ", spaces)
	}
	return strings.Repeat(" ", i.Width())
}

// Newline renders a line break followed by the indentation.
func (i Indent) Newline(cfg *Config) string {
	return "\n" + i.String(cfg)
}

// Shape is the budget available to a piece of output: how many columns
// remain on the current line, the indentation of continuation lines, and
// how many columns are already used on the current line.
//
// Shape is passed by value and only ever narrowed going deeper into the
// structure. Narrowing never wraps around; it fails with ErrExceedsWidth.
type Shape struct {
	Width  int
	Indent Indent
	// Offset is the column at which this shape's content starts, not
	// counting the block indentation.
	Offset int
}

// LegacyShape is a shape whose offset is its alignment.
func LegacyShape(width int, indent Indent) Shape {
	return Shape{
		Width:  width,
		Indent: indent,
		Offset: indent.Alignment,
	}
}

// IndentedShape starts a fresh line at indent and takes the rest of
// the line.
func IndentedShape(indent Indent, cfg *Config) Shape {
	return Shape{
		Width:  saturatingSub(cfg.MaxWidth, indent.Width()),
		Indent: indent,
		Offset: indent.Alignment,
	}
}

// WithMaxWidth widens the shape to the rest of a maximal line.
func (s Shape) WithMaxWidth(cfg *Config) Shape {
	s.Width = saturatingSub(cfg.MaxWidth, s.Indent.Width())
	return s
}

// VisualIndent aligns continuation lines extra columns right of the
// current offset, leaving the block component untouched.
func (s Shape) VisualIndent(extra int) Shape {
	alignment := s.Offset + extra
	return Shape{
		Width:  s.Width,
		Indent: Indent{Block: s.Indent.Block, Alignment: alignment},
		Offset: alignment,
	}
}

// BlockIndent moves to a new line extra columns deeper. A shape without
// alignment gains block indentation; an aligned shape stays aligned.
func (s Shape) BlockIndent(extra int) Shape {
	if s.Indent.Alignment == 0 {
		return Shape{
			Width:  s.Width,
			Indent: Indent{Block: s.Indent.Block + extra},
			Offset: 0,
		}
	}
	return Shape{
		Width:  s.Width,
		Indent: s.Indent.Add(extra),
		Offset: s.Indent.Alignment + extra,
	}
}

// Block drops the alignment component of the indentation.
func (s Shape) Block() Shape {
	s.Indent = s.Indent.BlockOnly()
	return s
}

// AddOffset records n more columns used on the current line without
// touching the width.
func (s Shape) AddOffset(n int) Shape {
	s.Offset += n
	return s
}

// SubWidth removes n columns from the end of the budget.
func (s Shape) SubWidth(n int) (Shape, error) {
	if n > s.Width {
		return s, ErrExceedsWidth
	}
	s.Width -= n
	return s, nil
}

// OffsetLeft accounts for n columns of content already written before this
// shape's content on the same line.
func (s Shape) OffsetLeft(n int) (Shape, error) {
	return s.AddOffset(n).SubWidth(n)
}

// ShrinkLeft is OffsetLeft for content that continuation lines must align
// with.
func (s Shape) ShrinkLeft(n int) (Shape, error) {
	if n > s.Width {
		return s, ErrExceedsWidth
	}
	return Shape{
		Width:  s.Width - n,
		Indent: s.Indent.Add(n),
		Offset: s.Offset + n,
	}, nil
}

// BlockLeft indents by n columns and takes them from the budget.
func (s Shape) BlockLeft(n int) (Shape, error) {
	return s.BlockIndent(n).SubWidth(n)
}

// UsedWidth is the number of columns already consumed on the current line.
func (s Shape) UsedWidth() int {
	return s.Indent.Block + s.Offset
}

// RHSOverhead is the number of columns at the end of a maximal line that
// lie outside this shape.
func (s Shape) RHSOverhead(cfg *Config) int {
	return saturatingSub(cfg.MaxWidth, s.UsedWidth()+s.Width)
}

// Fits reports whether a single line of text fits the shape.
func (s Shape) Fits(text string) bool {
	return DisplayWidth(text) <= s.Width
}
