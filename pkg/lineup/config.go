package lineup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/iancoleman/strcase"
)

// ConfigFileName is the name of the project configuration file.
const ConfigFileName = "lineup.toml"

// IndentStyle controls how call-like lists are indented when they break.
type IndentStyle uint8

const (
	// IndentBlock moves broken lists to a new line, one block indent deeper.
	IndentBlock IndentStyle = iota
	// IndentVisual aligns broken lists under their opening delimiter.
	IndentVisual
)

func (s IndentStyle) String() string {
	if s == IndentVisual {
		return "Visual"
	}
	return "Block"
}

func (s *IndentStyle) UnmarshalText(text []byte) error {
	switch normalizeEnum(string(text)) {
	case "block":
		*s = IndentBlock
	case "visual":
		*s = IndentVisual
	default:
		return fmt.Errorf("unknown indent style %q", text)
	}
	return nil
}

// Config is the read-only configuration consumed by the engine. It is
// decoded once per run and must not be mutated while formatting.
type Config struct {
	// MaxWidth is the maximum width of a line.
	MaxWidth int `toml:"max_width"`

	// TabSpaces is the width of one level of block indentation.
	TabSpaces int `toml:"tab_spaces"`

	// HardTabs indents with tab characters instead of spaces.
	HardTabs bool `toml:"hard_tabs"`

	IndentStyle IndentStyle `toml:"indent_style"`

	// TrailingComma decides when the last item of a list gets a separator.
	TrailingComma SeparatorTactic `toml:"trailing_comma"`

	// NormalizeComments rewrites block comments as line comments where
	// possible and never glues a leading comment to its item.
	NormalizeComments bool `toml:"normalize_comments"`

	// Soft limits for horizontal layouts, per construct.
	FnCallWidth     int `toml:"fn_call_width"`
	AttrFnLikeWidth int `toml:"attr_fn_like_width"`
	StructLitWidth  int `toml:"struct_lit_width"`
	ArrayWidth      int `toml:"array_width"`

	// ShortArrayElementWidthThreshold is the widest element an array may
	// contain and still be packed with the Mixed tactic.
	ShortArrayElementWidthThreshold int `toml:"short_array_element_width_threshold"`

	// OverflowDelimitedExpr lets arrays, struct literals and bracketed
	// macros overflow as the last argument of a call of any arity.
	OverflowDelimitedExpr bool `toml:"overflow_delimited_expr"`

	// ImportsLayout is the preferred tactic for nested import lists.
	ImportsLayout ListTactic `toml:"imports_layout"`

	// BinopSeparator places the "|" of a broken or-pattern at the start
	// of each continuation line (Front) or at the end of the line it
	// follows (Back).
	BinopSeparator SeparatorPlace `toml:"binop_separator"`
}

// DefaultConfig returns the configuration used when no lineup.toml exists.
func DefaultConfig() *Config {
	return &Config{
		MaxWidth:                        100,
		TabSpaces:                       4,
		IndentStyle:                     IndentBlock,
		TrailingComma:                   SeparatorVertical,
		FnCallWidth:                     60,
		AttrFnLikeWidth:                 70,
		StructLitWidth:                  18,
		ArrayWidth:                      60,
		ShortArrayElementWidthThreshold: 10,
		ImportsLayout:                   PreferMixed,
		BinopSeparator:                  SeparatorFront,
	}
}

// Validate reports configuration values the engine cannot work with.
func (c *Config) Validate() error {
	if c.MaxWidth <= 0 {
		return fmt.Errorf("max_width must be positive, got %d", c.MaxWidth)
	}
	if c.TabSpaces <= 0 {
		return fmt.Errorf("tab_spaces must be positive, got %d", c.TabSpaces)
	}
	for _, w := range []struct {
		name  string
		value int
	}{
		{"fn_call_width", c.FnCallWidth},
		{"attr_fn_like_width", c.AttrFnLikeWidth},
		{"struct_lit_width", c.StructLitWidth},
		{"array_width", c.ArrayWidth},
		{"short_array_element_width_threshold", c.ShortArrayElementWidthThreshold},
	} {
		if w.value < 0 {
			return fmt.Errorf("%s must not be negative, got %d", w.name, w.value)
		}
	}
	return nil
}

// LoadConfig loads a lineup.toml file from the given path on top of the
// defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// FindConfig searches for a lineup.toml file starting from dir and walking
// up to parent directories. Returns the path and the parsed config, or
// ("", DefaultConfig(), nil) if none was found.
func FindConfig(dir string) (string, *Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			config, err := LoadConfig(path)
			if err != nil {
				return "", nil, err
			}
			return path, config, nil
		}

		// Stop at .git boundary
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", DefaultConfig(), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", DefaultConfig(), nil
		}
		dir = parent
	}
}

// normalizeEnum folds the spellings HorizontalVertical, horizontal_vertical
// and horizontal-vertical onto one key.
func normalizeEnum(s string) string {
	return strcase.ToSnake(s)
}
