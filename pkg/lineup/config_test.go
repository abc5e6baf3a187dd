package lineup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
max_width = 80
hard_tabs = true
indent_style = "visual"
trailing_comma = "Always"
imports_layout = "horizontal-vertical"
normalize_comments = true
binop_separator = "Back"
`), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 80, config.MaxWidth)
	assert.True(t, config.HardTabs)
	assert.Equal(t, IndentVisual, config.IndentStyle)
	assert.Equal(t, SeparatorAlways, config.TrailingComma)
	assert.Equal(t, PreferHorizontalVertical, config.ImportsLayout)
	assert.True(t, config.NormalizeComments)
	assert.Equal(t, SeparatorBack, config.BinopSeparator)

	// Unset keys keep their defaults.
	assert.Equal(t, 4, config.TabSpaces)
	assert.Equal(t, 60, config.FnCallWidth)
	assert.Equal(t, 18, config.StructLitWidth)
	assert.Equal(t, SeparatorFront, DefaultConfig().BinopSeparator)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("unknown enum value", func(t *testing.T) {
		path := filepath.Join(dir, "enum.toml")
		require.NoError(t, os.WriteFile(path, []byte(`indent_style = "sideways"`), 0644))
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("unknown separator place", func(t *testing.T) {
		path := filepath.Join(dir, "binop.toml")
		require.NoError(t, os.WriteFile(path, []byte(`binop_separator = "middle"`), 0644))
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("negative array element threshold", func(t *testing.T) {
		path := filepath.Join(dir, "threshold.toml")
		require.NoError(t, os.WriteFile(path, []byte(`short_array_element_width_threshold = -1`), 0644))
		_, err := LoadConfig(path)
		require.ErrorContains(t, err, "short_array_element_width_threshold")
	})

	t.Run("zero width", func(t *testing.T) {
		path := filepath.Join(dir, "width.toml")
		require.NoError(t, os.WriteFile(path, []byte(`max_width = 0`), 0644))
		_, err := LoadConfig(path)
		require.ErrorContains(t, err, "max_width")
	})
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	t.Run("defaults without a file", func(t *testing.T) {
		path, config, err := FindConfig(nested)
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, DefaultConfig(), config)
	})

	t.Run("walks up to the nearest file", func(t *testing.T) {
		want := filepath.Join(root, "a", ConfigFileName)
		require.NoError(t, os.WriteFile(want, []byte("tab_spaces = 2\n"), 0644))

		path, config, err := FindConfig(nested)
		require.NoError(t, err)
		assert.Equal(t, want, path)
		assert.Equal(t, 2, config.TabSpaces)
	})
}

func TestSeparatorTacticText(t *testing.T) {
	for input, expected := range map[string]SeparatorTactic{
		"Always":        SeparatorAlways,
		"never":         SeparatorNever,
		"Vertical":      SeparatorVertical,
		"FollowsTactic": SeparatorVertical,
	} {
		var got SeparatorTactic
		require.NoError(t, got.UnmarshalText([]byte(input)), input)
		assert.Equal(t, expected, got, input)
	}

	text, err := SeparatorAlways.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Always", string(text))
}

func TestValidateReportsFirstInvalidWidth(t *testing.T) {
	config := DefaultConfig()
	config.FnCallWidth = -1
	config.StructLitWidth = -2
	config.ArrayWidth = -3
	config.ShortArrayElementWidthThreshold = -4

	for range 20 {
		err := config.Validate()
		require.EqualError(t, err, "fn_call_width must not be negative, got -1")
	}

	config.FnCallWidth = 60
	config.StructLitWidth = 18
	config.ArrayWidth = 60
	require.EqualError(t, config.Validate(), "short_array_element_width_threshold must not be negative, got -4")
}

func TestSeparatorPlaceText(t *testing.T) {
	for input, expected := range map[string]SeparatorPlace{
		"Front": SeparatorFront,
		"front": SeparatorFront,
		"Back":  SeparatorBack,
	} {
		var got SeparatorPlace
		require.NoError(t, got.UnmarshalText([]byte(input)), input)
		assert.Equal(t, expected, got, input)
	}

	text, err := SeparatorFront.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Front", string(text))
}
