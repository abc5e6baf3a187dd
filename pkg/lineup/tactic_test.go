package lineup

import (
	"context"
	"strings"
	"testing"

	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/stretchr/testify/require"
)

type TacticSuite struct{}

func TestTactic(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(TacticSuite{})
}

func (TacticSuite) TestDefinitiveTactic(ctx context.Context, t *testctx.T) {
	tests := []struct {
		name      string
		items     []ListItem
		preferred ListTactic
		sep       Separator
		width     int
		expected  Tactic
	}{
		{
			name:      "fits on one line",
			items:     ItemsFromStrings("a", "b", "c"),
			preferred: PreferHorizontalVertical,
			width:     80,
			expected:  Horizontal,
		},
		{
			name:      "exactly fits",
			items:     ItemsFromStrings("aa", "bb"),
			preferred: PreferHorizontalVertical,
			width:     6,
			expected:  Horizontal,
		},
		{
			name:      "one column short",
			items:     ItemsFromStrings("aa", "bb"),
			preferred: PreferHorizontalVertical,
			width:     5,
			expected:  Vertical,
		},
		{
			name:      "vertical bar is wider",
			items:     ItemsFromStrings("aa", "bb"),
			preferred: PreferHorizontalVertical,
			sep:       VerticalBar,
			width:     6,
			expected:  Vertical,
		},
		{
			name:      "soft limit below the width",
			items:     ItemsFromStrings("aaaa", "bbbb", "cccc"),
			preferred: PreferLimitedHorizontalVertical(10),
			width:     80,
			expected:  Vertical,
		},
		{
			name:      "width below the soft limit",
			items:     ItemsFromStrings("aaaa", "bbbb"),
			preferred: PreferLimitedHorizontalVertical(60),
			width:     9,
			expected:  Vertical,
		},
		{
			name:      "multi-line item",
			items:     ItemsFromStrings("a", "b {\n}"),
			preferred: PreferHorizontalVertical,
			width:     80,
			expected:  Vertical,
		},
		{
			name:      "separator counted between items only",
			items:     []ListItem{{Text: "a"}, {Text: "b"}},
			preferred: PreferHorizontalVertical,
			width:     4,
			expected:  Horizontal,
		},
		{
			name:      "explicit horizontal",
			items:     ItemsFromStrings(strings.Repeat("a", 50), strings.Repeat("b", 50)),
			preferred: PreferHorizontal,
			width:     10,
			expected:  Horizontal,
		},
		{
			name:      "explicit vertical",
			items:     ItemsFromStrings("a"),
			preferred: PreferVertical,
			width:     80,
			expected:  Vertical,
		},
		{
			name:      "mixed is kept",
			items:     ItemsFromStrings("a", "b"),
			preferred: PreferMixed,
			width:     80,
			expected:  Mixed,
		},
		{
			name:      "leading comment forces vertical",
			items:     []ListItem{{Text: "a"}, {Text: "b", PreComment: "/* x */", PreCommentStyle: CommentSameLine}},
			preferred: PreferHorizontal,
			width:     80,
			expected:  Vertical,
		},
		{
			name:      "trailing line comment forces vertical",
			items:     []ListItem{{Text: "a", PostComment: "// x"}, {Text: "b"}},
			preferred: PreferMixed,
			width:     80,
			expected:  Vertical,
		},
		{
			name:      "trailing block comment counts toward the width",
			items:     []ListItem{{Text: "a", PostComment: "/* x */"}, {Text: "b"}},
			preferred: PreferHorizontalVertical,
			width:     17,
			expected:  Horizontal,
		},
		{
			name:      "trailing block comment too wide",
			items:     []ListItem{{Text: "a", PostComment: "/* x */"}, {Text: "b"}},
			preferred: PreferHorizontalVertical,
			width:     16,
			expected:  Vertical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(ctx context.Context, t *testctx.T) {
			got := DefinitiveTactic(tt.items, tt.preferred, tt.sep, tt.width)
			require.Equal(t, tt.expected, got)
			// Same arguments, same answer.
			require.Equal(t, got, DefinitiveTactic(tt.items, tt.preferred, tt.sep, tt.width))
		})
	}
}

func (TacticSuite) TestHorizontalFit(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	items := ItemsFromStrings("alpha", "beta", "gamma", "delta")

	for width := 0; width <= 40; width++ {
		if DefinitiveTactic(items, PreferHorizontalVertical, Comma, width) != Horizontal {
			continue
		}
		out, err := WriteList(items, NewListFormatting(LegacyShape(width, Indent{}), cfg))
		require.NoError(t, err)
		require.LessOrEqual(t, DisplayWidth(out), width)
	}
}

func (TacticSuite) TestItemWidth(ctx context.Context, t *testctx.T) {
	require.Equal(t, 1, ItemWidth(ItemFromString("a")))
	require.Equal(t, 2, ItemWidth(ItemFromString("{\n}x")))
	require.Equal(t, 1+7+6, ItemWidth(ListItem{Text: "a", PostComment: "/* x */"}))
	require.Equal(t, 1+2+1, TotalWidth(ItemsFromStrings("a", "b"), Comma))
	require.Equal(t, 1+3+1, TotalWidth(ItemsFromStrings("a", "b"), VerticalBar))
	require.Equal(t, 0, TotalWidth(nil, Comma))
}

func (TacticSuite) TestParseListTactic(ctx context.Context, t *testctx.T) {
	tests := []struct {
		input    string
		expected ListTactic
	}{
		{"Vertical", PreferVertical},
		{"horizontal", PreferHorizontal},
		{"HorizontalVertical", PreferHorizontalVertical},
		{"horizontal_vertical", PreferHorizontalVertical},
		{"horizontal-vertical", PreferHorizontalVertical},
		{"Mixed", PreferMixed},
		{"LimitedHorizontalVertical(40)", PreferLimitedHorizontalVertical(40)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(ctx context.Context, t *testctx.T) {
			var got ListTactic
			require.NoError(t, got.UnmarshalText([]byte(tt.input)))
			require.Equal(t, tt.expected, got)
		})
	}

	var got ListTactic
	require.Error(t, got.UnmarshalText([]byte("diagonal")))

	limit, ok := PreferLimitedHorizontalVertical(40).Limit()
	require.True(t, ok)
	require.Equal(t, 40, limit)
	require.Equal(t, "LimitedHorizontalVertical(40)", PreferLimitedHorizontalVertical(40).String())
}
