package syntax

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/vito/lineup/pkg/lineup"
)

// TestGoldenFiles formats every testdata/*.lu file with testdata/lineup.toml
// and compares against its .golden counterpart. Run with -update to rewrite
// them.
func TestGoldenFiles(t *testing.T) {
	cfg, err := lineup.LoadConfig(filepath.Join("testdata", "lineup.toml"))
	require.NoError(t, err)

	paths, err := filepath.Glob(filepath.Join("testdata", "*.lu"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no .lu files in testdata")

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".lu")

		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(path)
			require.NoError(t, err)

			res, err := FormatFile(src, cfg)
			require.NoError(t, err)
			require.Empty(t, res.Unformatted)
			golden.Assert(t, res.Text, name+".golden")

			again, err := FormatFile([]byte(res.Text), cfg)
			require.NoError(t, err)
			require.Equal(t, res.Text, again.Text, "formatting is not idempotent")
		})
	}
}
