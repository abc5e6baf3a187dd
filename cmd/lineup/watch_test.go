package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vito/lineup/pkg/lineup"
)

func TestWatchReformatsChangedFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := writeTree(t, map[string]string{
		"main.lu":   tidy,
		"notes.txt": "",
	})

	var out bytes.Buffer
	w, err := newWatcher(lineup.DefaultConfig(), &out, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.add([]string{dir}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	contents := func(name string) func() bool {
		path := filepath.Join(dir, name)
		return func() bool {
			b, err := os.ReadFile(path)
			return err == nil && string(b) == map[string]string{
				"main.lu": tidy,
				"new.lu":  "let a = 1;\n",
			}[name]
		}
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lu"), []byte(messy), 0644))
	require.Eventually(t, contents("main.lu"), 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.lu"), []byte("let   a=1;"), 0644))
	require.Eventually(t, contents("new.lu"), 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(messy), 0644))
	time.Sleep(100 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, w.Close())

	notes, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, messy, string(notes))

	assert.Contains(t, out.String(), "main.lu")
	assert.Contains(t, out.String(), "new.lu")
	assert.NotContains(t, out.String(), "notes.txt")
}

func TestWatchExplicitFile(t *testing.T) {
	dir := writeTree(t, map[string]string{"script": tidy})
	path := filepath.Join(dir, "script")

	w, err := newWatcher(lineup.DefaultConfig(), &bytes.Buffer{}, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck
	require.NoError(t, w.add([]string{path}))

	assert.True(t, w.explicit[path])
	assert.Contains(t, w.fsw.WatchList(), dir)
}
