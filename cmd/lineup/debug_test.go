package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugDumpsTree(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.lu":     "let x = 1;",
		"lineup.toml": "max_width = 20\n",
	})

	var out bytes.Buffer
	cmd := debugCmd(&Config{ConfigFile: filepath.Join(dir, "lineup.toml")})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-u", filepath.Join(dir, "main.lu")})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "syntax.LetStmt")
	assert.Contains(t, out.String(), `"1"`)
}

func TestDebugParseError(t *testing.T) {
	dir := writeTree(t, map[string]string{"bad.lu": "let x = ;"})

	cmd := debugCmd(&Config{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(dir, "bad.lu")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.lu:1:9")
}
