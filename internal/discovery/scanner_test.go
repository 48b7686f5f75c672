package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverSkipsBlacklistedDirsAndExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")
	writeFile(t, root, "assets/logo.png", "\x89PNG")
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")

	scanner, err := New(root, false)
	require.NoError(t, err)

	files, err := scanner.Discover(context.Background())
	require.NoError(t, err)

	assert.Len(t, files, 1)
	assert.Contains(t, files[0], "main.go")
}

func TestDiscoverSkipsDotfilesExceptAllowlist(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env", "SECRET=1\n")
	writeFile(t, root, ".gitignore", "*.log\n")

	scanner, err := New(root, false)
	require.NoError(t, err)

	files, err := scanner.Discover(context.Background())
	require.NoError(t, err)

	assert.Len(t, files, 1)
	assert.Contains(t, files[0], ".gitignore")
}

func TestDiscoverSkipsMinifiedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.js", "function hi() {}\n")
	writeFile(t, root, "app.min.js", "function hi(){}")
	writeFile(t, root, "vendor.bundle.js", "!function(){}()")

	scanner, err := New(root, false)
	require.NoError(t, err)

	files, err := scanner.Discover(context.Background())
	require.NoError(t, err)

	assert.Len(t, files, 1)
	assert.Contains(t, files[0], "app.js")
}

func TestDiscoverSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, maxFileBytes+1)
	writeFile(t, root, "huge.txt", string(big))
	writeFile(t, root, "small.txt", "hello\n")

	scanner, err := New(root, false)
	require.NoError(t, err)

	files, err := scanner.Discover(context.Background())
	require.NoError(t, err)

	assert.Len(t, files, 1)
	assert.Contains(t, files[0], "small.txt")
}

func TestEnsureIgnoreFileNeverOverwritesUserFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".cascadeignore", "custom-rule/**\n")
	writeFile(t, root, "custom-rule/keep-me.go", "package x\n")

	scanner, err := New(root, false)
	require.NoError(t, err)

	require.NoError(t, scanner.EnsureIgnoreFile())

	content, err := os.ReadFile(filepath.Join(root, ".cascadeignore"))
	require.NoError(t, err)
	assert.Equal(t, "custom-rule/**\n", string(content))

	files, err := scanner.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCanonicalizeReturnsAbsolutePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")

	got, err := Canonicalize(filepath.Join(root, "a.go"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestSniffPrintableRejectsBinary(t *testing.T) {
	root := t.TempDir()
	binPath := filepath.Join(root, "data")
	require.NoError(t, os.WriteFile(binPath, []byte{0x00, 0x01, 0x02, 'h', 'i'}, 0o644))
	assert.False(t, sniffPrintable(binPath))

	textPath := filepath.Join(root, "textdata")
	require.NoError(t, os.WriteFile(textPath, []byte("just plain text content here"), 0o644))
	assert.True(t, sniffPrintable(textPath))
}
