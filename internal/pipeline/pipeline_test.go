package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/cascade/db"
	"github.com/oxhq/cascade/internal/embedding"
	"github.com/oxhq/cascade/internal/extractor"
	"github.com/oxhq/cascade/internal/readiness"
	"github.com/oxhq/cascade/internal/searchindex"
	"github.com/oxhq/cascade/internal/store"
)

func newTestPipeline(t *testing.T, root string) *Pipeline {
	t.Helper()
	gdb, err := db.Connect(filepath.Join(t.TempDir(), "cascade.db"), false)
	require.NoError(t, err)
	st := store.New(gdb)

	indexPath := filepath.Join(t.TempDir(), "index.bleve")
	writer, err := searchindex.OpenWriter(indexPath)
	require.NoError(t, err)
	reader, err := searchindex.OpenReader(indexPath)
	require.NoError(t, err)

	return &Pipeline{
		WorkspaceID:  "ws-test",
		Root:         root,
		Factory:      extractor.Default(),
		Store:        st,
		Writer:       writer,
		Reader:       reader,
		Flags:        readiness.New(),
		Embedder:     embedding.NoopEngine{},
		StoreContent: true,
	}
}

func TestRunIndexesGoSourceAndReportsStats(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(`package main

// Greet returns a greeting.
func Greet(name string) string {
	return join(name)
}

func join(name string) string {
	return "hello " + name
}
`), 0o644))

	p := newTestPipeline(t, root)
	stats, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	require.Equal(t, 1, stats.FilesIndexed)
	require.Equal(t, 2, stats.SymbolCount)
	require.Equal(t, 0, stats.FilesSkipped)

	syms, err := p.Store.SymbolsByFile("ws-test", filepath.Join(root, "main.go"))
	require.NoError(t, err)
	require.Len(t, syms, 2)
}

func TestRunEventuallyFlipsInvertedIndexReady(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.go"), []byte("package lib\n\nfunc Widget() {}\n"), 0o644))

	p := newTestPipeline(t, root)
	_, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p.Flags.InvertedIndexReady() {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.True(t, p.Flags.InvertedIndexReady(), "inverted index readiness should flip after background population")
}

func TestRunWithForceClearsPriorWorkspaceRows(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package a\n\nfunc One() {}\n"), 0o644))

	p := newTestPipeline(t, root)
	_, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filePath, []byte("package a\n\nfunc Two() {}\n"), 0o644))
	stats, err := p.Run(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, stats.SymbolCount)

	syms, err := p.Store.SymbolsByFile("ws-test", filePath)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	require.Equal(t, "Two", syms[0].Name)
}

func TestIsTestPathRecognizesConventionalMarkers(t *testing.T) {
	require.True(t, IsTestPath("pkg/foo_test.go"))
	require.True(t, IsTestPath("tests/fixture.go"))
	require.True(t, IsTestPath("src/__tests__/widget.js"))
	require.False(t, IsTestPath("pkg/foo.go"))
}
