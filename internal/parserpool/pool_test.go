package parserpool

import (
	"context"
	"testing"

	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowReturnsConfiguredParser(t *testing.T) {
	p := New()
	p.Register("go", golang.GetLanguage())

	parser := p.Borrow("go")
	require.NotNil(t, parser)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte("package main\n"))
	require.NoError(t, err)
	assert.NotNil(t, tree.RootNode())

	p.Return("go", parser)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Borrowed)
	assert.Equal(t, int64(1), stats.Returned)
}

func TestBorrowUnregisteredLanguageReturnsNil(t *testing.T) {
	p := New()
	assert.Nil(t, p.Borrow("rust"))
}

func TestBorrowRecyclesReturnedParser(t *testing.T) {
	p := New()
	p.Register("go", golang.GetLanguage())

	first := p.Borrow("go")
	p.Return("go", first)
	second := p.Borrow("go")

	assert.Same(t, first, second)
	assert.Equal(t, int64(2), p.Stats().Borrowed)
}
