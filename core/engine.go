// Package core wires the pieces of cascade into one running engine: a
// config-loaded workspace identity, a Symbol Database connection, the
// inverted index's Writer/Reader pair, readiness flags, the indexing
// pipeline, and the query router. It is the single entry point both the
// CLI and any embedding host should construct.
package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oxhq/cascade/db"
	"github.com/oxhq/cascade/internal/cascadeconfig"
	"github.com/oxhq/cascade/internal/embedding"
	"github.com/oxhq/cascade/internal/extractor"
	"github.com/oxhq/cascade/internal/langconfig"
	"github.com/oxhq/cascade/internal/pipeline"
	"github.com/oxhq/cascade/internal/query"
	"github.com/oxhq/cascade/internal/readiness"
	"github.com/oxhq/cascade/internal/searchindex"
	"github.com/oxhq/cascade/internal/store"
	"github.com/oxhq/cascade/internal/types"
	"github.com/oxhq/cascade/internal/workspace"
	"github.com/oxhq/cascade/models"
)

// Engine is a fully wired cascade instance for one primary workspace,
// plus whatever reference workspaces have been attached.
type Engine struct {
	Config   *cascadeconfig.Config
	Identity workspace.Identity
	Registry *workspace.Registry

	Store    *store.Store
	Writer   *searchindex.Writer
	Reader   *searchindex.Reader
	Flags    *readiness.Flags
	Router   *query.Router
	Pipeline *pipeline.Pipeline

	langs *langconfig.Registry
}

// Open constructs an Engine rooted at root. It connects the Symbol
// Database, opens the inverted index (creating it if missing), and
// leaves the inverted-index and embedding readiness flags false until
// the first Index call populates them.
func Open(root string) (*Engine, error) {
	cfg := cascadeconfig.Load(root)
	langs := langconfig.Default()

	identity := workspace.NewIdentity(root, types.WorkspacePrimary)
	registry := workspace.NewRegistry(identity)

	dataDir := identity.DataDir(filepath.Join(cfg.DataDir, ".cascade"))

	gdb, err := db.Connect(filepath.Join(dataDir, "cascade.db"), cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("connect symbol database: %w", err)
	}
	st := store.New(gdb)
	if err := st.EnsureWorkspace(models.Workspace{ID: identity.ID, Root: identity.Root, Type: "primary"}); err != nil {
		return nil, fmt.Errorf("ensure workspace: %w", err)
	}

	writer, err := searchindex.OpenWriter(filepath.Join(dataDir, "index.bleve"))
	if err != nil {
		return nil, fmt.Errorf("open index writer: %w", err)
	}
	reader, err := searchindex.OpenReader(filepath.Join(dataDir, "index.bleve"))
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}

	flags := readiness.New()
	router := query.New(reader, st, langs, flags)

	factory := extractor.Default()

	p := &pipeline.Pipeline{
		WorkspaceID:  identity.ID,
		Root:         identity.Root,
		Factory:      factory,
		Store:        st,
		Writer:       writer,
		Reader:       reader,
		Flags:        flags,
		Embedder:     embedding.NoopEngine{},
		MaxFileBytes: cfg.MaxFileBytes,
		StoreContent: true,
	}

	return &Engine{
		Config:   cfg,
		Identity: identity,
		Registry: registry,
		Store:    st,
		Writer:   writer,
		Reader:   reader,
		Flags:    flags,
		Router:   router,
		Pipeline: p,
		langs:    langs,
	}, nil
}

// AddReferenceWorkspace registers an additional, isolated reference
// workspace rooted at root (spec §4.6's "N isolated reference
// workspaces").
func (e *Engine) AddReferenceWorkspace(root string) (workspace.Identity, error) {
	id := e.Registry.AddReference(root)
	if err := e.Store.EnsureWorkspace(models.Workspace{ID: id.ID, Root: id.Root, Type: "reference"}); err != nil {
		return workspace.Identity{}, err
	}
	return id, nil
}

// Index runs one full indexing pass over the primary workspace.
func (e *Engine) Index(ctx context.Context, force bool) (pipeline.Stats, error) {
	return e.Pipeline.Run(ctx, force)
}

// SearchSymbols delegates to the query router, scoping filters to the
// primary workspace unless the caller already set WorkspaceID.
func (e *Engine) SearchSymbols(ctx context.Context, q string, filters types.Filters, limit int) ([]query.SymbolHit, error) {
	if filters.WorkspaceID == "" {
		filters.WorkspaceID = e.Identity.ID
	}
	return e.Router.SearchSymbols(ctx, q, filters, limit)
}

// SearchContent delegates to the query router's content-search path.
func (e *Engine) SearchContent(ctx context.Context, q string, filters types.Filters, limit int) ([]query.ContentHit, error) {
	if filters.WorkspaceID == "" {
		filters.WorkspaceID = e.Identity.ID
	}
	return e.Router.SearchContent(ctx, q, filters, limit)
}

// Search classifies q's intent and dispatches to the sub-search(es) it
// names, merging symbol and content hits for mixed-intent queries (spec
// §4.9).
func (e *Engine) Search(ctx context.Context, q string, filters types.Filters, limit int) ([]query.Hit, error) {
	if filters.WorkspaceID == "" {
		filters.WorkspaceID = e.Identity.ID
	}
	return e.Router.SearchByIntent(ctx, q, filters, limit)
}

// FindReferences looks up every known reference site for a symbol,
// combining confident Relationship edges and raw Identifier occurrences
// (spec §4.8). When symbolID names a known symbol, its own declaration
// site is excluded from the identifier-occurrence source.
func (e *Engine) FindReferences(symbolID, symbolName string) ([]store.ReferenceHit, error) {
	var filePath string
	var line int
	if symbolID != "" {
		if sym, err := e.Store.SymbolByID(e.Identity.ID, symbolID); err == nil && sym != nil {
			filePath = sym.FilePath
			line = sym.StartLine
		}
	}
	return e.Store.FindReferences(e.Identity.ID, symbolID, symbolName, filePath, line)
}

// Close releases the inverted index's write and read handles. The
// Symbol Database connection is left open; callers that own the
// *gorm.DB are responsible for its lifecycle.
func (e *Engine) Close() error {
	if err := e.Writer.Shutdown(); err != nil {
		return err
	}
	return e.Reader.Close()
}
