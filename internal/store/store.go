// Package store implements the Symbol Database operations of spec §4.3:
// bulk ingestion under a single transaction per file batch, FTS5-backed
// content search with a LIKE fallback, and the reference/relationship
// lookups the query router and pipeline depend on. Every row is scoped to
// a workspace_id; cross-workspace leakage is a correctness bug, not a
// convenience violation, so every method here takes workspaceID
// explicitly rather than trusting caller-built WHERE clauses.
package store

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oxhq/cascade/internal/cascadeerr"
	"github.com/oxhq/cascade/internal/types"
	"github.com/oxhq/cascade/models"
)

// Store wraps a *gorm.DB with the bulk and query operations the rest of
// the system needs. It holds no state of its own beyond the connection.
type Store struct {
	db *gorm.DB
}

// New wraps an already-migrated *gorm.DB.
func New(gdb *gorm.DB) *Store { return &Store{db: gdb} }

// DB exposes the underlying handle for callers (e.g. the pipeline's
// workspace clear and inverted-index population) that need raw access
// outside this package's operation set.
func (s *Store) DB() *gorm.DB { return s.db }

// EnsureWorkspace upserts a Workspace row, used once per process startup
// per spec §4.10 (one primary, zero or more reference workspaces).
func (s *Store) EnsureWorkspace(w models.Workspace) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"root", "type"}),
	}).Create(&w).Error
}

// BulkStoreFiles upserts file rows in a single transaction (spec §4.3
// "bulk_store_files": files are inserted or updated by path, never
// duplicated).
func (s *Store) BulkStoreFiles(files []models.File) error {
	if len(files) == 0 {
		return nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"workspace_id", "language", "hash", "size",
				"last_modified", "last_indexed", "symbol_count", "content",
			}),
		}).CreateInBatches(files, 500).Error
	})
	if err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "bulk store files", err)
	}
	return nil
}

// BulkStoreSymbols replaces every symbol row belonging to the given file
// paths with the new set, inside one transaction (spec §4.3
// "bulk_store_symbols": re-indexing a file must not leave stale symbol
// rows behind). When symbols is non-empty, the secondary indexes in
// bulkToggleIndexes are dropped before the insert and rebuilt after it.
func (s *Store) BulkStoreSymbols(workspaceID string, filePaths []string, symbols []models.Symbol) error {
	if len(symbols) > 0 {
		if err := s.DropIndexes(); err != nil {
			return err
		}
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(filePaths) > 0 {
			if err := tx.Where("workspace_id = ? AND file_path IN ?", workspaceID, filePaths).
				Delete(&models.Symbol{}).Error; err != nil {
				return err
			}
		}
		if len(symbols) == 0 {
			return nil
		}
		return tx.CreateInBatches(symbols, 500).Error
	})
	if len(symbols) > 0 {
		if rerr := s.RebuildIndexes(); rerr != nil && err == nil {
			return rerr
		}
	}
	if err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "bulk store symbols", err)
	}
	return nil
}

// BulkStoreRelationships replaces every relationship row whose FromSymbolID
// is one of fromSymbolIDs, inside one transaction (spec §4.3
// "bulk_store_relationships").
func (s *Store) BulkStoreRelationships(workspaceID string, fromSymbolIDs []string, rels []models.Relationship) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(fromSymbolIDs) > 0 {
			if err := tx.Where("workspace_id = ? AND from_symbol_id IN ?", workspaceID, fromSymbolIDs).
				Delete(&models.Relationship{}).Error; err != nil {
				return err
			}
		}
		if len(rels) == 0 {
			return nil
		}
		return tx.CreateInBatches(rels, 500).Error
	})
	if err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "bulk store relationships", err)
	}
	return nil
}

// BulkStoreIdentifiers replaces every identifier row for the given file
// paths, inside one transaction.
func (s *Store) BulkStoreIdentifiers(workspaceID string, filePaths []string, ids []models.Identifier) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(filePaths) > 0 {
			if err := tx.Where("workspace_id = ? AND file_path IN ?", workspaceID, filePaths).
				Delete(&models.Identifier{}).Error; err != nil {
				return err
			}
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.CreateInBatches(ids, 500).Error
	})
	if err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "bulk store identifiers", err)
	}
	return nil
}

// DeleteFile removes a file row and every symbol, relationship, and
// identifier row rooted at it, inside one transaction (spec §4.3 "remove
// a file's rows on deletion/rename").
func (s *Store) DeleteFile(workspaceID, path string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var symbolIDs []string
		if err := tx.Model(&models.Symbol{}).
			Where("workspace_id = ? AND file_path = ?", workspaceID, path).
			Pluck("id", &symbolIDs).Error; err != nil {
			return err
		}
		if len(symbolIDs) > 0 {
			if err := tx.Where("workspace_id = ? AND from_symbol_id IN ?", workspaceID, symbolIDs).
				Delete(&models.Relationship{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("workspace_id = ? AND file_path = ?", workspaceID, path).
			Delete(&models.Symbol{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ? AND file_path = ?", workspaceID, path).
			Delete(&models.Identifier{}).Error; err != nil {
			return err
		}
		return tx.Where("workspace_id = ? AND path = ?", workspaceID, path).
			Delete(&models.File{}).Error
	})
	if err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "delete file", err)
	}
	return nil
}

// FileByPath fetches one file row.
func (s *Store) FileByPath(workspaceID, path string) (*models.File, error) {
	var f models.File
	err := s.db.Where("workspace_id = ? AND path = ?", workspaceID, path).First(&f).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrStorage, "file by path", err)
	}
	return &f, nil
}

// SymbolsByFile returns every symbol extracted from a file.
func (s *Store) SymbolsByFile(workspaceID, path string) ([]models.Symbol, error) {
	var syms []models.Symbol
	err := s.db.Where("workspace_id = ? AND file_path = ?", workspaceID, path).Find(&syms).Error
	if err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrStorage, "symbols by file", err)
	}
	return syms, nil
}

// SymbolByID fetches one symbol row.
func (s *Store) SymbolByID(workspaceID, id string) (*models.Symbol, error) {
	var sym models.Symbol
	err := s.db.Where("workspace_id = ? AND id = ?", workspaceID, id).First(&sym).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrStorage, "symbol by id", err)
	}
	return &sym, nil
}

// SymbolsByIDs batch-fetches symbol rows for enrichment (spec §4.9 step
// 6: attach code_context and visibility, which the inverted index does
// not store).
func (s *Store) SymbolsByIDs(workspaceID string, ids []string) ([]models.Symbol, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var syms []models.Symbol
	err := s.db.Where("workspace_id = ? AND id IN ?", workspaceID, ids).Find(&syms).Error
	if err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrStorage, "symbols by ids", err)
	}
	return syms, nil
}

// referenceKinds are the Relationship kinds that count as a "use" of the
// target symbol for FindReferences' incoming-edge source. "contains",
// "implements", "extends", "parameter", and "returns" describe structural
// relationships, not reference sites, and are excluded.
var referenceKinds = []string{
	string(types.RelCalls), string(types.RelReferences), string(types.RelUses), string(types.RelImports),
}

// FindReferences implements spec §4.8's reference lookup: the union of
// three sources, deduplicated by (file_path, start_line, start_col):
//  1. incoming Relationship edges of a reference kind targeting the symbol,
//  2. outgoing Relationship edges from the symbol (its callees),
//  3. raw Identifier occurrences naming it, excluding the one that falls on
//     the symbol's own definition line in its own file.
//
// symbolFilePath/symbolLine identify the symbol's declaration site so (3)
// doesn't report the declaration as a reference to itself.
func (s *Store) FindReferences(workspaceID, symbolID, symbolName, symbolFilePath string, symbolLine int) ([]ReferenceHit, error) {
	var incoming []models.Relationship
	if err := s.db.Where("workspace_id = ? AND to_symbol_id = ? AND kind IN ?", workspaceID, symbolID, referenceKinds).
		Find(&incoming).Error; err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrStorage, "find references: incoming relationships", err)
	}

	var outgoing []models.Relationship
	if err := s.db.Where("workspace_id = ? AND from_symbol_id = ?", workspaceID, symbolID).
		Find(&outgoing).Error; err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrStorage, "find references: outgoing relationships", err)
	}

	var idents []models.Identifier
	if err := s.db.Where("workspace_id = ? AND name = ?", workspaceID, symbolName).Find(&idents).Error; err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrStorage, "find references: identifiers", err)
	}

	seen := make(map[string]bool, len(incoming)+len(outgoing)+len(idents))
	hits := make([]ReferenceHit, 0, len(incoming)+len(outgoing)+len(idents))
	key := func(path string, line, col int) string { return fmt.Sprintf("%s:%d:%d", path, line, col) }

	for _, r := range incoming {
		k := key(r.FilePath, r.LineNumber, 0)
		if seen[k] {
			continue
		}
		seen[k] = true
		hits = append(hits, ReferenceHit{
			FilePath:   r.FilePath,
			Line:       r.LineNumber,
			Kind:       r.Kind,
			Confidence: r.Confidence,
			Source:     "relationship",
		})
	}
	for _, r := range outgoing {
		k := key(r.FilePath, r.LineNumber, 0)
		if seen[k] {
			continue
		}
		seen[k] = true
		hits = append(hits, ReferenceHit{
			FilePath:   r.FilePath,
			Line:       r.LineNumber,
			Kind:       r.Kind,
			Confidence: r.Confidence,
			Source:     "callee",
		})
	}
	for _, id := range idents {
		if id.FilePath == symbolFilePath && id.StartLine == symbolLine {
			continue
		}
		k := key(id.FilePath, id.StartLine, id.StartCol)
		if seen[k] {
			continue
		}
		seen[k] = true
		hits = append(hits, ReferenceHit{
			FilePath:   id.FilePath,
			Line:       id.StartLine,
			Col:        id.StartCol,
			Kind:       string(id.Kind),
			Confidence: id.Confidence,
			Source:     "identifier",
		})
	}
	return hits, nil
}

// ReferenceHit is one occurrence returned by FindReferences.
type ReferenceHit struct {
	FilePath   string
	Line       int
	Col        int
	Kind       string
	Confidence float64
	Source     string // "relationship", "callee", or "identifier"
}

// ContentSearch runs spec §4.7's full-text content search: FTS5's
// bm25-ranked MATCH query against file_content_fts, falling back to a
// plain LIKE scan when the virtual table is unavailable (a workspace
// opened against an older database before FTS5 migration, or a SQLite
// build without the fts5 extension compiled in).
func (s *Store) ContentSearch(workspaceID, query string, limit int) ([]ContentHit, error) {
	hits, err := s.contentSearchFTS(workspaceID, query, limit)
	if err == nil {
		return hits, nil
	}
	return s.contentSearchLike(workspaceID, query, limit)
}

// ContentHit is one matched file from ContentSearch.
type ContentHit struct {
	FilePath string
	Snippet  string
	Score    float64
}

func (s *Store) contentSearchFTS(workspaceID, query string, limit int) ([]ContentHit, error) {
	type row struct {
		Path    string
		Snippet string
		Score   float64
	}
	var rows []row
	sql := `
		SELECT f.path AS path,
		       snippet(file_content_fts, 1, '[', ']', '...', 10) AS snippet,
		       bm25(file_content_fts) AS score
		FROM file_content_fts
		JOIN files f ON f.rowid = file_content_fts.rowid
		WHERE file_content_fts MATCH ? AND f.workspace_id = ?
		ORDER BY score
		LIMIT ?`
	if err := s.db.Raw(sql, sanitizeFTSQuery(query), workspaceID, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	hits := make([]ContentHit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, ContentHit{FilePath: r.Path, Snippet: r.Snippet, Score: -r.Score})
	}
	return hits, nil
}

// contentSearchLike is the degraded-mode fallback (spec §4.7's "content
// search continues to function, without ranking or snippet extraction,
// if FTS5 is unavailable").
func (s *Store) contentSearchLike(workspaceID, query string, limit int) ([]ContentHit, error) {
	var files []models.File
	like := "%" + strings.ReplaceAll(query, "%", "\\%") + "%"
	err := s.db.Where("workspace_id = ? AND content LIKE ? ESCAPE '\\'", workspaceID, like).
		Limit(limit).Find(&files).Error
	if err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrStorage, "content search fallback", err)
	}
	hits := make([]ContentHit, 0, len(files))
	for _, f := range files {
		hits = append(hits, ContentHit{FilePath: f.Path, Score: 1})
	}
	return hits, nil
}

// sanitizeFTSQuery escapes FTS5 query-syntax characters the caller's raw
// search term might contain, quoting the whole phrase so punctuation in
// user input (::, ->, etc.) doesn't throw an FTS5 syntax error.
func sanitizeFTSQuery(q string) string {
	q = strings.ReplaceAll(q, `"`, `""`)
	return `"` + q + `"`
}

// DropIndexes drops the secondary indexes listed in bulkToggleIndexes
// (a subset of those GORM created via AutoMigrate), for bulk-ingest windows where the caller wants to insert
// without per-row index maintenance (spec §4.3's note that bulk loads may
// temporarily run without secondary indexes). RebuildIndexes restores
// them afterward.
func (s *Store) DropIndexes() error {
	m := s.db.Migrator()
	for _, idx := range bulkToggleIndexes {
		if m.HasIndex(idx.model, idx.name) {
			if err := m.DropIndex(idx.model, idx.name); err != nil {
				return cascadeerr.Wrap(cascadeerr.ErrStorage, "drop index "+idx.name, err)
			}
		}
	}
	return nil
}

// RebuildIndexes recreates the indexes DropIndexes removed.
func (s *Store) RebuildIndexes() error {
	m := s.db.Migrator()
	for _, idx := range bulkToggleIndexes {
		if !m.HasIndex(idx.model, idx.name) {
			if err := m.CreateIndex(idx.model, idx.name); err != nil {
				return cascadeerr.Wrap(cascadeerr.ErrStorage, "rebuild index "+idx.name, err)
			}
		}
	}
	return nil
}

type toggleIndex struct {
	model interface{}
	name  string
}

var bulkToggleIndexes = []toggleIndex{
	{&models.Symbol{}, "idx_symbols_workspace_name"},
	{&models.Symbol{}, "idx_symbols_workspace_file"},
	{&models.Relationship{}, "idx_rel_from"},
	{&models.Relationship{}, "idx_rel_to"},
}
