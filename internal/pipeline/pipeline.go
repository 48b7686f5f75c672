// Package pipeline orchestrates one full index run (C8, spec §4.7):
// discover files, group by language, parse with the one parser each
// language's extractor owns and reuses across files, extract symbols/relationships/identifiers, bulk-ingest into
// the Symbol Database, then hand off to two background tasks that
// populate the inverted index and the embedding store. Grounded on the
// errgroup-fan-out idiom used elsewhere in the retrieved corpus for
// bounded concurrent work with shared error collection.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/oxhq/cascade/internal/discovery"
	"github.com/oxhq/cascade/internal/embedding"
	"github.com/oxhq/cascade/internal/extractor"
	"github.com/oxhq/cascade/internal/readiness"
	"github.com/oxhq/cascade/internal/searchindex"
	"github.com/oxhq/cascade/internal/store"
	"github.com/oxhq/cascade/internal/types"
	"github.com/oxhq/cascade/models"
)

// Stats summarizes one run (spec §4.7 step 5).
type Stats struct {
	FilesIndexed      int
	SymbolCount       int
	RelationshipCount int
	IdentifierCount   int
	FilesSkipped      int
}

// Pipeline wires discovery, extraction, storage, the inverted index, and
// the embedding engine for one workspace.
type Pipeline struct {
	WorkspaceID string
	Root        string

	Factory      *extractor.Factory
	Store        *store.Store
	Writer       *searchindex.Writer
	Reader       *searchindex.Reader
	Flags        *readiness.Flags
	Embedder     embedding.Engine
	MaxFileBytes int64
	StoreContent bool
}

// Run executes one full index pass. If force is true, every row
// belonging to this workspace is cleared before re-ingesting (spec §4.7
// step 2).
func (p *Pipeline) Run(ctx context.Context, force bool) (Stats, error) {
	scanner, err := discovery.New(p.Root, false)
	if err != nil {
		return Stats{}, err
	}
	if err := scanner.EnsureIgnoreFile(); err != nil {
		log.Printf("cascade: .cascadeignore generation failed for %s: %v", p.Root, err)
	}

	paths, err := scanner.Discover(ctx)
	if err != nil {
		return Stats{}, err
	}

	if force {
		if err := p.clearWorkspace(); err != nil {
			return Stats{}, err
		}
	}

	byLang := groupByLanguage(p.Factory, paths)

	var (
		mu      sync.Mutex
		files   []models.File
		symbols []models.Symbol
		rels    []models.Relationship
		idents  []models.Identifier
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for lang, langPaths := range byLang {
		lang, langPaths := lang, langPaths
		g.Go(func() error {
			ex, ok := p.Factory.ForLanguage(lang)
			if !ok {
				ex = p.Factory.ForExtension(filepath.Ext(langPaths[0]))
			}
			for _, path := range langPaths {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				file, syms, relList, idList, err := p.extractOne(ex, path)
				if err != nil {
					log.Printf("cascade: extract %s: %v", path, err)
					mu.Lock()
					skipped++
					mu.Unlock()
					continue
				}
				mu.Lock()
				files = append(files, file)
				symbols = append(symbols, syms...)
				rels = append(rels, relList...)
				idents = append(idents, idList...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	filePaths := make([]string, 0, len(files))
	for _, f := range files {
		filePaths = append(filePaths, f.Path)
	}

	if err := p.Store.BulkStoreFiles(files); err != nil {
		return Stats{}, err
	}
	if err := p.Store.BulkStoreSymbols(p.WorkspaceID, filePaths, symbols); err != nil {
		return Stats{}, err
	}
	fromIDs := make([]string, 0, len(symbols))
	for _, s := range symbols {
		fromIDs = append(fromIDs, s.ID)
	}
	if err := p.Store.BulkStoreRelationships(p.WorkspaceID, fromIDs, rels); err != nil {
		return Stats{}, err
	}
	if err := p.Store.BulkStoreIdentifiers(p.WorkspaceID, filePaths, idents); err != nil {
		return Stats{}, err
	}

	stats := Stats{
		FilesIndexed:      len(files),
		SymbolCount:       len(symbols),
		RelationshipCount: len(rels),
		IdentifierCount:   len(idents),
		FilesSkipped:      skipped,
	}

	go p.populateInvertedIndex(context.Background())
	go p.populateEmbeddings(context.Background(), symbols)

	return stats, nil
}

func (p *Pipeline) clearWorkspace() error {
	db := p.Store.DB()
	if err := db.Where("workspace_id = ?", p.WorkspaceID).Delete(&models.Relationship{}).Error; err != nil {
		return err
	}
	if err := db.Where("workspace_id = ?", p.WorkspaceID).Delete(&models.Identifier{}).Error; err != nil {
		return err
	}
	if err := db.Where("workspace_id = ?", p.WorkspaceID).Delete(&models.Symbol{}).Error; err != nil {
		return err
	}
	return db.Where("workspace_id = ?", p.WorkspaceID).Delete(&models.File{}).Error
}

func (p *Pipeline) extractOne(ex extractor.Extractor, path string) (models.File, []models.Symbol, []models.Relationship, []models.Identifier, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.File{}, nil, nil, nil, err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return models.File{}, nil, nil, nil, err
	}

	result, err := ex.Extract(p.WorkspaceID, path, source)
	if err != nil {
		return models.File{}, nil, nil, nil, err
	}

	sum := sha256.Sum256(source)
	file := models.File{
		Path:         path,
		WorkspaceID:  p.WorkspaceID,
		Language:     ex.Language(),
		Hash:         hex.EncodeToString(sum[:]),
		Size:         info.Size(),
		LastModified: info.ModTime().UnixMilli(),
		LastIndexed:  time.Now().UnixMilli(),
		SymbolCount:  len(result.Symbols),
	}
	if p.StoreContent {
		content := result.Content
		file.Content = &content
	}

	return file, result.Symbols, result.Relationships, result.Identifiers, nil
}

// groupByLanguage buckets discovered paths by the language their
// extractor declares, matching extractor resolution by extension.
func groupByLanguage(f *extractor.Factory, paths []string) map[string][]string {
	out := make(map[string][]string)
	for _, path := range paths {
		ex := f.ForExtension(filepath.Ext(path))
		if ex == nil {
			continue
		}
		out[ex.Language()] = append(out[ex.Language()], path)
	}
	return out
}

// populateInvertedIndex is the background task of spec §4.7 step 6: read
// every symbol and stored file content for the workspace, index them in
// batches, commit, and flip the readiness flag once the reader reflects
// the new data.
func (p *Pipeline) populateInvertedIndex(ctx context.Context) {
	if p.Writer == nil {
		return
	}
	db := p.Store.DB()

	const batchSize = 1000
	var symbols []models.Symbol
	if err := db.Where("workspace_id = ?", p.WorkspaceID).FindInBatches(&symbols, batchSize, func(tx *gorm.DB, batch int) error {
		docs := make([]types.SymbolDocument, 0, len(symbols))
		for _, s := range symbols {
			docs = append(docs, toSymbolDocument(s))
		}
		return p.Writer.AddSymbolDocumentsBatch(docs)
	}).Error; err != nil {
		log.Printf("cascade: populate symbol documents: %v", err)
		return
	}

	var files []models.File
	if err := db.Where("workspace_id = ? AND content IS NOT NULL", p.WorkspaceID).FindInBatches(&files, batchSize, func(tx *gorm.DB, batch int) error {
		docs := make([]types.FileDocument, 0, len(files))
		for _, f := range files {
			content := ""
			if f.Content != nil {
				content = *f.Content
			}
			docs = append(docs, types.FileDocument{
				FilePath: f.Path,
				Language: f.Language,
				Content:  content,
			})
		}
		return p.Writer.AddFileDocumentsBatch(docs)
	}).Error; err != nil {
		log.Printf("cascade: populate file documents: %v", err)
		return
	}

	if p.Reader != nil {
		if err := p.Reader.Reload(); err != nil {
			log.Printf("cascade: reload reader: %v", err)
			return
		}
	}
	p.Flags.SetInvertedIndexReady(true)
}

// populateEmbeddings batch-encodes symbol text and flips the embedding
// readiness flag once the engine returns vectors. Persisting the resulting vectors is left to the
// Engine implementation (spec.md's Non-goals exclude the vector store
// itself).
func (p *Pipeline) populateEmbeddings(ctx context.Context, symbols []models.Symbol) {
	if p.Embedder == nil || len(symbols) == 0 {
		return
	}
	texts := make([]string, 0, len(symbols))
	for _, s := range symbols {
		text := s.Name
		if s.Signature != nil {
			text = *s.Signature
		}
		texts = append(texts, text)
	}
	vectors, err := p.Embedder.Encode(ctx, texts)
	if err != nil {
		log.Printf("cascade: embedding population: %v", err)
		return
	}
	if len(vectors) == 0 {
		return
	}
	p.Flags.SetEmbeddingReady(true)
}

func toSymbolDocument(s models.Symbol) types.SymbolDocument {
	doc := types.SymbolDocument{
		ID:        s.ID,
		FilePath:  s.FilePath,
		Language:  s.Language,
		Name:      s.Name,
		Kind:      s.Kind,
		StartLine: uint64(s.StartLine),
	}
	if s.Signature != nil {
		doc.Signature = *s.Signature
	}
	if s.DocComment != nil {
		doc.DocComment = *s.DocComment
	}
	if s.CodeContext != nil {
		doc.CodeBody = *s.CodeContext
	}
	return doc
}

// IsTestPath classifies a file path as a test-reference path per spec
// §4.8's "full display depth" rule.
func IsTestPath(path string) bool {
	for _, marker := range []string{"tests/", "test_", "_test", "__tests__/", "spec/"} {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}
