// Package searchindex wraps the bleve-backed inverted index of spec §4.4:
// a read-write Writer (one IndexWriter equivalent per index path,
// serialized writes, no configured memory bound) and a read-only Reader (search engine process,
// no write lock held). The two are deliberately separate types sharing no
// lock, per spec §9's "do not wrap both in a single reader-writer lock"
// design note.
package searchindex

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/oxhq/cascade/internal/cascadeerr"
	"github.com/oxhq/cascade/internal/searchschema"
	"github.com/oxhq/cascade/internal/types"
)

// fileDocID namespaces file-content document ids away from symbol ids,
// which are already unique per spec §3. Two document kinds share one
// bleve index, so ids must not collide across kinds.
func fileDocID(path string) string { return "file:" + path }

// Writer owns the single write handle for an index path. External write
// attempts while one Writer is already open for the same path must fail
// with ErrWriterBusy — bleve itself returns a clear error when two
// processes fight over the same on-disk lock file, which Open surfaces.
type Writer struct {
	mu     sync.Mutex
	idx    bleve.Index
	closed atomic.Bool
}

// OpenWriter opens or creates the bleve index directory at path and
// returns a Writer. If another writer already holds path's lock, it
// returns ErrWriterBusy.
func OpenWriter(path string) (*Writer, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, searchschema.Build())
	}
	if err != nil {
		if err == bleve.ErrorIndexMetaMissing || isLockErr(err) {
			return nil, cascadeerr.Wrap(cascadeerr.ErrWriterBusy, "open writer", err)
		}
		return nil, cascadeerr.Wrap(cascadeerr.ErrIndexCorruption, "open writer", err)
	}
	return &Writer{idx: idx}, nil
}

func isLockErr(err error) bool {
	// bleve/bolt surfaces lock contention as a generic "timeout" or
	// "resource temporarily unavailable" error with no exported sentinel;
	// callers that need exact classification should retry and inspect.
	return err != nil && (containsAny(err.Error(), "timeout", "locked", "resource temporarily unavailable"))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if len(s) >= len(sub) {
			for i := 0; i+len(sub) <= len(s); i++ {
				if s[i:i+len(sub)] == sub {
					return true
				}
			}
		}
	}
	return false
}

// AddSymbolDocument indexes a SymbolDocument projection. The write is
// applied to the index directly; there is no separate commit step. An
// open Reader sees it after Reload.
func (w *Writer) AddSymbolDocument(doc types.SymbolDocument) error {
	if w.closed.Load() {
		return cascadeerr.ErrShutdown
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	doc.DocType = types.DocTypeSymbol
	if err := w.idx.Index(doc.ID, doc); err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "index symbol document", err)
	}
	return nil
}

// AddFileDocument indexes a FileDocument projection.
func (w *Writer) AddFileDocument(doc types.FileDocument) error {
	if w.closed.Load() {
		return cascadeerr.ErrShutdown
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	doc.DocType = types.DocTypeFile
	if err := w.idx.Index(fileDocID(doc.FilePath), doc); err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "index file document", err)
	}
	return nil
}

// AddSymbolDocumentsBatch indexes many symbol documents in one bleve
// batch, the Go analog of Tantivy's buffered writer.
func (w *Writer) AddSymbolDocumentsBatch(docs []types.SymbolDocument) error {
	if w.closed.Load() {
		return cascadeerr.ErrShutdown
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.idx.NewBatch()
	for _, doc := range docs {
		doc.DocType = types.DocTypeSymbol
		if err := b.Index(doc.ID, doc); err != nil {
			return cascadeerr.Wrap(cascadeerr.ErrStorage, "batch symbol document", err)
		}
	}
	if err := w.idx.Batch(b); err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "commit symbol batch", err)
	}
	return nil
}

// AddFileDocumentsBatch indexes many file documents in one bleve batch.
func (w *Writer) AddFileDocumentsBatch(docs []types.FileDocument) error {
	if w.closed.Load() {
		return cascadeerr.ErrShutdown
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.idx.NewBatch()
	for _, doc := range docs {
		doc.DocType = types.DocTypeFile
		if err := b.Index(fileDocID(doc.FilePath), doc); err != nil {
			return cascadeerr.Wrap(cascadeerr.ErrStorage, "batch file document", err)
		}
	}
	if err := w.idx.Batch(b); err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "commit file batch", err)
	}
	return nil
}

// RemoveByFilePath deletes every document (both symbol and file kind)
// carrying the given file_path (spec §4.4). Callers must Reload a Reader
// afterward to observe the deletion.
func (w *Writer) RemoveByFilePath(path string) error {
	if w.closed.Load() {
		return cascadeerr.ErrShutdown
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	q := bleve.NewTermQuery(path)
	q.SetField(searchschema.FieldFilePath)
	req := bleve.NewSearchRequestOptions(q, 10000, 0, false)
	res, err := w.idx.Search(req)
	if err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "find documents for removal", err)
	}

	b := w.idx.NewBatch()
	for _, hit := range res.Hits {
		b.Delete(hit.ID)
	}
	if err := w.idx.Batch(b); err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrStorage, "delete documents", err)
	}
	return nil
}

// Shutdown releases the writer's directory lock so a new process/index
// instance at the same path can open a writer (spec §4.4). After
// Shutdown every write call must return ErrShutdown.
func (w *Writer) Shutdown() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.idx.Close(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Reader is a shared, read-only handle to a bleve index. It never holds
// the write lock and can be opened concurrently with a Writer on the same
// path (bleve permits many readers; only one writer). reload() re-opens
// the index to pick up segments the Writer has committed, matching
// Tantivy's commit-then-reload MVCC contract.
type Reader struct {
	mu  sync.RWMutex
	idx bleve.Index
	path string
}

// OpenReader opens path for read-only search.
func OpenReader(path string) (*Reader, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrIndexCorruption, "open reader", err)
	}
	return &Reader{idx: idx, path: path}, nil
}

// Reload re-opens the index so subsequent searches observe writes
// committed since the Reader (or the last Reload) was opened. Callers
// must explicitly call this after a Writer commit; bleve gives no
// automatic segment-visibility guarantee across separate Index handles.
func (r *Reader) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.idx.Close(); err != nil {
		return fmt.Errorf("reload close: %w", err)
	}
	idx, err := bleve.Open(r.path)
	if err != nil {
		return cascadeerr.Wrap(cascadeerr.ErrIndexCorruption, "reload", err)
	}
	r.idx = idx
	return nil
}

// Search runs a bleve query and returns the raw result, with stored
// fields requested, so callers get back the symbol/file projection
// fields directly.
func (r *Reader) Search(q query.Query, size int) (*bleve.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.Fields = []string{"*"}
	res, err := r.idx.Search(req)
	if err != nil {
		return nil, cascadeerr.Wrap(cascadeerr.ErrStorage, "search", err)
	}
	return res, nil
}

// Close releases the reader's handle. Searches continue to succeed until
// Close is called (spec §4.4's shutdown-protocol note about readers
// outliving a writer shutdown).
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idx.Close()
}
