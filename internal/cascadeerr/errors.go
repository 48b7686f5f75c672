// Package cascadeerr defines the closed error taxonomy the core uses to
// decide whether a failure is recoverable locally or must surface to the
// caller (see spec §7).
package cascadeerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers compare with errors.Is, never type assertion,
// so a wrapped error still matches.
var (
	// ErrNotReady indicates a query tier required by the chosen code path
	// has not finished populating. Callers should fall back to the next
	// lower tier rather than fail.
	ErrNotReady = errors.New("cascade: tier not ready")

	// ErrIO wraps disk or filesystem failures.
	ErrIO = errors.New("cascade: io error")

	// ErrParse indicates a tree-sitter parse failure for a single file.
	// The pipeline logs and skips; it never aborts a run for this alone.
	ErrParse = errors.New("cascade: parse error")

	// ErrStorage wraps SQLite failures. Bulk operations roll back on this;
	// single-row writes surface it to the caller.
	ErrStorage = errors.New("cascade: storage error")

	// ErrIndexCorruption indicates the inverted index directory is
	// unreadable. It is rebuildable from the Symbol Database; the caller
	// must delete and reindex rather than attempt in-place repair.
	ErrIndexCorruption = errors.New("cascade: index corruption")

	// ErrShutdown is returned by any write attempted after Shutdown().
	ErrShutdown = errors.New("cascade: index is shut down")

	// ErrInvalidInput indicates a request is malformed independent of
	// system state (empty query after tokenization, unknown workspace id).
	ErrInvalidInput = errors.New("cascade: invalid input")

	// ErrWriterBusy indicates another writer already holds the index's
	// write lock. The caller decides whether to retry.
	ErrWriterBusy = errors.New("cascade: writer busy")
)

// Wrap annotates err with a sentinel and a message while keeping errors.Is
// working against both the sentinel and whatever err already wraps.
func Wrap(sentinel error, context string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", context, sentinel)
	}
	return fmt.Errorf("%s: %w: %w", context, sentinel, err)
}
