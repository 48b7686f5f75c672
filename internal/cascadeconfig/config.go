// Package cascadeconfig loads process-wide configuration from environment
// variables, following the same load-then-default-fill shape the teacher
// repo uses for its own runtime configuration.
package cascadeconfig

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds tunables for the indexing pipeline and query router. It is
// loaded once at process start and never mutated afterward — components
// receive a copy or a read-only reference, never the live environment.
type Config struct {
	// WorkspaceRoot is the root directory of the primary workspace.
	WorkspaceRoot string

	// DataDir is the directory under which .cascade/ is created. Defaults
	// to WorkspaceRoot.
	DataDir string

	// IndexWriterHeapBytes is loaded from CASCADE_INDEX_HEAP_BYTES. No
	// component reads it; the bleve writer runs without a memory budget.
	IndexWriterHeapBytes int

	// MaxFileBytes is copied into pipeline.Pipeline.MaxFileBytes by
	// core.Open. Discovery does not read it; it applies its own fixed
	// 1 MiB limit.
	MaxFileBytes int64

	// BulkFlushSymbols is loaded from CASCADE_BULK_FLUSH_SYMBOLS. No
	// component reads it; the pipeline holds every extracted symbol in
	// memory and stores them in one bulk call.
	BulkFlushSymbols int

	// ParserPoolSize is loaded from CASCADE_PARSER_POOL_SIZE. No component
	// reads it; the number of parsers is not capped by this value.
	ParserPoolSize int

	// Debug enables verbose logging.
	Debug bool
}

// Load reads CASCADE_* environment variables, first loading a .env file if
// present (ignoring its absence, matching the teacher's godotenv.Load()
// best-effort usage).
func Load(workspaceRoot string) *Config {
	_ = godotenv.Load()

	cfg := &Config{
		WorkspaceRoot:        workspaceRoot,
		DataDir:              workspaceRoot,
		IndexWriterHeapBytes: 50 * 1024 * 1024,
		MaxFileBytes:         1024 * 1024,
		BulkFlushSymbols:     1_000_000,
		ParserPoolSize:       4,
		Debug:                false,
	}

	if v := os.Getenv("CASCADE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CASCADE_INDEX_HEAP_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.IndexWriterHeapBytes = n
		}
	}
	if v := os.Getenv("CASCADE_MAX_FILE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxFileBytes = n
		}
	}
	if v := os.Getenv("CASCADE_BULK_FLUSH_SYMBOLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BulkFlushSymbols = n
		}
	}
	if v := os.Getenv("CASCADE_PARSER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ParserPoolSize = n
		}
	}
	if v := os.Getenv("CASCADE_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}

	return cfg
}
