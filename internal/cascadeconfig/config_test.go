package cascadeconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaultsDataDirToWorkspaceRoot(t *testing.T) {
	cfg := Load("/workspace/root")
	assert.Equal(t, "/workspace/root", cfg.WorkspaceRoot)
	assert.Equal(t, "/workspace/root", cfg.DataDir)
	assert.Equal(t, 4, cfg.ParserPoolSize)
	assert.False(t, cfg.Debug)
}

func TestLoadHonorsEnvironmentOverrides(t *testing.T) {
	t.Setenv("CASCADE_DATA_DIR", "/custom/data")
	t.Setenv("CASCADE_MAX_FILE_BYTES", "2048")
	t.Setenv("CASCADE_PARSER_POOL_SIZE", "8")
	t.Setenv("CASCADE_DEBUG", "true")

	cfg := Load("/workspace/root")
	assert.Equal(t, "/custom/data", cfg.DataDir)
	assert.Equal(t, int64(2048), cfg.MaxFileBytes)
	assert.Equal(t, 8, cfg.ParserPoolSize)
	assert.True(t, cfg.Debug)
}

func TestLoadIgnoresInvalidNumericOverrides(t *testing.T) {
	t.Setenv("CASCADE_MAX_FILE_BYTES", "not-a-number")
	cfg := Load("/workspace/root")
	assert.Equal(t, int64(1024*1024), cfg.MaxFileBytes)
}
