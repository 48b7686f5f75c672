package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/cascade/internal/types"
)

func TestNewIdentityIsDeterministic(t *testing.T) {
	a := NewIdentity("/tmp/project", types.WorkspacePrimary)
	b := NewIdentity("/tmp/project", types.WorkspacePrimary)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, types.WorkspacePrimary, a.Type)
}

func TestNewIdentityDiffersByRoot(t *testing.T) {
	a := NewIdentity("/tmp/project-a", types.WorkspacePrimary)
	b := NewIdentity("/tmp/project-b", types.WorkspacePrimary)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDataDirNestsUnderID(t *testing.T) {
	id := NewIdentity("/tmp/project", types.WorkspacePrimary)
	dir := id.DataDir("/data")
	assert.Contains(t, dir, id.ID)
	assert.Contains(t, dir, "/data")
}

func TestRegistryAddReferenceAndGet(t *testing.T) {
	primary := NewIdentity("/tmp/primary", types.WorkspacePrimary)
	reg := NewRegistry(primary)

	ref := reg.AddReference("/tmp/reference")
	assert.Equal(t, types.WorkspaceReference, ref.Type)

	got, ok := reg.Get(ref.ID)
	require.True(t, ok)
	assert.Equal(t, ref.Root, got.Root)

	gotPrimary, ok := reg.Get(primary.ID)
	require.True(t, ok)
	assert.Equal(t, primary.ID, gotPrimary.ID)

	_, ok = reg.Get("unknown")
	assert.False(t, ok)

	assert.Len(t, reg.References(), 1)
}
