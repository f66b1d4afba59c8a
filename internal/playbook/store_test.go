package playbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-sec/rehearse/internal/types"
)

func TestMemoryStoreGetPlaybook(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Add(twoNodePlaybook()))

	pb, err := store.GetPlaybook(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, "test", pb.ID)

	_, err = store.GetPlaybook(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestMemoryStoreRejectsInvalidPlaybook(t *testing.T) {
	store := NewMemoryStore()
	pb := twoNodePlaybook()
	pb.StartNodeID = "ghost"
	err := store.Add(pb)
	require.Error(t, err)
	assert.Equal(t, types.PLAYBOOK_INVALID, types.CodeOf(err))
}

func TestMemoryStoreRejectsDuplicateID(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Add(twoNodePlaybook()))
	err := store.Add(twoNodePlaybook())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMemoryStoreListOrdered(t *testing.T) {
	store := NewMemoryStore()

	second := twoNodePlaybook()
	second.ID = "zz-second"
	first := twoNodePlaybook()
	first.ID = "aa-first"

	require.NoError(t, store.Add(second))
	require.NoError(t, store.Add(first))

	listed := store.ListPlaybooks(context.Background())
	require.Len(t, listed, 2)
	assert.Equal(t, "aa-first", listed[0].ID)
	assert.Equal(t, "zz-second", listed[1].ID)
}

func TestMemoryStoreLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ransomware.yaml"), []byte(sampleYAML), 0o644))

	store := NewMemoryStore()
	require.NoError(t, store.LoadDir(dir))

	pb, err := store.GetPlaybook(context.Background(), "ransomware")
	require.NoError(t, err)
	assert.Equal(t, "Ransomware Response", pb.Name)
}
