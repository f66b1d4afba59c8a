package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-sec/rehearse/internal/store"
	"github.com/haven-sec/rehearse/internal/store/storetest"
	"github.com/haven-sec/rehearse/internal/types"
)

func newStore(t *testing.T) store.SessionStore {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileStoreConformance(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestOpenCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	for _, sub := range []string{"incidents", "alerts", "endpoints", "logs", "sessions", "heads"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	_, err = os.Stat(filepath.Join(dir, ".lock"))
	require.NoError(t, err)
}

func TestOpenRefusesLockedDirectory(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir)
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(dir)
	require.Error(t, err)
	assert.Equal(t, types.STORE_OPEN_FAILED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "locked by another process")
}

func TestReopenAfterClose(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(dir)
	require.NoError(t, err)
	defer second.Close()
}

func TestSessionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(dir)
	require.NoError(t, err)

	incidentID := types.NewID()
	created, err := first.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleAnalyst)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(dir)
	require.NoError(t, err)
	defer second.Close()

	reread, err := second.GetSession(ctx, incidentID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, reread.ID)
	assert.Equal(t, "triage-alert", reread.CurrentNodeID)
}

// Starting a fresh session over a finished one must leave the old session
// document on disk, addressable by id, matching the keep-every-row behavior
// of the relational backend.
func TestSupersededSessionDocumentIsKept(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	incidentID := types.NewID()
	first, err := s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleAnalyst)
	require.NoError(t, err)

	first.Status = types.SessionStatusCompleted
	_, err = s.UpdateSession(ctx, first)
	require.NoError(t, err)

	second, err := s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleManager)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	// Both documents exist side by side.
	for _, id := range []types.ID{first.ID, second.ID} {
		_, statErr := os.Stat(filepath.Join(dir, "sessions", id.String()+".json"))
		require.NoError(t, statErr)
	}

	old, err := s.GetSessionByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionStatusCompleted, old.Status)
	assert.Equal(t, types.UserRoleAnalyst, old.UserRole)

	latest, err := s.GetSession(ctx, incidentID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CreateSession(ctx, types.NewID(), "ransomware", "triage-alert", types.UserRoleAnalyst)
	require.NoError(t, err)

	for _, sub := range []string{"sessions", "heads"} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		require.NoError(t, err)
		for _, entry := range entries {
			assert.NotContains(t, entry.Name(), ".tmp")
		}
	}
}
