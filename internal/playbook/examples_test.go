package playbook

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The shipped example playbooks must always load cleanly; they are the first
// thing a new user runs.
func TestShippedExamplePlaybooksAreValid(t *testing.T) {
	dir := filepath.Join("..", "..", "examples", "playbooks")

	playbooks, err := LoadPlaybookDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, playbooks)

	ids := make(map[string]bool)
	for _, pb := range playbooks {
		ids[pb.ID] = true
		assert.Empty(t, NewValidator().UnreachableNodes(pb), "playbook %s has unreachable nodes", pb.ID)
	}
	assert.True(t, ids["ransomware"])
	assert.True(t, ids["phishing"])
}
