package playbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-sec/rehearse/internal/types"
)

const sampleYAML = `
id: ransomware
name: Ransomware Response
start: triage-alert
nodes:
  - id: triage-alert
    title: Triage the initial alert
    phase: detection
    guidance: |
      Review the EDR alert and confirm encryption activity on the host.
    techniques: [T1486]
    options:
      - label: Confirm and scope affected hosts
        action: pull-edr-telemetry
        next: scope-hosts
      - label: Dismiss as false positive
  - id: scope-hosts
    title: Identify affected systems
    phase: scoping
    guidance: Enumerate hosts with matching IOCs.
    reference: https://attack.mitre.org/techniques/T1486/
    options:
      - label: Isolate affected endpoints
        action: isolate-endpoint
        next: triage-alert
`

func TestParsePlaybook(t *testing.T) {
	pb, err := ParsePlaybook([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "ransomware", pb.ID)
	assert.Equal(t, "Ransomware Response", pb.Name)
	assert.Equal(t, "triage-alert", pb.StartNodeID)
	require.Equal(t, 2, pb.NodeCount())

	start := pb.StartNode()
	require.NotNil(t, start)
	assert.Equal(t, types.PhaseDetection, start.Phase)
	assert.Equal(t, []string{"T1486"}, start.MITRETechniques)
	assert.Contains(t, start.Guidance, "encryption activity")

	require.Len(t, start.Options, 2)
	assert.Equal(t, "pull-edr-telemetry", start.Options[0].ActionID)
	assert.Equal(t, "scope-hosts", start.Options[0].Next)
	assert.True(t, start.Options[1].IsTerminal())

	scope := pb.GetNode("scope-hosts")
	require.NotNil(t, scope)
	assert.Equal(t, "https://attack.mitre.org/techniques/T1486/", scope.Reference)
}

func TestParsePlaybookRejectsInvalidYAML(t *testing.T) {
	_, err := ParsePlaybook([]byte("nodes: [unbalanced"))
	require.Error(t, err)
	assert.Equal(t, types.PLAYBOOK_LOAD_FAILED, types.CodeOf(err))
}

func TestParsePlaybookRejectsDanglingTarget(t *testing.T) {
	broken := `
id: broken
name: Broken
start: only
nodes:
  - id: only
    title: Only node
    phase: detection
    options:
      - label: Go
        next: nowhere
`
	_, err := ParsePlaybook([]byte(broken))
	require.Error(t, err)
	assert.Equal(t, types.PLAYBOOK_INVALID, types.CodeOf(err))
}

func TestParsePlaybookRejectsDuplicateNodeIDs(t *testing.T) {
	dup := `
id: dup
name: Dup
start: a
nodes:
  - id: a
    title: First
    phase: detection
  - id: a
    title: Second
    phase: scoping
`
	_, err := ParsePlaybook([]byte(dup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node id")
}

func TestLoadPlaybookDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ransomware.yaml"), []byte(sampleYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	playbooks, err := LoadPlaybookDir(dir)
	require.NoError(t, err)
	require.Len(t, playbooks, 1)
	assert.Equal(t, "ransomware", playbooks[0].ID)
}

func TestLoadPlaybookDirFailsOnAnyInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(sampleYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("start: ghost\nid: bad\nname: Bad\nnodes: []"), 0o644))

	_, err := LoadPlaybookDir(dir)
	require.Error(t, err)
}

func TestLoadPlaybookFileMissing(t *testing.T) {
	_, err := LoadPlaybookFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, types.PLAYBOOK_LOAD_FAILED, types.CodeOf(err))
}
