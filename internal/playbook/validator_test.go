package playbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-sec/rehearse/internal/types"
)

// twoNodePlaybook builds the minimal valid graph used across tests:
// A --"Proceed"--> B, with a terminal "Acknowledge" option on B.
func twoNodePlaybook() *Playbook {
	return &Playbook{
		ID:          "test",
		Name:        "Test Playbook",
		StartNodeID: "a",
		Nodes: map[string]*Node{
			"a": {
				ID:    "a",
				Title: "Node A",
				Phase: types.PhaseDetection,
				Options: []Option{
					{Label: "Proceed", Next: "b"},
				},
			},
			"b": {
				ID:    "b",
				Title: "Node B",
				Phase: types.PhaseScoping,
				Options: []Option{
					{Label: "Acknowledge"},
				},
			},
		},
	}
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	require.NoError(t, NewValidator().Validate(twoNodePlaybook()))
}

func TestValidateAcceptsCycles(t *testing.T) {
	pb := twoNodePlaybook()
	// Revisiting a phase is legitimate: b may loop back to a.
	pb.Nodes["b"].Options = append(pb.Nodes["b"].Options, Option{Label: "Revisit detection", Next: "a"})
	require.NoError(t, NewValidator().Validate(pb))
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Playbook)
		message string
	}{
		{
			name:    "missing start node",
			mutate:  func(p *Playbook) { p.StartNodeID = "ghost" },
			message: "start node",
		},
		{
			name:    "empty start node",
			mutate:  func(p *Playbook) { p.StartNodeID = "" },
			message: "no start node",
		},
		{
			name: "dangling option target",
			mutate: func(p *Playbook) {
				p.Nodes["a"].Options = []Option{{Label: "Proceed", Next: "ghost"}}
			},
			message: "missing node",
		},
		{
			name: "duplicate option labels",
			mutate: func(p *Playbook) {
				p.Nodes["a"].Options = []Option{
					{Label: "Proceed", Next: "b"},
					{Label: "Proceed"},
				}
			},
			message: "more than once",
		},
		{
			name: "empty option label",
			mutate: func(p *Playbook) {
				p.Nodes["a"].Options = []Option{{Label: "", Next: "b"}}
			},
			message: "empty label",
		},
		{
			name: "invalid phase",
			mutate: func(p *Playbook) {
				p.Nodes["a"].Phase = "triage"
			},
			message: "invalid phase",
		},
		{
			name: "node key mismatch",
			mutate: func(p *Playbook) {
				p.Nodes["a"].ID = "z"
			},
			message: "does not match",
		},
		{
			name:    "no nodes",
			mutate:  func(p *Playbook) { p.Nodes = nil },
			message: "at least one node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := twoNodePlaybook()
			tt.mutate(pb)
			err := NewValidator().Validate(pb)
			require.Error(t, err)
			assert.Equal(t, types.PLAYBOOK_INVALID, types.CodeOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestUnreachableNodes(t *testing.T) {
	pb := twoNodePlaybook()
	pb.Nodes["orphan"] = &Node{ID: "orphan", Phase: types.PhasePostIncident}
	require.NoError(t, NewValidator().Validate(pb))

	unreachable := NewValidator().UnreachableNodes(pb)
	assert.Equal(t, []string{"orphan"}, unreachable)

	reached := NewValidator().Reachable(pb)
	assert.Contains(t, reached, "a")
	assert.Contains(t, reached, "b")
	assert.NotContains(t, reached, "orphan")
}

func TestFindOption(t *testing.T) {
	node := twoNodePlaybook().Nodes["a"]

	opt, ok := node.FindOption("Proceed")
	require.True(t, ok)
	assert.Equal(t, "b", opt.Next)
	assert.False(t, opt.IsTerminal())

	_, ok = node.FindOption("proceed")
	assert.False(t, ok, "label match is case sensitive")

	terminal, ok := twoNodePlaybook().Nodes["b"].FindOption("Acknowledge")
	require.True(t, ok)
	assert.True(t, terminal.IsTerminal())
}

func TestTechniquesForDeduplicates(t *testing.T) {
	pb := twoNodePlaybook()
	pb.Nodes["a"].MITRETechniques = []string{"T1486", "T1490"}
	pb.Nodes["b"].MITRETechniques = []string{"T1490", "T1059"}

	got := pb.TechniquesFor([]string{"a", "b", "missing"})
	assert.Equal(t, []string{"T1486", "T1490", "T1059"}, got)
}
