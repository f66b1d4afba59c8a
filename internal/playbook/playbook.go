package playbook

import (
	"github.com/haven-sec/rehearse/internal/types"
)

// Option is a labeled choice presented on a playbook node. An option may
// carry an action identifier for the external action executor and may lead
// to another node. An option with no Next target is terminal or purely
// informational: selecting it records the action without moving the session.
type Option struct {
	// Label is the human-visible choice text. Labels are unique within a
	// node; the load-time validator rejects duplicates.
	Label string `json:"label" yaml:"label"`

	// ActionID optionally names an external action associated with this
	// choice (e.g. "isolate-endpoint"). The engine never executes it.
	ActionID string `json:"action_id,omitempty" yaml:"action,omitempty"`

	// Next is the ID of the node this option leads to. Empty means the
	// option is terminal/informational.
	Next string `json:"next,omitempty" yaml:"next,omitempty"`
}

// IsTerminal reports whether selecting this option leaves the session on its
// current node.
func (o Option) IsTerminal() bool {
	return o.Next == ""
}

// Node is one step of a response procedure: guidance text for a single phase
// plus the choices available from it. Nodes are immutable after load.
type Node struct {
	// ID uniquely identifies the node within its playbook.
	ID string `json:"id" yaml:"id"`

	// Title is a short human-readable name for the step.
	Title string `json:"title" yaml:"title"`

	// Phase is the incident-response stage this step belongs to.
	Phase types.Phase `json:"phase" yaml:"phase"`

	// Guidance is the free-text prompt shown to the trainee at this step.
	Guidance string `json:"guidance" yaml:"guidance"`

	// Options are the ordered choices selectable from this node.
	Options []Option `json:"options" yaml:"options"`

	// MITRETechniques lists ATT&CK technique IDs associated with this step.
	MITRETechniques []string `json:"mitre_techniques,omitempty" yaml:"techniques,omitempty"`

	// Reference is supplementary reading attached to the step.
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// FindOption returns the option with the given label. The validator
// guarantees label uniqueness per node, so an exact match is unambiguous.
func (n *Node) FindOption(label string) (Option, bool) {
	for _, opt := range n.Options {
		if opt.Label == label {
			return opt, true
		}
	}
	return Option{}, false
}

// Playbook is the directed graph of procedure nodes for one incident type.
// The graph may contain cycles (a trainee can legitimately revisit a phase);
// only structural integrity is validated at load time.
type Playbook struct {
	// ID uniquely identifies the playbook (e.g. "ransomware").
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable playbook title.
	Name string `json:"name" yaml:"name"`

	// StartNodeID is the entry node every new session binds to.
	StartNodeID string `json:"start_node_id" yaml:"start"`

	// Nodes maps node ID to node definition.
	Nodes map[string]*Node `json:"nodes" yaml:"-"`
}

// GetNode retrieves a node by ID. Returns nil if the node is not found.
func (p *Playbook) GetNode(id string) *Node {
	if p.Nodes == nil {
		return nil
	}
	return p.Nodes[id]
}

// StartNode returns the entry node of the playbook. On a validated playbook
// it never returns nil.
func (p *Playbook) StartNode() *Node {
	return p.GetNode(p.StartNodeID)
}

// NodeCount returns the number of nodes in the playbook.
func (p *Playbook) NodeCount() int {
	return len(p.Nodes)
}

// TechniquesFor returns the union of MITRE technique IDs attached to the
// given node IDs, preserving first-seen order and skipping unknown nodes.
func (p *Playbook) TechniquesFor(nodeIDs []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, nodeID := range nodeIDs {
		node := p.GetNode(nodeID)
		if node == nil {
			continue
		}
		for _, technique := range node.MITRETechniques {
			if _, ok := seen[technique]; ok {
				continue
			}
			seen[technique] = struct{}{}
			out = append(out, technique)
		}
	}
	return out
}
