package playbook

import (
	"sort"

	"github.com/haven-sec/rehearse/internal/types"
)

// Validator performs structural validation of playbook graphs at load time.
// A playbook that passes validation is guaranteed traversal-safe: the start
// node resolves, every option target resolves, and option labels are unique
// per node. It is stateless and safe for concurrent use.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs all structural checks and returns the first failure as a
// PLAYBOOK_INVALID error. Validation happens once at load; traversal never
// re-checks integrity.
func (v *Validator) Validate(p *Playbook) error {
	if p == nil {
		return types.NewError(types.PLAYBOOK_INVALID, "playbook cannot be nil")
	}
	if p.ID == "" {
		return types.NewError(types.PLAYBOOK_INVALID, "playbook id cannot be empty")
	}
	if len(p.Nodes) == 0 {
		return types.NewErrorf(types.PLAYBOOK_INVALID, "playbook %s must contain at least one node", p.ID)
	}

	if p.StartNodeID == "" {
		return types.NewErrorf(types.PLAYBOOK_INVALID, "playbook %s has no start node", p.ID)
	}
	if p.GetNode(p.StartNodeID) == nil {
		return types.NewErrorf(types.PLAYBOOK_INVALID,
			"playbook %s start node %q does not exist", p.ID, p.StartNodeID)
	}

	for nodeID, node := range p.Nodes {
		if err := v.validateNode(p, nodeID, node); err != nil {
			return err
		}
	}

	return nil
}

// validateNode checks a single node: identity, phase, option targets, and
// label uniqueness.
func (v *Validator) validateNode(p *Playbook, nodeID string, node *Node) error {
	if node == nil {
		return types.NewErrorf(types.PLAYBOOK_INVALID,
			"playbook %s: node %q is nil", p.ID, nodeID)
	}
	if node.ID != nodeID {
		return types.NewErrorf(types.PLAYBOOK_INVALID,
			"playbook %s: node key %q does not match node id %q", p.ID, nodeID, node.ID)
	}
	if !node.Phase.IsValid() {
		return types.NewErrorf(types.PLAYBOOK_INVALID,
			"playbook %s: node %q has invalid phase %q", p.ID, nodeID, node.Phase)
	}

	labels := make(map[string]struct{}, len(node.Options))
	for i, opt := range node.Options {
		if opt.Label == "" {
			return types.NewErrorf(types.PLAYBOOK_INVALID,
				"playbook %s: node %q option %d has an empty label", p.ID, nodeID, i)
		}
		if _, dup := labels[opt.Label]; dup {
			return types.NewErrorf(types.PLAYBOOK_INVALID,
				"playbook %s: node %q declares option label %q more than once", p.ID, nodeID, opt.Label)
		}
		labels[opt.Label] = struct{}{}

		if opt.Next != "" && p.GetNode(opt.Next) == nil {
			return types.NewErrorf(types.PLAYBOOK_INVALID,
				"playbook %s: node %q option %q references missing node %q",
				p.ID, nodeID, opt.Label, opt.Next)
		}
	}

	return nil
}

// Reachable returns the set of node IDs reachable from the start node via
// option edges. Unreachable nodes are legal (authoring aid, not an error)
// but callers may want to warn about them.
func (v *Validator) Reachable(p *Playbook) map[string]struct{} {
	reached := make(map[string]struct{})
	if p == nil || p.GetNode(p.StartNodeID) == nil {
		return reached
	}

	stack := []string{p.StartNodeID}
	for len(stack) > 0 {
		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := reached[nodeID]; ok {
			continue
		}
		reached[nodeID] = struct{}{}

		node := p.GetNode(nodeID)
		if node == nil {
			continue
		}
		for _, opt := range node.Options {
			if opt.Next != "" {
				stack = append(stack, opt.Next)
			}
		}
	}
	return reached
}

// UnreachableNodes returns the IDs of nodes that cannot be reached from the
// start node, sorted for stable output.
func (v *Validator) UnreachableNodes(p *Playbook) []string {
	reached := v.Reachable(p)
	var out []string
	for nodeID := range p.Nodes {
		if _, ok := reached[nodeID]; !ok {
			out = append(out, nodeID)
		}
	}
	sort.Strings(out)
	return out
}
