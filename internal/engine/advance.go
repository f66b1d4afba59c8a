package engine

import (
	"time"

	"github.com/haven-sec/rehearse/internal/playbook"
	"github.com/haven-sec/rehearse/internal/session"
	"github.com/haven-sec/rehearse/internal/types"
)

// detail keys recorded on every action log entry.
const (
	detailFromNode = "from_node"
	detailToNode   = "to_node"
	detailActionID = "action_id"
)

// advance applies one option selection to a session against its playbook
// and returns the mutated copy. It is pure: no I/O, no hidden state, no
// clock access beyond the caller-supplied timestamp, which is what makes
// the transition rules directly unit-testable.
//
// Rules:
//   - the session must be Active;
//   - the option label must exist on the current node, or the result is an
//     INVALID_TRANSITION error and the session is untouched;
//   - a terminal option (no next target) records the action and changes
//     nothing else; in particular the current node is NOT added to
//     completedNodes; completion is only ever recorded on transition out;
//   - a transition out appends the departed node to completedNodes unless
//     already present (revisits never duplicate), moves the current node,
//     and records the action.
func advance(s *session.WorkflowSession, pb *playbook.Playbook, label string, now time.Time) (*session.WorkflowSession, error) {
	if s.Status != types.SessionStatusActive {
		return nil, types.NewErrorf(types.INVALID_TRANSITION,
			"session %s is %s, not active", s.ID, s.Status)
	}

	node := pb.GetNode(s.CurrentNodeID)
	if node == nil {
		return nil, types.NewErrorf(types.INVALID_TRANSITION,
			"session %s points at unknown node %q in playbook %s", s.ID, s.CurrentNodeID, pb.ID)
	}

	opt, ok := node.FindOption(label)
	if !ok {
		return nil, types.NewErrorf(types.INVALID_TRANSITION,
			"node %q has no option labeled %q", node.ID, label)
	}

	next := s.Clone()
	entry := session.ActionEntry{
		Timestamp:   now,
		ActionLabel: label,
		Details:     map[string]string{detailFromNode: node.ID},
	}
	if opt.ActionID != "" {
		entry.Details[detailActionID] = opt.ActionID
	}

	if opt.IsTerminal() {
		next.ActionsTaken = append(next.ActionsTaken, entry)
		return next, nil
	}

	// Validated playbooks cannot dangle, but a session may outlive a
	// playbook edit on disk; surface it as the caller/data bug it is.
	if pb.GetNode(opt.Next) == nil {
		return nil, types.NewErrorf(types.INVALID_TRANSITION,
			"node %q option %q references unknown node %q", node.ID, label, opt.Next)
	}

	if !next.HasCompleted(node.ID) {
		next.CompletedNodes = append(next.CompletedNodes, node.ID)
	}
	next.CurrentNodeID = opt.Next
	entry.Details[detailToNode] = opt.Next
	next.ActionsTaken = append(next.ActionsTaken, entry)

	return next, nil
}
