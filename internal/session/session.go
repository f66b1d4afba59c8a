// Package session defines the mutable progress record of one trainee working
// one incident through a playbook. Sessions are persisted whole by the
// session stores; the engine holds only an in-flight copy during a single
// operation.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/haven-sec/rehearse/internal/types"
)

// ActionEntry is one row of the append-only action log. Entries are never
// edited or removed; their order is the authoritative timeline of a session.
type ActionEntry struct {
	// Timestamp is server-assigned at the moment the action was recorded.
	Timestamp time.Time `json:"timestamp"`

	// ActionLabel is the literal option label the trainee selected.
	ActionLabel string `json:"action_label"`

	// Details carries optional string-typed context (node id, action id).
	Details map[string]string `json:"details,omitempty"`
}

// WorkflowSession tracks a trainee's position in a playbook graph. ID and
// IncidentID are immutable after creation; everything else is mutated
// exclusively through the engine's Advance operation.
type WorkflowSession struct {
	ID             types.ID            `json:"id"`
	IncidentID     types.ID            `json:"incident_id"`
	PlaybookID     string              `json:"playbook_id"`
	CurrentNodeID  string              `json:"current_node_id"`
	CompletedNodes []string            `json:"completed_nodes"`
	ActionsTaken   []ActionEntry       `json:"actions_taken"`
	Status         types.SessionStatus `json:"status"`
	UserRole       types.UserRole      `json:"user_role"`
	StartedAt      time.Time           `json:"started_at"`
}

// New creates an Active session bound to the given playbook start node.
// CompletedNodes and ActionsTaken start empty but non-nil so the canonical
// JSON form is identical across backends.
func New(incidentID types.ID, playbookID, startNodeID string, role types.UserRole, now time.Time) *WorkflowSession {
	return &WorkflowSession{
		ID:             types.NewID(),
		IncidentID:     incidentID,
		PlaybookID:     playbookID,
		CurrentNodeID:  startNodeID,
		CompletedNodes: []string{},
		ActionsTaken:   []ActionEntry{},
		Status:         types.SessionStatusActive,
		UserRole:       role,
		StartedAt:      now,
	}
}

// Validate checks the structural integrity of a session record.
func (s *WorkflowSession) Validate() error {
	if err := s.ID.Validate(); err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	if err := s.IncidentID.Validate(); err != nil {
		return fmt.Errorf("session incident id: %w", err)
	}
	if s.PlaybookID == "" {
		return fmt.Errorf("session %s has no playbook id", s.ID)
	}
	if s.CurrentNodeID == "" {
		return fmt.Errorf("session %s has no current node", s.ID)
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("session %s has invalid status %q", s.ID, s.Status)
	}
	if !s.UserRole.IsValid() {
		return fmt.Errorf("session %s has invalid role %q", s.ID, s.UserRole)
	}
	seen := make(map[string]struct{}, len(s.CompletedNodes))
	for _, nodeID := range s.CompletedNodes {
		if _, dup := seen[nodeID]; dup {
			return fmt.Errorf("session %s lists completed node %q twice", s.ID, nodeID)
		}
		seen[nodeID] = struct{}{}
	}
	return nil
}

// HasCompleted reports whether nodeID is already in the completion record.
func (s *WorkflowSession) HasCompleted(nodeID string) bool {
	for _, completed := range s.CompletedNodes {
		if completed == nodeID {
			return true
		}
	}
	return false
}

// VisitedNodes returns the completed nodes plus the current node, in
// completion order. Used by the report synthesizer for technique union.
func (s *WorkflowSession) VisitedNodes() []string {
	visited := make([]string, 0, len(s.CompletedNodes)+1)
	visited = append(visited, s.CompletedNodes...)
	if !s.HasCompleted(s.CurrentNodeID) {
		visited = append(visited, s.CurrentNodeID)
	}
	return visited
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate persisted state without going back through UpdateSession.
func (s *WorkflowSession) Clone() *WorkflowSession {
	if s == nil {
		return nil
	}
	out := *s
	out.CompletedNodes = make([]string, len(s.CompletedNodes))
	copy(out.CompletedNodes, s.CompletedNodes)
	out.ActionsTaken = make([]ActionEntry, len(s.ActionsTaken))
	for i, entry := range s.ActionsTaken {
		cloned := entry
		if entry.Details != nil {
			cloned.Details = make(map[string]string, len(entry.Details))
			for k, v := range entry.Details {
				cloned.Details[k] = v
			}
		}
		out.ActionsTaken[i] = cloned
	}
	return &out
}

// Encode serializes the session to its canonical JSON document. Both storage
// backends persist exactly this form, which is what makes byte-level
// round-trip parity testable.
func (s *WorkflowSession) Encode() ([]byte, error) {
	normalized := s.Clone()
	normalized.StartedAt = normalized.StartedAt.UTC().Truncate(time.Millisecond)
	for i := range normalized.ActionsTaken {
		normalized.ActionsTaken[i].Timestamp = normalized.ActionsTaken[i].Timestamp.UTC().Truncate(time.Millisecond)
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}
	return data, nil
}

// Decode deserializes a canonical session document.
func Decode(data []byte) (*WorkflowSession, error) {
	var s WorkflowSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.CompletedNodes == nil {
		s.CompletedNodes = []string{}
	}
	if s.ActionsTaken == nil {
		s.ActionsTaken = []ActionEntry{}
	}
	return &s, nil
}
