package types

import (
	"encoding/json"
	"fmt"
)

// Phase is one of the five fixed incident-response stages a playbook node
// belongs to. Phases are ordered; the order is used for progress display and
// report grouping, not to restrict transitions (playbooks may revisit phases).
type Phase string

const (
	PhaseDetection     Phase = "detection"
	PhaseScoping       Phase = "scoping"
	PhaseInvestigation Phase = "investigation"
	PhaseRemediation   Phase = "remediation"
	PhasePostIncident  Phase = "post_incident"
)

// phaseOrder fixes the canonical ordering of the five phases.
var phaseOrder = []Phase{
	PhaseDetection,
	PhaseScoping,
	PhaseInvestigation,
	PhaseRemediation,
	PhasePostIncident,
}

// AllPhases returns the five phases in canonical order.
func AllPhases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid checks if the Phase is a valid value.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseDetection, PhaseScoping, PhaseInvestigation, PhaseRemediation, PhasePostIncident:
		return true
	default:
		return false
	}
}

// Index returns the zero-based position of the phase in canonical order,
// or -1 for an invalid phase.
func (p Phase) Index() int {
	for i, candidate := range phaseOrder {
		if p == candidate {
			return i
		}
	}
	return -1
}

// Title returns a human-readable name for the phase.
func (p Phase) Title() string {
	switch p {
	case PhaseDetection:
		return "Detection"
	case PhaseScoping:
		return "Scoping"
	case PhaseInvestigation:
		return "Investigation"
	case PhaseRemediation:
		return "Remediation"
	case PhasePostIncident:
		return "Post-Incident"
	default:
		return string(p)
	}
}

// MarshalJSON implements json.Marshaler
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Phase) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	phase := Phase(str)
	if !phase.IsValid() {
		return fmt.Errorf("invalid phase: %s", str)
	}
	*p = phase
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler so playbook definitions can name
// phases directly.
func (p *Phase) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return err
	}
	phase := Phase(str)
	if !phase.IsValid() {
		return fmt.Errorf("invalid phase: %s", str)
	}
	*p = phase
	return nil
}
