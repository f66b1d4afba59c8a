// Package report derives point-in-time incident response reports from a
// workflow session and its incident record. Generation is read-only: it can
// run repeatedly and concurrently without coordinating with the engine.
package report

import (
	"time"

	"github.com/haven-sec/rehearse/internal/types"
)

// Summary is the headline block of a report.
type Summary struct {
	Title              string               `json:"title"`
	IncidentType       string               `json:"incident_type"`
	Severity           types.Severity       `json:"severity"`
	IncidentStatus     types.IncidentStatus `json:"incident_status"`
	SessionStatus      types.SessionStatus  `json:"session_status"`
	AffectedAssetCount int                  `json:"affected_asset_count"`

	// ElapsedResponse is the wall-clock time between session start and
	// report generation, not between actions.
	ElapsedResponse time.Duration `json:"elapsed_response_ns"`
}

// TimelineEntry is one row of the reconstructed response timeline. Rows map
// one-to-one onto the session's action log, in log order.
type TimelineEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	ActionLabel string    `json:"action_label"`
	FromNode    string    `json:"from_node,omitempty"`
	ToNode      string    `json:"to_node,omitempty"`
	ActionID    string    `json:"action_id,omitempty"`
}

// Report is the full point-in-time artifact handed to exporters.
type Report struct {
	IncidentID  types.ID       `json:"incident_id"`
	SessionID   types.ID       `json:"session_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Role        types.UserRole `json:"role"`

	Summary  Summary         `json:"summary"`
	Timeline []TimelineEntry `json:"timeline"`

	// MITRETactics comes from the incident record; MITRETechniques is the
	// union of techniques attached to playbook nodes the trainee visited.
	MITRETactics    []string `json:"mitre_tactics"`
	MITRETechniques []string `json:"mitre_techniques"`

	Recommendations []string `json:"recommendations"`
}
