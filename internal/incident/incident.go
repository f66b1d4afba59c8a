// Package incident defines the simulated incident data the training engine
// consumes: the incident record itself plus the alerts, endpoints, and log
// lines a trainee investigates. The workflow engine reads these by reference
// and never mutates them.
package incident

import (
	"time"

	"github.com/haven-sec/rehearse/internal/types"
)

// Record is a simulated incident. It is owned by the scenario that seeded
// it; the engine and report synthesizer only read it.
type Record struct {
	ID                types.ID             `json:"id"`
	Title             string               `json:"title"`
	IncidentType      string               `json:"incident_type"`
	Severity          types.Severity       `json:"severity"`
	Status            types.IncidentStatus `json:"status"`
	AffectedEndpoints []string             `json:"affected_endpoints"`
	MITRETactics      []string             `json:"mitre_tactics"`
	CreatedAt         time.Time            `json:"created_at"`
}

// Alert is a simulated detection alert attached to an incident.
type Alert struct {
	ID         types.ID       `json:"id"`
	IncidentID types.ID       `json:"incident_id"`
	Source     string         `json:"source"`
	Title      string         `json:"title"`
	Severity   types.Severity `json:"severity"`
	RaisedAt   time.Time      `json:"raised_at"`
}

// Endpoint is a simulated host involved in an incident.
type Endpoint struct {
	ID         string   `json:"id"`
	IncidentID types.ID `json:"incident_id"`
	Hostname   string   `json:"hostname"`
	IPAddress  string   `json:"ip_address"`
	OS         string   `json:"os"`
	Isolated   bool     `json:"isolated"`
}

// LogEntry is a simulated log line a trainee can review during scoping and
// investigation.
type LogEntry struct {
	ID         types.ID  `json:"id"`
	IncidentID types.ID  `json:"incident_id"`
	Source     string    `json:"source"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}
