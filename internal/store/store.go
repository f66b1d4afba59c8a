// Package store defines the persistence seam for workflow sessions and the
// incident-adjacent data that surrounds them. Two interchangeable backends
// implement the contract: an ephemeral file store for zero-dependency
// operation and a SQLite store for longer-lived deployments. The backends
// must be behaviorally indistinguishable to callers; the conformance suite
// in store/storetest enforces that parity against both.
package store

import (
	"context"

	"github.com/haven-sec/rehearse/internal/incident"
	"github.com/haven-sec/rehearse/internal/session"
	"github.com/haven-sec/rehearse/internal/types"
)

// SessionStore is the dual-backend persistence contract. Error classes are
// shared across backends: not-found codes for missing records,
// SESSION_CONFLICT for a duplicate active session, STORE_IO_FAILED for an
// unavailable backend. Stores never retry internally; retry policy belongs
// to the caller.
type SessionStore interface {
	// CreateSession assigns a fresh session bound to the playbook start
	// node, with status Active and empty progress. It fails with
	// SESSION_CONFLICT if an Active session already exists for incidentID.
	CreateSession(ctx context.Context, incidentID types.ID, playbookID, startNodeID string, role types.UserRole) (*session.WorkflowSession, error)

	// GetSession returns the most recently created session for an incident,
	// or SESSION_NOT_FOUND.
	GetSession(ctx context.Context, incidentID types.ID) (*session.WorkflowSession, error)

	// GetSessionByID returns a session by its own ID, or SESSION_NOT_FOUND.
	GetSessionByID(ctx context.Context, sessionID types.ID) (*session.WorkflowSession, error)

	// UpdateSession replaces the stored record whole; there is no
	// partial-field write. The replacement is all-or-nothing: a failed
	// write leaves the previous record intact. Returns SESSION_NOT_FOUND
	// if no record with the session's ID exists.
	UpdateSession(ctx context.Context, s *session.WorkflowSession) (*session.WorkflowSession, error)

	// CreateIncident registers an incident record. A fresh incident/session
	// pair is how a "new simulation" starts; history is never deleted.
	CreateIncident(ctx context.Context, rec *incident.Record) error

	// GetIncident returns an incident record, or INCIDENT_NOT_FOUND.
	GetIncident(ctx context.Context, incidentID types.ID) (*incident.Record, error)

	// ListIncidents returns all incident records ordered by creation time.
	ListIncidents(ctx context.Context) ([]incident.Record, error)

	// ListAlerts returns the alerts attached to an incident in raise order.
	ListAlerts(ctx context.Context, incidentID types.ID) ([]incident.Alert, error)

	// ListEndpoints returns the endpoints attached to an incident, ordered
	// by endpoint ID.
	ListEndpoints(ctx context.Context, incidentID types.ID) ([]incident.Endpoint, error)

	// ListLogs returns the log entries attached to an incident in
	// timestamp order.
	ListLogs(ctx context.Context, incidentID types.ID) ([]incident.LogEntry, error)

	// SeedScenario loads a scenario bundle: the incident record plus its
	// alerts, endpoints, and logs, atomically per backend.
	SeedScenario(ctx context.Context, sc *incident.Scenario) error

	// Close releases backend resources. The store is unusable afterwards.
	Close() error
}

// ErrSessionNotFound builds the canonical missing-session error.
func ErrSessionNotFound(id types.ID) error {
	return types.NewErrorf(types.SESSION_NOT_FOUND, "no session found for %s", id)
}

// ErrSessionConflict builds the canonical duplicate-active-session error.
func ErrSessionConflict(incidentID types.ID) error {
	return types.NewErrorf(types.SESSION_CONFLICT, "an active session already exists for incident %s", incidentID)
}

// ErrIncidentNotFound builds the canonical missing-incident error.
func ErrIncidentNotFound(id types.ID) error {
	return types.NewErrorf(types.INCIDENT_NOT_FOUND, "incident %s not found", id)
}

// WrapIO wraps a backend failure as a retryable STORE_IO_FAILED error.
func WrapIO(message string, cause error) error {
	return types.WrapRetryable(types.STORE_IO_FAILED, message, cause)
}
