package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/haven-sec/rehearse/internal/incident"
	"github.com/haven-sec/rehearse/internal/session"
	"github.com/haven-sec/rehearse/internal/store"
	"github.com/haven-sec/rehearse/internal/types"
)

// Store is the SQLite-backed store.SessionStore implementation. Session
// documents are written whole inside single-row transactions, which is what
// makes an UpdateSession all-or-nothing.
type Store struct {
	db *DB
}

// Open opens (and if needed creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already opened DB.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Close implements store.SessionStore.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession implements store.SessionStore. The active-session check and
// the insert run in one transaction so two racing creates cannot both
// succeed.
func (s *Store) CreateSession(ctx context.Context, incidentID types.ID, playbookID, startNodeID string, role types.UserRole) (*session.WorkflowSession, error) {
	created := session.New(incidentID, playbookID, startNodeID, role, time.Now())
	document, err := created.Encode()
	if err != nil {
		return nil, store.WrapIO("failed to encode session", err)
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM sessions WHERE incident_id = ? AND status = ? LIMIT 1`,
			incidentID.String(), types.SessionStatusActive.String()).Scan(&one)
		switch {
		case err == nil:
			return store.ErrSessionConflict(incidentID)
		case !errors.Is(err, sql.ErrNoRows):
			return store.WrapIO("failed to check for active session", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, incident_id, document, status) VALUES (?, ?, ?, ?)`,
			created.ID.String(), incidentID.String(), string(document), created.Status.String()); err != nil {
			return store.WrapIO("failed to insert session", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetSession implements store.SessionStore, returning the most recently
// created session for the incident.
func (s *Store) GetSession(ctx context.Context, incidentID types.ID) (*session.WorkflowSession, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM sessions WHERE incident_id = ? ORDER BY rowid DESC LIMIT 1`,
		incidentID.String()).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSessionNotFound(incidentID)
	}
	if err != nil {
		return nil, store.WrapIO("failed to query session", err)
	}
	return decodeDocument(document)
}

// GetSessionByID implements store.SessionStore.
func (s *Store) GetSessionByID(ctx context.Context, sessionID types.ID) (*session.WorkflowSession, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM sessions WHERE id = ?`, sessionID.String()).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSessionNotFound(sessionID)
	}
	if err != nil {
		return nil, store.WrapIO("failed to query session", err)
	}
	return decodeDocument(document)
}

// UpdateSession implements store.SessionStore as a single-row transactional
// replace.
func (s *Store) UpdateSession(ctx context.Context, updated *session.WorkflowSession) (*session.WorkflowSession, error) {
	document, err := updated.Encode()
	if err != nil {
		return nil, store.WrapIO("failed to encode session", err)
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE sessions SET document = ?, status = ? WHERE id = ?`,
			string(document), updated.Status.String(), updated.ID.String())
		if err != nil {
			return store.WrapIO("failed to update session", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return store.WrapIO("failed to read rows affected", err)
		}
		if affected == 0 {
			return store.ErrSessionNotFound(updated.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeDocument(string(document))
}

func decodeDocument(document string) (*session.WorkflowSession, error) {
	decoded, err := session.Decode([]byte(document))
	if err != nil {
		return nil, store.WrapIO("corrupt session document", err)
	}
	return decoded, nil
}

// CreateIncident implements store.SessionStore.
func (s *Store) CreateIncident(ctx context.Context, rec *incident.Record) error {
	return s.insertIncident(ctx, s.db.ExecContext, rec)
}

type execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)

func (s *Store) insertIncident(ctx context.Context, exec execFunc, rec *incident.Record) error {
	endpoints, err := json.Marshal(orEmpty(rec.AffectedEndpoints))
	if err != nil {
		return store.WrapIO("failed to encode affected endpoints", err)
	}
	tactics, err := json.Marshal(orEmpty(rec.MITRETactics))
	if err != nil {
		return store.WrapIO("failed to encode mitre tactics", err)
	}

	if _, err := exec(ctx, `
		INSERT INTO incidents (id, title, incident_type, severity, status, affected_endpoints, mitre_tactics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Title, rec.IncidentType, rec.Severity.String(), rec.Status.String(),
		string(endpoints), string(tactics), rec.CreatedAt.UTC()); err != nil {
		return store.WrapIO(fmt.Sprintf("failed to insert incident %s", rec.ID), err)
	}
	return nil
}

// orEmpty keeps JSON columns as [] rather than null for absent slices.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// GetIncident implements store.SessionStore.
func (s *Store) GetIncident(ctx context.Context, incidentID types.ID) (*incident.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, incident_type, severity, status, affected_endpoints, mitre_tactics, created_at
		FROM incidents WHERE id = ?`, incidentID.String())

	rec, err := scanIncident(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrIncidentNotFound(incidentID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListIncidents implements store.SessionStore.
func (s *Store) ListIncidents(ctx context.Context) ([]incident.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, incident_type, severity, status, affected_endpoints, mitre_tactics, created_at
		FROM incidents ORDER BY created_at, id`)
	if err != nil {
		return nil, store.WrapIO("failed to list incidents", err)
	}
	defer rows.Close()

	records := []incident.Record{}
	for rows.Next() {
		rec, err := scanIncident(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.WrapIO("error iterating incidents", err)
	}
	return records, nil
}

func scanIncident(scan func(...any) error) (*incident.Record, error) {
	var rec incident.Record
	var idStr, severity, status, endpointsJSON, tacticsJSON string

	if err := scan(&idStr, &rec.Title, &rec.IncidentType, &severity, &status,
		&endpointsJSON, &tacticsJSON, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, store.WrapIO("failed to scan incident", err)
	}

	id, err := types.ParseID(idStr)
	if err != nil {
		return nil, store.WrapIO("invalid incident id in database", err)
	}
	rec.ID = id
	rec.Severity = types.Severity(severity)
	rec.Status = types.IncidentStatus(status)

	if err := json.Unmarshal([]byte(endpointsJSON), &rec.AffectedEndpoints); err != nil {
		return nil, store.WrapIO("corrupt affected_endpoints column", err)
	}
	if err := json.Unmarshal([]byte(tacticsJSON), &rec.MITRETactics); err != nil {
		return nil, store.WrapIO("corrupt mitre_tactics column", err)
	}
	return &rec, nil
}

// ListAlerts implements store.SessionStore.
func (s *Store) ListAlerts(ctx context.Context, incidentID types.ID) ([]incident.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_id, source, title, severity, raised_at
		FROM alerts WHERE incident_id = ? ORDER BY raised_at, rowid`, incidentID.String())
	if err != nil {
		return nil, store.WrapIO("failed to list alerts", err)
	}
	defer rows.Close()

	var alerts []incident.Alert
	for rows.Next() {
		var a incident.Alert
		var idStr, incidentStr, severity string
		if err := rows.Scan(&idStr, &incidentStr, &a.Source, &a.Title, &severity, &a.RaisedAt); err != nil {
			return nil, store.WrapIO("failed to scan alert", err)
		}
		a.ID = types.ID(idStr)
		a.IncidentID = types.ID(incidentStr)
		a.Severity = types.Severity(severity)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, store.WrapIO("error iterating alerts", err)
	}
	return alerts, nil
}

// ListEndpoints implements store.SessionStore.
func (s *Store) ListEndpoints(ctx context.Context, incidentID types.ID) ([]incident.Endpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_id, hostname, ip_address, os, isolated
		FROM endpoints WHERE incident_id = ? ORDER BY id`, incidentID.String())
	if err != nil {
		return nil, store.WrapIO("failed to list endpoints", err)
	}
	defer rows.Close()

	var endpoints []incident.Endpoint
	for rows.Next() {
		var e incident.Endpoint
		var incidentStr string
		if err := rows.Scan(&e.ID, &incidentStr, &e.Hostname, &e.IPAddress, &e.OS, &e.Isolated); err != nil {
			return nil, store.WrapIO("failed to scan endpoint", err)
		}
		e.IncidentID = types.ID(incidentStr)
		endpoints = append(endpoints, e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.WrapIO("error iterating endpoints", err)
	}
	return endpoints, nil
}

// ListLogs implements store.SessionStore.
func (s *Store) ListLogs(ctx context.Context, incidentID types.ID) ([]incident.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_id, source, message, timestamp
		FROM logs WHERE incident_id = ? ORDER BY timestamp, rowid`, incidentID.String())
	if err != nil {
		return nil, store.WrapIO("failed to list logs", err)
	}
	defer rows.Close()

	var logs []incident.LogEntry
	for rows.Next() {
		var l incident.LogEntry
		var idStr, incidentStr string
		if err := rows.Scan(&idStr, &incidentStr, &l.Source, &l.Message, &l.Timestamp); err != nil {
			return nil, store.WrapIO("failed to scan log entry", err)
		}
		l.ID = types.ID(idStr)
		l.IncidentID = types.ID(incidentStr)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, store.WrapIO("error iterating logs", err)
	}
	return logs, nil
}

// SeedScenario implements store.SessionStore. The whole bundle lands in one
// transaction.
func (s *Store) SeedScenario(ctx context.Context, sc *incident.Scenario) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.insertIncident(ctx, tx.ExecContext, &sc.Incident); err != nil {
			return err
		}
		for _, a := range sc.Alerts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO alerts (id, incident_id, source, title, severity, raised_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				a.ID.String(), a.IncidentID.String(), a.Source, a.Title, a.Severity.String(), a.RaisedAt.UTC()); err != nil {
				return store.WrapIO("failed to insert alert", err)
			}
		}
		for _, e := range sc.Endpoints {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO endpoints (id, incident_id, hostname, ip_address, os, isolated)
				VALUES (?, ?, ?, ?, ?, ?)`,
				e.ID, e.IncidentID.String(), e.Hostname, e.IPAddress, e.OS, e.Isolated); err != nil {
				return store.WrapIO("failed to insert endpoint", err)
			}
		}
		for _, l := range sc.Logs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO logs (id, incident_id, source, message, timestamp)
				VALUES (?, ?, ?, ?, ?)`,
				l.ID.String(), l.IncidentID.String(), l.Source, l.Message, l.Timestamp.UTC()); err != nil {
				return store.WrapIO("failed to insert log entry", err)
			}
		}
		return nil
	})
}

var _ store.SessionStore = (*Store)(nil)
