// Package file implements the ephemeral file-backed session store. State
// lives as JSON documents under a single directory, one document per record
// family:
//
//	<dir>/.lock                       exclusive flock for the store lifetime
//	<dir>/incidents/<incident>.json   incident record
//	<dir>/alerts/<incident>.json      alerts for one incident
//	<dir>/endpoints/<incident>.json   endpoints for one incident
//	<dir>/logs/<incident>.json        log entries for one incident
//	<dir>/sessions/<session>.json     canonical session document
//	<dir>/heads/<incident>.json       pointer to the incident's latest session
//
// Session documents are keyed by session id and never deleted; creating a
// new session over a finished one writes a new document and flips the
// incident's head pointer, so superseded sessions remain readable by id
// exactly as superseded rows do in the relational backend.
//
// Writes go through a temp file and os.Rename, so a reader always observes
// a complete document: either the pre-write or the post-write state. An
// exclusive flock on <dir>/.lock keeps a second process from mutating the
// same state directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/haven-sec/rehearse/internal/incident"
	"github.com/haven-sec/rehearse/internal/session"
	"github.com/haven-sec/rehearse/internal/store"
	"github.com/haven-sec/rehearse/internal/types"
)

const (
	dirIncidents = "incidents"
	dirAlerts    = "alerts"
	dirEndpoints = "endpoints"
	dirLogs      = "logs"
	dirSessions  = "sessions"
	dirHeads     = "heads"

	lockFileName = ".lock"
)

// sessionHead is the per-incident pointer document naming the latest
// session. The head flip is the commit point of CreateSession.
type sessionHead struct {
	SessionID types.ID `json:"session_id"`
}

// Store is the file-backed store.SessionStore implementation.
type Store struct {
	root   string
	lockFd int

	// mu serializes whole-record writes per incident. Reads never take it;
	// rename atomicity is what keeps readers consistent.
	mu sync.Map // types.ID -> *sync.Mutex

	closeOnce sync.Once
}

// Open initializes the state directory and acquires the store lock. It
// fails with STORE_OPEN_FAILED when another process holds the directory.
func Open(dir string) (*Store, error) {
	for _, sub := range []string{dirIncidents, dirAlerts, dirEndpoints, dirLogs, dirSessions, dirHeads} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, types.WrapError(types.STORE_OPEN_FAILED,
				fmt.Sprintf("failed to create state directory %s", dir), err)
		}
	}

	lockPath := filepath.Join(dir, lockFileName)
	fd, err := unix.Open(lockPath, unix.O_CREAT|unix.O_RDWR, 0o644)
	if err != nil {
		return nil, types.WrapError(types.STORE_OPEN_FAILED,
			fmt.Sprintf("failed to open lock file %s", lockPath), err)
	}
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		return nil, types.WrapError(types.STORE_OPEN_FAILED,
			fmt.Sprintf("state directory %s is locked by another process", dir), err)
	}

	return &Store{root: dir, lockFd: fd}, nil
}

// Close releases the directory lock. The flock drops automatically when the
// descriptor closes.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = unix.Close(s.lockFd)
	})
	return err
}

// incidentLock returns the write mutex for one incident's records.
func (s *Store) incidentLock(incidentID types.ID) *sync.Mutex {
	actual, _ := s.mu.LoadOrStore(incidentID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (s *Store) path(sub string, id string) string {
	return filepath.Join(s.root, sub, id+".json")
}

// writeAtomic persists data with a temp-file-and-rename so a concurrent
// reader never observes a torn document.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return store.WrapIO(fmt.Sprintf("failed to write %s", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return store.WrapIO(fmt.Sprintf("failed to replace %s", path), err)
	}
	return nil
}

// readJSON reads a document into v. Returns os.ErrNotExist unchanged for
// missing files so callers can map it to the right not-found class.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return store.WrapIO(fmt.Sprintf("failed to read %s", path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return store.WrapIO(fmt.Sprintf("corrupt document %s", path), err)
	}
	return nil
}

// CreateSession implements store.SessionStore.
func (s *Store) CreateSession(_ context.Context, incidentID types.ID, playbookID, startNodeID string, role types.UserRole) (*session.WorkflowSession, error) {
	lock := s.incidentLock(incidentID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.readSessionByIncident(incidentID)
	if err != nil && !types.IsNotFound(err) {
		return nil, err
	}
	if existing != nil && existing.Status == types.SessionStatusActive {
		return nil, store.ErrSessionConflict(incidentID)
	}

	created := session.New(incidentID, playbookID, startNodeID, role, time.Now())
	if err := s.writeSession(created); err != nil {
		return nil, err
	}
	// The head flip is the commit point. The prior session's document stays
	// in place, readable by id.
	if err := s.writeHead(incidentID, created.ID); err != nil {
		return nil, err
	}
	return created.Clone(), nil
}

// GetSession implements store.SessionStore.
func (s *Store) GetSession(_ context.Context, incidentID types.ID) (*session.WorkflowSession, error) {
	return s.readSessionByIncident(incidentID)
}

// GetSessionByID implements store.SessionStore. Documents are keyed by
// session id, so superseded sessions resolve the same as the latest one.
func (s *Store) GetSessionByID(_ context.Context, sessionID types.ID) (*session.WorkflowSession, error) {
	return s.readSessionByID(sessionID)
}

// UpdateSession implements store.SessionStore. The update addresses the
// session's own document, so a superseded session can still be replaced.
func (s *Store) UpdateSession(ctx context.Context, updated *session.WorkflowSession) (*session.WorkflowSession, error) {
	lock := s.incidentLock(updated.IncidentID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.readSessionByID(updated.ID); err != nil {
		return nil, err
	}
	if err := s.writeSession(updated); err != nil {
		return nil, err
	}
	return s.readSessionByID(updated.ID)
}

func (s *Store) readSessionByIncident(incidentID types.ID) (*session.WorkflowSession, error) {
	var head sessionHead
	if err := readJSON(s.path(dirHeads, incidentID.String()), &head); err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrSessionNotFound(incidentID)
		}
		return nil, err
	}
	decoded, err := s.readSessionByID(head.SessionID)
	if err != nil {
		if types.IsNotFound(err) {
			return nil, store.WrapIO(
				fmt.Sprintf("head for incident %s points at missing session %s", incidentID, head.SessionID), err)
		}
		return nil, err
	}
	return decoded, nil
}

func (s *Store) readSessionByID(sessionID types.ID) (*session.WorkflowSession, error) {
	data, err := os.ReadFile(s.path(dirSessions, sessionID.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrSessionNotFound(sessionID)
		}
		return nil, store.WrapIO("failed to read session document", err)
	}
	decoded, err := session.Decode(data)
	if err != nil {
		return nil, store.WrapIO(fmt.Sprintf("corrupt session document %s", sessionID), err)
	}
	return decoded, nil
}

func (s *Store) writeSession(record *session.WorkflowSession) error {
	data, err := record.Encode()
	if err != nil {
		return store.WrapIO("failed to encode session", err)
	}
	return writeAtomic(s.path(dirSessions, record.ID.String()), data)
}

func (s *Store) writeHead(incidentID, sessionID types.ID) error {
	data, err := json.Marshal(sessionHead{SessionID: sessionID})
	if err != nil {
		return store.WrapIO("failed to encode session head", err)
	}
	return writeAtomic(s.path(dirHeads, incidentID.String()), data)
}

// CreateIncident implements store.SessionStore.
func (s *Store) CreateIncident(_ context.Context, rec *incident.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return store.WrapIO("failed to encode incident", err)
	}
	return writeAtomic(s.path(dirIncidents, rec.ID.String()), data)
}

// GetIncident implements store.SessionStore.
func (s *Store) GetIncident(_ context.Context, incidentID types.ID) (*incident.Record, error) {
	var rec incident.Record
	if err := readJSON(s.path(dirIncidents, incidentID.String()), &rec); err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrIncidentNotFound(incidentID)
		}
		return nil, err
	}
	return &rec, nil
}

// ListIncidents implements store.SessionStore.
func (s *Store) ListIncidents(_ context.Context) ([]incident.Record, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, dirIncidents))
	if err != nil {
		return nil, store.WrapIO("failed to scan incident directory", err)
	}

	records := make([]incident.Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var rec incident.Record
		if err := readJSON(filepath.Join(s.root, dirIncidents, entry.Name()), &rec); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// ListAlerts implements store.SessionStore.
func (s *Store) ListAlerts(_ context.Context, incidentID types.ID) ([]incident.Alert, error) {
	var alerts []incident.Alert
	if err := readJSON(s.path(dirAlerts, incidentID.String()), &alerts); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].RaisedAt.Before(alerts[j].RaisedAt) })
	return alerts, nil
}

// ListEndpoints implements store.SessionStore.
func (s *Store) ListEndpoints(_ context.Context, incidentID types.ID) ([]incident.Endpoint, error) {
	var endpoints []incident.Endpoint
	if err := readJSON(s.path(dirEndpoints, incidentID.String()), &endpoints); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].ID < endpoints[j].ID })
	return endpoints, nil
}

// ListLogs implements store.SessionStore.
func (s *Store) ListLogs(_ context.Context, incidentID types.ID) ([]incident.LogEntry, error) {
	var logs []incident.LogEntry
	if err := readJSON(s.path(dirLogs, incidentID.String()), &logs); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.Before(logs[j].Timestamp) })
	return logs, nil
}

// SeedScenario implements store.SessionStore. Each record family is one
// atomic document write; the incident record lands last so readers that
// find the incident also find its adjacent data.
func (s *Store) SeedScenario(ctx context.Context, sc *incident.Scenario) error {
	id := sc.Incident.ID.String()

	families := []struct {
		sub  string
		data any
	}{
		{dirAlerts, sc.Alerts},
		{dirEndpoints, sc.Endpoints},
		{dirLogs, sc.Logs},
	}
	for _, family := range families {
		data, err := json.Marshal(family.data)
		if err != nil {
			return store.WrapIO("failed to encode scenario data", err)
		}
		if err := writeAtomic(s.path(family.sub, id), data); err != nil {
			return err
		}
	}

	return s.CreateIncident(ctx, &sc.Incident)
}

var _ store.SessionStore = (*Store)(nil)
