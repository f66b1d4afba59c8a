// Package storetest holds the backend-parity conformance suite. Both
// session store backends run the same suite from their own test packages,
// which is how the behavioral-parity requirement stays enforced instead of
// aspirational.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-sec/rehearse/internal/incident"
	"github.com/haven-sec/rehearse/internal/session"
	"github.com/haven-sec/rehearse/internal/store"
	"github.com/haven-sec/rehearse/internal/types"
)

// Factory creates a fresh, empty store for one test. Cleanup is the
// caller's responsibility via t.Cleanup.
type Factory func(t *testing.T) store.SessionStore

// Run executes the full conformance suite against the backend produced by
// the factory.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGetSession", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("CreateConflictsWithActive", func(t *testing.T) { testCreateConflict(t, newStore(t)) })
	t.Run("CreateAfterCompletedSession", func(t *testing.T) { testCreateAfterCompleted(t, newStore(t)) })
	t.Run("GetSessionNotFound", func(t *testing.T) { testGetNotFound(t, newStore(t)) })
	t.Run("UpdateSessionReplacesWholeRecord", func(t *testing.T) { testUpdateReplaces(t, newStore(t)) })
	t.Run("UpdateSessionNotFound", func(t *testing.T) { testUpdateNotFound(t, newStore(t)) })
	t.Run("SessionRoundTripIsByteStable", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("IncidentRecords", func(t *testing.T) { testIncidents(t, newStore(t)) })
	t.Run("ScenarioSeedAndAdjacentReads", func(t *testing.T) { testScenario(t, newStore(t)) })
	t.Run("ConcurrentUpdatesSerialize", func(t *testing.T) { testConcurrentUpdates(t, newStore(t)) })
}

func seedIncident(t *testing.T, s store.SessionStore) types.ID {
	t.Helper()
	rec := &incident.Record{
		ID:           types.NewID(),
		Title:        "Ransomware on finance file server",
		IncidentType: "ransomware",
		Severity:     types.SeverityCritical,
		Status:       types.IncidentStatusOpen,
		MITRETactics: []string{"TA0040"},
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.CreateIncident(context.Background(), rec))
	return rec.ID
}

func testCreateAndGet(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()
	incidentID := seedIncident(t, s)

	created, err := s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleAnalyst)
	require.NoError(t, err)
	require.NoError(t, created.ID.Validate())
	assert.Equal(t, incidentID, created.IncidentID)
	assert.Equal(t, "triage-alert", created.CurrentNodeID)
	assert.Equal(t, types.SessionStatusActive, created.Status)
	assert.Empty(t, created.CompletedNodes)
	assert.Empty(t, created.ActionsTaken)
	assert.False(t, created.StartedAt.IsZero())

	byIncident, err := s.GetSession(ctx, incidentID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byIncident.ID)

	byID, err := s.GetSessionByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)
}

func testCreateConflict(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()
	incidentID := seedIncident(t, s)

	first, err := s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleAnalyst)
	require.NoError(t, err)

	_, err = s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleManager)
	require.Error(t, err)
	assert.True(t, types.IsConflict(err))

	// The existing session is untouched by the failed create.
	got, err := s.GetSession(ctx, incidentID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, types.UserRoleAnalyst, got.UserRole)
}

func testCreateAfterCompleted(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()
	incidentID := seedIncident(t, s)

	first, err := s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleAnalyst)
	require.NoError(t, err)

	first.Status = types.SessionStatusCompleted
	_, err = s.UpdateSession(ctx, first)
	require.NoError(t, err)

	// Only an Active session conflicts.
	second, err := s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleClient)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// The most recently created session is the observable one.
	got, err := s.GetSession(ctx, incidentID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	// The superseded session is never hard-deleted: it stays addressable
	// by its own id and can still be replaced.
	superseded, err := s.GetSessionByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, superseded.ID)
	assert.Equal(t, types.SessionStatusCompleted, superseded.Status)

	first.CompletedNodes = []string{"triage-alert"}
	replaced, err := s.UpdateSession(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []string{"triage-alert"}, replaced.CompletedNodes)

	// Replacing the superseded session does not change which session the
	// incident resolves to.
	got, err = s.GetSession(ctx, incidentID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func testGetNotFound(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()

	_, err := s.GetSession(ctx, types.NewID())
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))

	_, err = s.GetSessionByID(ctx, types.NewID())
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func testUpdateReplaces(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()
	incidentID := seedIncident(t, s)

	created, err := s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleAnalyst)
	require.NoError(t, err)

	mutated := created.Clone()
	mutated.CurrentNodeID = "scope-hosts"
	mutated.CompletedNodes = []string{"triage-alert"}
	mutated.ActionsTaken = []session.ActionEntry{{
		Timestamp:   time.Now().UTC().Truncate(time.Millisecond),
		ActionLabel: "Confirm and scope affected hosts",
		Details:     map[string]string{"from_node": "triage-alert", "to_node": "scope-hosts"},
	}}

	updated, err := s.UpdateSession(ctx, mutated)
	require.NoError(t, err)
	assert.Equal(t, "scope-hosts", updated.CurrentNodeID)

	reread, err := s.GetSessionByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"triage-alert"}, reread.CompletedNodes)
	require.Len(t, reread.ActionsTaken, 1)
	assert.Equal(t, "Confirm and scope affected hosts", reread.ActionsTaken[0].ActionLabel)
	assert.Equal(t, "scope-hosts", reread.ActionsTaken[0].Details["to_node"])
}

func testUpdateNotFound(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()

	ghost := session.New(types.NewID(), "ransomware", "triage-alert", types.UserRoleAnalyst, time.Now())
	_, err := s.UpdateSession(ctx, ghost)
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func testRoundTrip(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()
	incidentID := seedIncident(t, s)

	created, err := s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleAnalyst)
	require.NoError(t, err)

	mutated := created.Clone()
	mutated.CompletedNodes = []string{"triage-alert"}
	mutated.CurrentNodeID = "scope-hosts"
	mutated.ActionsTaken = []session.ActionEntry{{
		Timestamp:   time.Now(),
		ActionLabel: "Proceed",
		Details:     map[string]string{"from_node": "triage-alert"},
	}}
	stored, err := s.UpdateSession(ctx, mutated)
	require.NoError(t, err)

	// Writing through the backend and reading back yields the identical
	// canonical document, up to the millisecond timestamp precision the
	// codec fixes.
	want, err := stored.Encode()
	require.NoError(t, err)

	reread, err := s.GetSessionByID(ctx, created.ID)
	require.NoError(t, err)
	got, err := reread.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func testIncidents(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()

	_, err := s.GetIncident(ctx, types.NewID())
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))

	first := &incident.Record{
		ID:           types.NewID(),
		Title:        "Phishing wave",
		IncidentType: "phishing",
		Severity:     types.SeverityMedium,
		Status:       types.IncidentStatusOpen,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.CreateIncident(ctx, first))

	second := &incident.Record{
		ID:           types.NewID(),
		Title:        "Ransomware",
		IncidentType: "ransomware",
		Severity:     types.SeverityCritical,
		Status:       types.IncidentStatusOpen,
		CreatedAt:    first.CreatedAt.Add(time.Second),
	}
	require.NoError(t, s.CreateIncident(ctx, second))

	got, err := s.GetIncident(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phishing wave", got.Title)
	assert.Equal(t, types.SeverityMedium, got.Severity)

	listed, err := s.ListIncidents(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)
}

func testScenario(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	incidentID := types.NewID()
	sc := &incident.Scenario{
		Incident: incident.Record{
			ID:                incidentID,
			Title:             "Ransomware on finance file server",
			IncidentType:      "ransomware",
			Severity:          types.SeverityCritical,
			Status:            types.IncidentStatusOpen,
			AffectedEndpoints: []string{"fs-fin-01", "wkstn-204"},
			MITRETactics:      []string{"TA0040", "TA0010"},
			CreatedAt:         now,
		},
		Alerts: []incident.Alert{
			{ID: types.NewID(), IncidentID: incidentID, Source: "edr", Title: "Mass file rename", Severity: types.SeverityCritical, RaisedAt: now},
			{ID: types.NewID(), IncidentID: incidentID, Source: "siem", Title: "SMB write spike", Severity: types.SeverityHigh, RaisedAt: now.Add(time.Second)},
		},
		Endpoints: []incident.Endpoint{
			{ID: "wkstn-204", IncidentID: incidentID, Hostname: "wkstn-204.corp.example", IPAddress: "10.20.9.204", OS: "Windows 11"},
			{ID: "fs-fin-01", IncidentID: incidentID, Hostname: "fs-fin-01.corp.example", IPAddress: "10.20.4.11", OS: "Windows Server 2022"},
		},
		Logs: []incident.LogEntry{
			{ID: types.NewID(), IncidentID: incidentID, Source: "edr", Message: "vssadmin delete shadows", Timestamp: now},
			{ID: types.NewID(), IncidentID: incidentID, Source: "dc", Message: "auth spike for svc-backup", Timestamp: now.Add(time.Second)},
		},
	}
	require.NoError(t, s.SeedScenario(ctx, sc))

	rec, err := s.GetIncident(ctx, incidentID)
	require.NoError(t, err)
	assert.Equal(t, []string{"fs-fin-01", "wkstn-204"}, rec.AffectedEndpoints)

	alerts, err := s.ListAlerts(ctx, incidentID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "edr", alerts[0].Source, "alerts come back in raise order")

	endpoints, err := s.ListEndpoints(ctx, incidentID)
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "fs-fin-01", endpoints[0].ID, "endpoints ordered by id")

	logs, err := s.ListLogs(ctx, incidentID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "vssadmin delete shadows", logs[0].Message)

	// Adjacent reads for an unknown incident are empty, not errors.
	none, err := s.ListAlerts(ctx, types.NewID())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testConcurrentUpdates(t *testing.T, s store.SessionStore) {
	defer s.Close()
	ctx := context.Background()
	incidentID := seedIncident(t, s)

	created, err := s.CreateSession(ctx, incidentID, "ransomware", "triage-alert", types.UserRoleAnalyst)
	require.NoError(t, err)

	// Hammer UpdateSession from multiple goroutines. Each write is a
	// whole-record replace, so the final record must equal one of the
	// written values, never an interleaving of two.
	const writers = 8
	done := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			mutated := created.Clone()
			mutated.CompletedNodes = []string{"triage-alert"}
			mutated.ActionsTaken = []session.ActionEntry{{
				Timestamp:   time.Now(),
				ActionLabel: "Proceed",
				Details:     map[string]string{"writer": string(rune('a' + n))},
			}}
			_, err := s.UpdateSession(ctx, mutated)
			done <- err
		}(i)
	}
	for i := 0; i < writers; i++ {
		require.NoError(t, <-done)
	}

	final, err := s.GetSessionByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, final.ActionsTaken, 1)
	assert.Equal(t, []string{"triage-alert"}, final.CompletedNodes)
	assert.Len(t, final.ActionsTaken[0].Details["writer"], 1)
}
