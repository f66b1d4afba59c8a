package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-sec/rehearse/internal/engine"
	"github.com/haven-sec/rehearse/internal/incident"
	"github.com/haven-sec/rehearse/internal/playbook"
	"github.com/haven-sec/rehearse/internal/store"
	"github.com/haven-sec/rehearse/internal/store/file"
	"github.com/haven-sec/rehearse/internal/types"
)

func reportPlaybook(t *testing.T) *playbook.Playbook {
	t.Helper()
	pb := &playbook.Playbook{
		ID:          "ransomware",
		Name:        "Ransomware Response",
		StartNodeID: "triage",
		Nodes: map[string]*playbook.Node{
			"triage": {
				ID:              "triage",
				Title:           "Triage Alert",
				Phase:           types.PhaseDetection,
				MITRETechniques: []string{"T1486"},
				Options: []playbook.Option{
					{Label: "Isolate endpoint", ActionID: "isolate-endpoint", Next: "scope"},
				},
			},
			"scope": {
				ID:              "scope",
				Title:           "Scope Impact",
				Phase:           types.PhaseScoping,
				MITRETechniques: []string{"T1486", "T1490"},
				Options: []playbook.Option{
					{Label: "Begin recovery", Next: "recover"},
				},
			},
			"recover": {
				ID:    "recover",
				Title: "Recover Systems",
				Phase: types.PhaseRemediation,
				Options: []playbook.Option{
					{Label: "Close out"},
				},
			},
		},
	}
	require.NoError(t, playbook.NewValidator().Validate(pb))
	return pb
}

// seedIncidentWithSession drives a real engine through three advances so the
// report reads the same data shape production would.
func seedIncidentWithSession(t *testing.T) (store.SessionStore, playbook.Store, types.ID, time.Time) {
	t.Helper()

	sessions, err := file.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })

	playbooks := playbook.NewMemoryStore()
	require.NoError(t, playbooks.Add(reportPlaybook(t)))

	ctx := context.Background()
	incidentID := types.NewID()
	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, sessions.CreateIncident(ctx, &incident.Record{
		ID:                incidentID,
		Title:             "Ransomware on finance share",
		IncidentType:      "ransomware",
		Severity:          types.SeverityCritical,
		Status:            types.IncidentStatusContained,
		AffectedEndpoints: []string{"ep-1", "ep-2", "ep-3"},
		MITRETactics:      []string{"TA0040", "TA0005"},
		CreatedAt:         started,
	}))

	clock := started
	eng := engine.New(sessions, playbooks, engine.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	s, err := eng.Initialize(ctx, incidentID, "ransomware", types.UserRoleAnalyst)
	require.NoError(t, err)
	for _, label := range []string{"Isolate endpoint", "Begin recovery", "Close out"} {
		_, err = eng.Advance(ctx, s.ID, label)
		require.NoError(t, err)
	}
	return sessions, playbooks, incidentID, started
}

func TestGenerateReport(t *testing.T) {
	sessions, playbooks, incidentID, started := seedIncidentWithSession(t)

	generatedAt := started.Add(45 * time.Minute)
	syn := NewSynthesizer(sessions, playbooks, WithClock(func() time.Time { return generatedAt }))

	rep, err := syn.GenerateReport(context.Background(), incidentID)
	require.NoError(t, err)

	assert.Equal(t, incidentID, rep.IncidentID)
	assert.Equal(t, "Ransomware on finance share", rep.Summary.Title)
	assert.Equal(t, types.SeverityCritical, rep.Summary.Severity)
	assert.Equal(t, 3, rep.Summary.AffectedAssetCount)
	assert.Equal(t, types.SessionStatusActive, rep.Summary.SessionStatus)

	// Three recorded actions yield exactly three timeline rows in log order.
	require.Len(t, rep.Timeline, 3)
	assert.Equal(t, "Isolate endpoint", rep.Timeline[0].ActionLabel)
	assert.Equal(t, "Begin recovery", rep.Timeline[1].ActionLabel)
	assert.Equal(t, "Close out", rep.Timeline[2].ActionLabel)
	assert.Equal(t, "triage", rep.Timeline[0].FromNode)
	assert.Equal(t, "scope", rep.Timeline[0].ToNode)
	assert.Equal(t, "isolate-endpoint", rep.Timeline[0].ActionID)
	assert.Empty(t, rep.Timeline[2].ToNode)

	assert.Equal(t, []string{"TA0040", "TA0005"}, rep.MITRETactics)
	// Visited nodes triage, scope, recover: union preserves first-seen order.
	assert.Equal(t, []string{"T1486", "T1490"}, rep.MITRETechniques)

	assert.Equal(t, types.UserRoleAnalyst, rep.Role)
	assert.Equal(t, RecommendationsFor(types.UserRoleAnalyst), rep.Recommendations)
}

func TestGenerateReportElapsedIsNowMinusStart(t *testing.T) {
	sessions, playbooks, incidentID, _ := seedIncidentWithSession(t)

	ctx := context.Background()
	sess, err := sessions.GetSession(ctx, incidentID)
	require.NoError(t, err)

	generatedAt := sess.StartedAt.Add(90 * time.Minute)
	syn := NewSynthesizer(sessions, playbooks, WithClock(func() time.Time { return generatedAt }))

	rep, err := syn.GenerateReport(ctx, incidentID)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, rep.Summary.ElapsedResponse)
}

func TestGenerateReportIsReadOnly(t *testing.T) {
	sessions, playbooks, incidentID, _ := seedIncidentWithSession(t)
	ctx := context.Background()

	before, err := sessions.GetSession(ctx, incidentID)
	require.NoError(t, err)
	beforeDoc, err := before.Encode()
	require.NoError(t, err)

	syn := NewSynthesizer(sessions, playbooks)
	_, err = syn.GenerateReport(ctx, incidentID)
	require.NoError(t, err)
	_, err = syn.GenerateReport(ctx, incidentID)
	require.NoError(t, err)

	after, err := sessions.GetSession(ctx, incidentID)
	require.NoError(t, err)
	afterDoc, err := after.Encode()
	require.NoError(t, err)
	assert.Equal(t, beforeDoc, afterDoc)
}

func TestGenerateReportMissingIncident(t *testing.T) {
	sessions, err := file.Open(t.TempDir())
	require.NoError(t, err)
	defer sessions.Close()

	syn := NewSynthesizer(sessions, playbook.NewMemoryStore())
	_, err = syn.GenerateReport(context.Background(), types.NewID())
	require.Error(t, err)
	assert.Equal(t, types.INCIDENT_NOT_FOUND, types.CodeOf(err))
}

func TestGenerateReportSurvivesMissingPlaybook(t *testing.T) {
	sessions, _, incidentID, _ := seedIncidentWithSession(t)

	// Empty playbook store: technique union degrades, report still builds.
	syn := NewSynthesizer(sessions, playbook.NewMemoryStore())
	rep, err := syn.GenerateReport(context.Background(), incidentID)
	require.NoError(t, err)
	assert.Empty(t, rep.MITRETechniques)
	assert.Len(t, rep.Timeline, 3)
}

func TestJSONExporterRoundTrips(t *testing.T) {
	sessions, playbooks, incidentID, _ := seedIncidentWithSession(t)
	syn := NewSynthesizer(sessions, playbooks)

	rep, err := syn.GenerateReport(context.Background(), incidentID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, JSONExporter{}.Export(&buf, rep))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rep.IncidentID, decoded.IncidentID)
	assert.Len(t, decoded.Timeline, 3)
}

func TestTextExporterLayout(t *testing.T) {
	sessions, playbooks, incidentID, _ := seedIncidentWithSession(t)
	syn := NewSynthesizer(sessions, playbooks)

	rep, err := syn.GenerateReport(context.Background(), incidentID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, TextExporter{}.Export(&buf, rep))

	out := buf.String()
	assert.Contains(t, out, "INCIDENT RESPONSE REPORT")
	assert.Contains(t, out, "Ransomware on finance share")
	assert.Contains(t, out, "Isolate endpoint")
	assert.Contains(t, out, "T1490")
	assert.Contains(t, out, "Recommendations (analyst)")
}
