package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseOrdering(t *testing.T) {
	phases := AllPhases()
	require.Len(t, phases, 5)
	assert.Equal(t, PhaseDetection, phases[0])
	assert.Equal(t, PhasePostIncident, phases[4])

	for i, p := range phases {
		assert.Equal(t, i, p.Index())
		assert.True(t, p.IsValid())
	}
	assert.Equal(t, -1, Phase("triage").Index())
	assert.False(t, Phase("triage").IsValid())
}

func TestPhaseTitles(t *testing.T) {
	assert.Equal(t, "Post-Incident", PhasePostIncident.Title())
	assert.Equal(t, "Detection", PhaseDetection.Title())
}

func TestPhaseJSONRejectsUnknown(t *testing.T) {
	var p Phase
	require.NoError(t, json.Unmarshal([]byte(`"remediation"`), &p))
	assert.Equal(t, PhaseRemediation, p)

	assert.Error(t, json.Unmarshal([]byte(`"cleanup"`), &p))
}

func TestSessionStatusValues(t *testing.T) {
	valid := []SessionStatus{SessionStatusActive, SessionStatusCompleted, SessionStatusPaused}
	for _, s := range valid {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, SessionStatus("archived").IsValid())
}

func TestUserRoleJSONRoundTrip(t *testing.T) {
	for _, r := range []UserRole{UserRoleAnalyst, UserRoleManager, UserRoleClient} {
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var decoded UserRole
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, r, decoded)
	}

	var r UserRole
	assert.Error(t, json.Unmarshal([]byte(`"intern"`), &r))
}

func TestSeverityAndIncidentStatus(t *testing.T) {
	assert.True(t, SeverityCritical.IsValid())
	assert.False(t, Severity("catastrophic").IsValid())

	var s IncidentStatus
	require.NoError(t, json.Unmarshal([]byte(`"contained"`), &s))
	assert.Equal(t, IncidentStatusContained, s)
	assert.Error(t, json.Unmarshal([]byte(`"closed"`), &s))
}
