package incident

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedExampleScenariosParse(t *testing.T) {
	dir := filepath.Join("..", "..", "examples", "scenarios")
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for _, name := range []string{"ransomware-finance.yaml", "phishing-credentials.yaml"} {
		sc, err := LoadScenarioFile(filepath.Join(dir, name), now)
		require.NoError(t, err, name)

		assert.False(t, sc.Incident.ID.IsZero(), name)
		assert.NotEmpty(t, sc.Incident.IncidentType, name)
		assert.NotEmpty(t, sc.Alerts, name)
		assert.NotEmpty(t, sc.Endpoints, name)
		assert.NotEmpty(t, sc.Logs, name)
		for _, ep := range sc.Endpoints {
			assert.Equal(t, sc.Incident.ID, ep.IncidentID, name)
		}
	}
}
