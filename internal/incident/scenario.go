package incident

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/haven-sec/rehearse/internal/types"
)

// Scenario is a seed bundle for one exercise: an incident record plus the
// alerts, endpoints, and logs a trainee works with. Scenarios are authored
// in YAML and loaded into a session store before an exercise starts.
type Scenario struct {
	Incident  Record     `json:"incident"`
	Alerts    []Alert    `json:"alerts"`
	Endpoints []Endpoint `json:"endpoints"`
	Logs      []LogEntry `json:"logs"`
}

// yamlScenario mirrors Scenario for YAML decoding. IDs are optional in the
// authored form; missing ones are assigned during normalization.
type yamlScenario struct {
	Incident struct {
		ID                string   `yaml:"id"`
		Title             string   `yaml:"title"`
		IncidentType      string   `yaml:"incident_type"`
		Severity          string   `yaml:"severity"`
		Status            string   `yaml:"status"`
		AffectedEndpoints []string `yaml:"affected_endpoints"`
		MITRETactics      []string `yaml:"mitre_tactics"`
	} `yaml:"incident"`
	Alerts []struct {
		Source   string `yaml:"source"`
		Title    string `yaml:"title"`
		Severity string `yaml:"severity"`
	} `yaml:"alerts"`
	Endpoints []struct {
		ID        string `yaml:"id"`
		Hostname  string `yaml:"hostname"`
		IPAddress string `yaml:"ip_address"`
		OS        string `yaml:"os"`
	} `yaml:"endpoints"`
	Logs []struct {
		Source  string `yaml:"source"`
		Message string `yaml:"message"`
	} `yaml:"logs"`
}

// ParseScenario parses a YAML scenario bundle and normalizes it: identifiers
// are assigned where absent and relative ordering of alerts and logs is
// preserved with strictly increasing timestamps so replay order is stable.
func ParseScenario(data []byte, now time.Time) (*Scenario, error) {
	var raw yamlScenario
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	incidentID := types.ID(raw.Incident.ID)
	if incidentID.IsZero() {
		incidentID = types.NewID()
	} else if err := incidentID.Validate(); err != nil {
		return nil, fmt.Errorf("scenario incident id: %w", err)
	}

	severity := types.Severity(raw.Incident.Severity)
	if !severity.IsValid() {
		return nil, fmt.Errorf("scenario incident has invalid severity %q", raw.Incident.Severity)
	}

	status := types.IncidentStatus(raw.Incident.Status)
	if raw.Incident.Status == "" {
		status = types.IncidentStatusOpen
	} else if !status.IsValid() {
		return nil, fmt.Errorf("scenario incident has invalid status %q", raw.Incident.Status)
	}

	if raw.Incident.IncidentType == "" {
		return nil, fmt.Errorf("scenario incident has no incident_type (playbook binding)")
	}

	s := &Scenario{
		Incident: Record{
			ID:                incidentID,
			Title:             raw.Incident.Title,
			IncidentType:      raw.Incident.IncidentType,
			Severity:          severity,
			Status:            status,
			AffectedEndpoints: raw.Incident.AffectedEndpoints,
			MITRETactics:      raw.Incident.MITRETactics,
			CreatedAt:         now,
		},
	}

	for i, a := range raw.Alerts {
		alertSeverity := types.Severity(a.Severity)
		if !alertSeverity.IsValid() {
			return nil, fmt.Errorf("alert %d has invalid severity %q", i, a.Severity)
		}
		s.Alerts = append(s.Alerts, Alert{
			ID:         types.NewID(),
			IncidentID: incidentID,
			Source:     a.Source,
			Title:      a.Title,
			Severity:   alertSeverity,
			RaisedAt:   now.Add(time.Duration(i) * time.Second),
		})
	}

	for _, e := range raw.Endpoints {
		if e.ID == "" {
			return nil, fmt.Errorf("scenario endpoint %q has no id", e.Hostname)
		}
		s.Endpoints = append(s.Endpoints, Endpoint{
			ID:         e.ID,
			IncidentID: incidentID,
			Hostname:   e.Hostname,
			IPAddress:  e.IPAddress,
			OS:         e.OS,
		})
	}

	for i, l := range raw.Logs {
		s.Logs = append(s.Logs, LogEntry{
			ID:         types.NewID(),
			IncidentID: incidentID,
			Source:     l.Source,
			Message:    l.Message,
			Timestamp:  now.Add(time.Duration(i) * time.Second),
		})
	}

	return s, nil
}

// LoadScenarioFile reads and parses a scenario bundle from a YAML file.
func LoadScenarioFile(path string, now time.Time) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	s, err := ParseScenario(data, now)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario in %s: %w", path, err)
	}
	return s, nil
}
