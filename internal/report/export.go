package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Exporter serializes a Report to one output format. Format selection
// happens at the CLI; the synthesizer never knows which exporter runs.
type Exporter interface {
	Export(w io.Writer, rep *Report) error
}

// JSONExporter writes the report as indented JSON.
type JSONExporter struct{}

// Export implements Exporter.
func (JSONExporter) Export(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to export report %s: %w", rep.IncidentID, err)
	}
	return nil
}

// TextExporter writes a plain-text report suitable for terminals and ticket
// systems. No ANSI styling here; the CLI layers that on separately.
type TextExporter struct{}

// Export implements Exporter.
func (TextExporter) Export(w io.Writer, rep *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "INCIDENT RESPONSE REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", rep.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "Summary\n")
	fmt.Fprintf(&b, "  Title:            %s\n", rep.Summary.Title)
	fmt.Fprintf(&b, "  Type:             %s\n", rep.Summary.IncidentType)
	fmt.Fprintf(&b, "  Severity:         %s\n", rep.Summary.Severity)
	fmt.Fprintf(&b, "  Incident status:  %s\n", rep.Summary.IncidentStatus)
	fmt.Fprintf(&b, "  Session status:   %s\n", rep.Summary.SessionStatus)
	fmt.Fprintf(&b, "  Affected assets:  %d\n", rep.Summary.AffectedAssetCount)
	fmt.Fprintf(&b, "  Response elapsed: %s\n\n", rep.Summary.ElapsedResponse.Round(time.Second))

	fmt.Fprintf(&b, "Timeline (%d actions)\n", len(rep.Timeline))
	for i, row := range rep.Timeline {
		fmt.Fprintf(&b, "  %2d. %s  %s", i+1, row.Timestamp.Format(time.RFC3339), row.ActionLabel)
		if row.ToNode != "" {
			fmt.Fprintf(&b, "  (%s -> %s)", row.FromNode, row.ToNode)
		}
		fmt.Fprintln(&b)
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "MITRE ATT&CK\n")
	fmt.Fprintf(&b, "  Tactics:    %s\n", joinOrNone(rep.MITRETactics))
	fmt.Fprintf(&b, "  Techniques: %s\n\n", joinOrNone(rep.MITRETechniques))

	fmt.Fprintf(&b, "Recommendations (%s)\n", rep.Role)
	for _, rec := range rep.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to export report %s: %w", rep.IncidentID, err)
	}
	return nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none observed"
	}
	return strings.Join(values, ", ")
}
