package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/haven-sec/rehearse/internal/report"
	"github.com/haven-sec/rehearse/internal/types"
)

var flagReportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a point-in-time incident response report",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&flagIncident, "incident", "", "Incident ID (required)")
	reportCmd.Flags().StringVar(&flagReportFormat, "format", "styled", "Output format: styled, text, or json")
	reportCmd.MarkFlagRequired("incident")
}

func runReport(cmd *cobra.Command, args []string) error {
	incidentID, err := types.ParseID(flagIncident)
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.reports.GenerateReport(cmd.Context(), incidentID)
	if err != nil {
		return err
	}

	switch flagReportFormat {
	case "json":
		return report.JSONExporter{}.Export(cmd.OutOrStdout(), rep)
	case "text":
		return report.TextExporter{}.Export(cmd.OutOrStdout(), rep)
	case "styled":
		cmd.Println(renderStyledReport(rep))
		return nil
	default:
		return types.NewErrorf(types.CONFIG_VALIDATION_FAILED, "unknown report format %q", flagReportFormat)
	}
}

var (
	reportTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("57")).
				Padding(0, 1)

	reportSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginTop(1)

	reportLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Width(18)

	severityStyles = map[types.Severity]lipgloss.Style{
		types.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		types.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		types.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		types.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func renderStyledReport(rep *report.Report) string {
	var b strings.Builder

	b.WriteString(reportTitleStyle.Render("INCIDENT RESPONSE REPORT"))
	b.WriteString("\n")

	severity := rep.Summary.Severity.String()
	if style, ok := severityStyles[rep.Summary.Severity]; ok {
		severity = style.Render(severity)
	}

	b.WriteString(reportSectionStyle.Render("Summary"))
	b.WriteString("\n")
	row := func(label, value string) {
		b.WriteString(reportLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Title", rep.Summary.Title)
	row("Type", rep.Summary.IncidentType)
	row("Severity", severity)
	row("Incident status", rep.Summary.IncidentStatus.String())
	row("Session status", rep.Summary.SessionStatus.String())
	row("Affected assets", fmt.Sprintf("%d", rep.Summary.AffectedAssetCount))
	row("Response time", rep.Summary.ElapsedResponse.Round(time.Second).String())

	b.WriteString(reportSectionStyle.Render(fmt.Sprintf("Timeline (%d actions)", len(rep.Timeline))))
	b.WriteString("\n")
	for i, entry := range rep.Timeline {
		line := fmt.Sprintf("%2d. %s  %s", i+1, entry.Timestamp.Format("15:04:05"), entry.ActionLabel)
		if entry.ToNode != "" {
			line += fmt.Sprintf("  (%s -> %s)", entry.FromNode, entry.ToNode)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(reportSectionStyle.Render("MITRE ATT&CK"))
	b.WriteString("\n")
	row("Tactics", orNone(rep.MITRETactics))
	row("Techniques", orNone(rep.MITRETechniques))

	b.WriteString(reportSectionStyle.Render(fmt.Sprintf("Recommendations (%s)", rep.Role)))
	b.WriteString("\n")
	for _, rec := range rep.Recommendations {
		b.WriteString("  • ")
		b.WriteString(rec)
		b.WriteString("\n")
	}
	return b.String()
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "none observed"
	}
	return strings.Join(values, ", ")
}
