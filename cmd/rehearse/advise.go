package main

import (
	"github.com/spf13/cobra"

	"github.com/haven-sec/rehearse/internal/advisory"
	"github.com/haven-sec/rehearse/internal/types"
)

var flagPhase string

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Print guidance text for an incident phase",
	Long: `Print advisory guidance for the given incident, response phase, and
audience role. Guidance is display-only; it never affects which playbook
transitions are valid.`,
	RunE: runAdvise,
}

func init() {
	adviseCmd.Flags().StringVar(&flagIncident, "incident", "", "Incident ID (required)")
	adviseCmd.Flags().StringVar(&flagPhase, "phase", "", "Response phase (required)")
	adviseCmd.Flags().StringVar(&flagRole, "role", "analyst", "Audience role: analyst, manager, or client")
	adviseCmd.MarkFlagRequired("incident")
	adviseCmd.MarkFlagRequired("phase")
}

func runAdvise(cmd *cobra.Command, args []string) error {
	incidentID, err := types.ParseID(flagIncident)
	if err != nil {
		return err
	}
	phase := types.Phase(flagPhase)
	if !phase.IsValid() {
		return types.NewErrorf(types.CONFIG_VALIDATION_FAILED, "unknown phase %q", flagPhase)
	}
	role := types.UserRole(flagRole)
	if !role.IsValid() {
		return types.NewErrorf(types.CONFIG_VALIDATION_FAILED, "unknown role %q", flagRole)
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.store.GetIncident(cmd.Context(), incidentID)
	if err != nil {
		return err
	}

	text, err := a.advisor.Generate(cmd.Context(), advisory.Request{
		Incident: rec,
		Phase:    phase,
		Role:     role,
	})
	if err != nil {
		return err
	}
	cmd.Println(text)
	return nil
}
