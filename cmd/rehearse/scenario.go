package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/haven-sec/rehearse/internal/incident"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Seed simulated incidents from scenario bundles",
}

var scenarioSeedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load a scenario bundle into the session store",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioSeed,
}

func init() {
	scenarioCmd.AddCommand(scenarioSeedCmd)
}

func runScenarioSeed(cmd *cobra.Command, args []string) error {
	sc, err := incident.LoadScenarioFile(args[0], time.Now())
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.SeedScenario(cmd.Context(), sc); err != nil {
		return err
	}

	cmd.Printf("Seeded incident %s (%s, %s severity)\n",
		sc.Incident.ID, sc.Incident.Title, sc.Incident.Severity)
	cmd.Printf("  %d alert(s), %d endpoint(s), %d log line(s)\n",
		len(sc.Alerts), len(sc.Endpoints), len(sc.Logs))
	cmd.Printf("Start a session with: rehearse session start --incident %s --playbook <id>\n",
		sc.Incident.ID)
	return nil
}
