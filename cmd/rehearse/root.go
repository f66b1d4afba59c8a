package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagHomeDir string
)

var rootCmd = &cobra.Command{
	Use:   "rehearse",
	Short: "Rehearse - incident response training simulator",
	Long: `Rehearse runs tabletop incident response simulations. Trainees work a
simulated incident through a playbook graph phase by phase; every decision
is recorded and becomes part of the final response report.

Playbooks and scenario bundles are YAML files; session state persists in
either a file-backed or a SQLite store selected in the configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal-aware context cancellation.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

// configPath resolves the config file location: explicit flag, then
// REHEARSE_HOME, then ~/.rehearse.
func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	home := flagHomeDir
	if home == "" {
		home = os.Getenv("REHEARSE_HOME")
	}
	if home == "" {
		if userHome, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(userHome, ".rehearse")
		} else {
			home = ".rehearse"
		}
	}
	return filepath.Join(home, "config.yaml")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagHomeDir, "home", "", "Rehearse home directory (default ~/.rehearse)")

	rootCmd.AddCommand(playbookCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(adviseCmd)
}
