package main

import (
	"github.com/spf13/cobra"

	"github.com/haven-sec/rehearse/internal/playbook"
)

var playbookCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Inspect and validate playbook definitions",
}

var playbookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded playbooks",
	RunE:  runPlaybookList,
}

var playbookValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a playbook definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaybookValidate,
}

func init() {
	playbookCmd.AddCommand(playbookListCmd)
	playbookCmd.AddCommand(playbookValidateCmd)
}

func runPlaybookList(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	playbooks := a.playbooks.ListPlaybooks(cmd.Context())
	if len(playbooks) == 0 {
		cmd.Println("No playbooks loaded.")
		return nil
	}
	for _, pb := range playbooks {
		cmd.Printf("%-20s %-40s %d nodes (start: %s)\n", pb.ID, pb.Name, pb.NodeCount(), pb.StartNodeID)
	}
	return nil
}

func runPlaybookValidate(cmd *cobra.Command, args []string) error {
	pb, err := playbook.LoadPlaybookFile(args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Playbook %s (%s) is valid: %d nodes reachable from %s\n",
		pb.ID, pb.Name, pb.NodeCount(), pb.StartNodeID)

	if unreachable := playbook.NewValidator().UnreachableNodes(pb); len(unreachable) > 0 {
		cmd.Printf("Warning: %d node(s) unreachable from the start node: %v\n", len(unreachable), unreachable)
	}
	return nil
}
