package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/haven-sec/rehearse/internal/session"
	"github.com/haven-sec/rehearse/internal/types"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start and drive workflow sessions",
}

var (
	flagIncident string
	flagPlaybook string
	flagRole     string
	flagSession  string
	flagOption   string
)

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start (or resume fetching) the session for an incident",
	RunE:  runSessionStart,
}

var sessionAdvanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Apply an option choice to a session",
	RunE:  runSessionAdvance,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current session for an incident",
	RunE:  runSessionShow,
}

var sessionPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause an active session",
	RunE:  makeStatusRunner(func(a *app, cmd *cobra.Command, id types.ID) (*session.WorkflowSession, error) {
		return a.engine.Pause(cmd.Context(), id)
	}),
}

var sessionResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused session",
	RunE: makeStatusRunner(func(a *app, cmd *cobra.Command, id types.ID) (*session.WorkflowSession, error) {
		return a.engine.Resume(cmd.Context(), id)
	}),
}

var sessionCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark an active session finished",
	RunE: makeStatusRunner(func(a *app, cmd *cobra.Command, id types.ID) (*session.WorkflowSession, error) {
		return a.engine.Complete(cmd.Context(), id)
	}),
}

func init() {
	sessionStartCmd.Flags().StringVar(&flagIncident, "incident", "", "Incident ID (required)")
	sessionStartCmd.Flags().StringVar(&flagPlaybook, "playbook", "", "Playbook ID (required)")
	sessionStartCmd.Flags().StringVar(&flagRole, "role", "analyst", "Trainee role: analyst, manager, or client")
	sessionStartCmd.MarkFlagRequired("incident")
	sessionStartCmd.MarkFlagRequired("playbook")

	sessionAdvanceCmd.Flags().StringVar(&flagSession, "session", "", "Session ID (required)")
	sessionAdvanceCmd.Flags().StringVar(&flagOption, "option", "", "Option label to apply (required)")
	sessionAdvanceCmd.MarkFlagRequired("session")
	sessionAdvanceCmd.MarkFlagRequired("option")

	sessionShowCmd.Flags().StringVar(&flagIncident, "incident", "", "Incident ID (required)")
	sessionShowCmd.MarkFlagRequired("incident")

	for _, c := range []*cobra.Command{sessionPauseCmd, sessionResumeCmd, sessionCompleteCmd} {
		c.Flags().StringVar(&flagSession, "session", "", "Session ID (required)")
		c.MarkFlagRequired("session")
	}

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionAdvanceCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionPauseCmd)
	sessionCmd.AddCommand(sessionResumeCmd)
	sessionCmd.AddCommand(sessionCompleteCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	incidentID, err := types.ParseID(flagIncident)
	if err != nil {
		return err
	}
	role := types.UserRole(flagRole)
	if !role.IsValid() {
		return types.NewErrorf(types.CONFIG_VALIDATION_FAILED, "unknown role %q", flagRole)
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.engine.Initialize(cmd.Context(), incidentID, flagPlaybook, role)
	if err != nil {
		return err
	}
	printSession(cmd, a, s)
	return nil
}

func runSessionAdvance(cmd *cobra.Command, args []string) error {
	sessionID, err := types.ParseID(flagSession)
	if err != nil {
		return err
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.engine.Advance(cmd.Context(), sessionID, flagOption)
	if err != nil {
		return err
	}
	printSession(cmd, a, s)
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	incidentID, err := types.ParseID(flagIncident)
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.engine.GetSession(cmd.Context(), incidentID)
	if err != nil {
		return err
	}
	printSession(cmd, a, s)
	return nil
}

func makeStatusRunner(fn func(*app, *cobra.Command, types.ID) (*session.WorkflowSession, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		sessionID, err := types.ParseID(flagSession)
		if err != nil {
			return err
		}

		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := fn(a, cmd, sessionID)
		if err != nil {
			return err
		}
		cmd.Printf("Session %s is now %s.\n", s.ID, s.Status)
		return nil
	}
}

// printSession renders the session state plus the current node's guidance
// and options, which is what a trainee needs to pick their next move.
func printSession(cmd *cobra.Command, a *app, s *session.WorkflowSession) {
	cmd.Printf("Session:   %s (%s, %s)\n", s.ID, s.Status, s.UserRole)
	cmd.Printf("Incident:  %s\n", s.IncidentID)
	cmd.Printf("Playbook:  %s\n", s.PlaybookID)
	cmd.Printf("Started:   %s\n", s.StartedAt.Format(time.RFC3339))
	cmd.Printf("Progress:  %d node(s) completed, %d action(s) taken\n",
		len(s.CompletedNodes), len(s.ActionsTaken))

	pb, err := a.playbooks.GetPlaybook(cmd.Context(), s.PlaybookID)
	if err != nil {
		cmd.Printf("Current:   %s (playbook not loaded, no guidance available)\n", s.CurrentNodeID)
		return
	}
	node := pb.GetNode(s.CurrentNodeID)
	if node == nil {
		cmd.Printf("Current:   %s (node missing from playbook)\n", s.CurrentNodeID)
		return
	}

	cmd.Printf("Current:   %s - %s [%s]\n", node.ID, node.Title, node.Phase.Title())
	if node.Guidance != "" {
		cmd.Printf("\n%s\n", node.Guidance)
	}
	cmd.Println("\nOptions:")
	for _, opt := range node.Options {
		if opt.IsTerminal() {
			cmd.Printf("  - %s\n", opt.Label)
		} else {
			cmd.Printf("  - %s -> %s\n", opt.Label, opt.Next)
		}
	}
}
