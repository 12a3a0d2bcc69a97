package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/civium/aegis/internal/ledger"
)

var pauseReason string

func init() {
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	pauseCmd.Flags().StringVar(&pauseReason, "reason", "", "why the scope is paused")
	_ = pauseCmd.MarkFlagRequired("reason")
}

var pauseCmd = &cobra.Command{
	Use:   "pause <scope>",
	Short: "Pause a scope (system or plan:<decision-id>)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPause,
}

var resumeCmd = &cobra.Command{
	Use:   "resume <scope>",
	Short: "Clear a pause scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runResume,
}

func runPause(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	scope := args[0]
	pausedAt := time.Now().UTC().Format(time.RFC3339)
	if err := s.PutPause(ledger.PauseRow{Scope: scope, Reason: pauseReason, PausedAt: pausedAt}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "paused %s: %s\n", scope, pauseReason)
	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	scope := args[0]
	if _, ok := s.GetPause(scope); !ok {
		return fmt.Errorf("scope %q is not paused", scope)
	}
	if err := s.ClearPause(scope); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "resumed %s\n", scope)
	return nil
}
