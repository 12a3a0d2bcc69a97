package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/civium/aegis/internal/ledger"
	"github.com/civium/aegis/internal/pipeline"
	"github.com/civium/aegis/pkg/types"
)

var (
	appealSubmitter string
	appealGrounds   string
)

func init() {
	rootCmd.AddCommand(appealCmd)
	appealCmd.Flags().StringVar(&appealSubmitter, "submitter", "", "who files the appeal")
	appealCmd.Flags().StringVar(&appealGrounds, "grounds", "", "grounds for the appeal")
	_ = appealCmd.MarkFlagRequired("submitter")
	_ = appealCmd.MarkFlagRequired("grounds")
}

var appealCmd = &cobra.Command{
	Use:   "appeal <decision-id>",
	Short: "File an appeal against a committed decision",
	Long:  "Pauses the linked plan scope, stores the appeal, and chains a new ledger entry off the challenged decision. The original record is never touched.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppeal,
}

func runAppeal(cmd *cobra.Command, args []string) error {
	decisionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid decision id %q", args[0])
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	led := ledger.New(s)
	if _, err := led.Get(decisionID); err != nil {
		return err
	}

	appealID := uuid.NewString()
	filedAt := time.Now().UTC().Format(time.RFC3339)
	scope := pipeline.PlanScope(decisionID)

	if err := s.PutPause(ledger.PauseRow{
		Scope:    scope,
		Reason:   fmt.Sprintf("appeal %s filed against decision %d", appealID, decisionID),
		PausedAt: filedAt,
	}); err != nil {
		return fmt.Errorf("pause plan: %w", err)
	}
	if err := s.PutAppeal(ledger.AppealRow{
		AppealID:   appealID,
		DecisionID: decisionID,
		Submitter:  appealSubmitter,
		Grounds:    appealGrounds,
		FiledAt:    filedAt,
		Status:     string(types.AppealPending),
	}); err != nil {
		return fmt.Errorf("store appeal: %w", err)
	}

	entryID, err := led.RecordAppeal(cmd.Context(), decisionID, appealID, appealSubmitter, appealGrounds, filedAt)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "appeal %s filed: decision=%d ledger_entry=%d paused_scope=%s\n",
		appealID, decisionID, entryID, scope)
	return nil
}
