package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/civium/aegis/internal/grade"
	"github.com/civium/aegis/internal/ledger"
)

var (
	auditFrom int64
	auditTo   int64
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().Int64Var(&auditFrom, "from", 1, "first decision id to audit")
	auditCmd.Flags().Int64Var(&auditTo, "to", 0, "last decision id to audit (0 = to the end)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Grade the audit quality of committed decisions",
	Long: `Audit verifies the hash chain over the selected range and grades each
decision record on completeness: chosen action present, domain checks
passing, objectives and options recorded, approvals attached to
high-risk actions. A broken chain grades every untrusted record F.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	led := ledger.New(s)

	report, err := led.Verify(auditFrom, auditTo)
	if err != nil {
		return err
	}

	rows, err := s.ListDecisions(auditFrom, auditTo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, row := range rows {
		chainOK := report.OK || (report.FirstBadID != nil && row.DecisionID < *report.FirstBadID)

		res := grade.Result{Grade: "F", Reasons: []string{"hash_chain_broken"}}
		if chainOK {
			decision, err := led.Get(row.DecisionID)
			if err != nil {
				return err
			}
			res = grade.Evaluate(grade.Input{ChainOK: true, Decision: decision})
		}

		line := fmt.Sprintf("%-6d %s", row.DecisionID, res.Grade)
		if len(res.Reasons) > 0 {
			line += " " + strings.Join(res.Reasons, ",")
		}
		fmt.Fprintln(out, line)
	}

	if !report.OK {
		fmt.Fprintf(out, "chain BROKEN at decision %d: %s\n", *report.FirstBadID, report.Reason)
		return report.Err()
	}
	fmt.Fprintf(out, "chain OK: %d records verified\n", report.Checked)
	return nil
}
