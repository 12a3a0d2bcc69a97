package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listFrom int64
	listTo   int64
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Int64Var(&listFrom, "from", 1, "first decision id to list")
	listCmd.Flags().Int64Var(&listTo, "to", 0, "last decision id to list (0 = to the end)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List committed decisions in chain order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	rows, err := s.ListDecisions(listFrom, listTo)
	if err != nil {
		return err
	}

	for _, row := range rows {
		actionType := "?"
		var chosen map[string]any
		if err := json.Unmarshal(row.ChosenAction, &chosen); err == nil {
			if v, ok := chosen["action_type"].(string); ok {
				actionType = v
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-6d %s %s\n", row.DecisionID, row.TS, actionType)
	}
	return nil
}
