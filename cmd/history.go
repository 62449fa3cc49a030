package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/levelcheck/internal/ui/theme"
)

var historyCmd = &cobra.Command{
	Use:   "history <learner-id>",
	Short: "List a learner's assessment sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sessions, err := a.assessor.History(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(sessions)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No assessments found.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-16s  %-8s  %-7s  %-5s  %s\n",
			"Session", "Started", "Pair", "Answers", "Level", "Status")
		fmt.Fprintln(out, strings.Repeat("─", 96))
		for _, p := range sessions {
			level := p.CurrentLevel
			if p.FinalLevel != "" {
				level = p.FinalLevel
			}
			fmt.Fprintf(out, "%-36s  %-16s  %-8s  %-7d  %s  %s\n",
				p.SessionID,
				p.CreatedAt.Local().Format("2006-01-02 15:04"),
				p.Pair.String(),
				p.ResponseCount,
				theme.Level(level),
				theme.Status(p.Status),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	historyCmd.Flags().Bool("json", false, "Print the sessions as JSON")
}
