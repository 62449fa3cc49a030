package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show the progress of an assessment session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.assessor.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}
		printProgress(out, p)
		if p.Expired {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "This session expired. Start a new one with `levelcheck assess`.")
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "Print the snapshot as JSON")
}
