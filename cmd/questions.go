package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/levelcheck/internal/assessment"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Preview the questions asked at a level (no database)",
	Long: `Print the questions the selector would ask at a fixed level for the first
N turns. Useful for reviewing a custom question bank.`,
	RunE: runQuestions,
}

func init() {
	questionsCmd.Flags().String("level", "A2", "CEFR level: A1, A2, B1 or B2")
	questionsCmd.Flags().Int("turns", 5, "Number of turns to preview")
	questionsCmd.Flags().String("native", "TR", "Native language code")
	questionsCmd.Flags().String("target", "EN", "Target language code")
}

func runQuestions(cmd *cobra.Command, args []string) error {
	levelVal, _ := cmd.Flags().GetString("level")
	turns, _ := cmd.Flags().GetInt("turns")
	native, _ := cmd.Flags().GetString("native")
	target, _ := cmd.Flags().GetString("target")

	level, err := assessment.ParseLevel(levelVal)
	if err != nil {
		return err
	}
	pair, err := assessment.NewLanguagePair(native, target)
	if err != nil {
		return err
	}
	if turns < 1 {
		return fmt.Errorf("--turns must be at least 1")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	selector, err := newSelector(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for turn := 0; turn < turns; turn++ {
		q := selector.Select(level, turn, pair)
		printQuestion(out, turn+1, q)
		fmt.Fprintln(out, "  id:", q.ID)
	}
	return nil
}
