package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/levelcheck/internal/assessment"
	"github.com/abhisek/levelcheck/internal/assessor"
	"github.com/abhisek/levelcheck/internal/store"
	"github.com/abhisek/levelcheck/internal/ui/theme"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run an interactive level assessment",
	Long: `Run an adaptive assessment in the terminal. Each answer is one line; the
session completes on its own once the level estimate settles.

The learner record is created on first use.`,
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().String("learner", "", "Learner ID (required)")
	assessCmd.Flags().String("name", "", "Learner display name, used when creating the learner")
	assessCmd.Flags().String("native", "", "Native language code, e.g. TR (required)")
	assessCmd.Flags().String("target", "", "Target language code, e.g. EN (required)")
	assessCmd.Flags().Bool("resume", false, "Continue the learner's active session instead of failing")
	_ = assessCmd.MarkFlagRequired("learner")
	_ = assessCmd.MarkFlagRequired("native")
	_ = assessCmd.MarkFlagRequired("target")
}

func runAssess(cmd *cobra.Command, args []string) error {
	learnerID, _ := cmd.Flags().GetString("learner")
	name, _ := cmd.Flags().GetString("name")
	native, _ := cmd.Flags().GetString("native")
	target, _ := cmd.Flags().GetString("target")
	resume, _ := cmd.Flags().GetBool("resume")

	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := ensureLearner(ctx, a.store, learnerID, name); err != nil {
		return err
	}

	sessionID, q, err := startOrResume(ctx, a, assessor.StartInput{
		LearnerID:      learnerID,
		NativeLanguage: native,
		TargetLanguage: target,
	}, resume)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, theme.Subtitle.Render("Session "+sessionID+". Answer each question on one line; Ctrl-D to pause."))

	return assessLoop(ctx, a.assessor, sessionID, q, cmd.InOrStdin(), out)
}

func ensureLearner(ctx context.Context, st *store.Store, id, name string) error {
	_, err := st.Learners().Get(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, assessment.ErrLearnerNotFound) {
		return err
	}
	if name == "" {
		name = id
	}
	err = st.Learners().Create(ctx, &assessment.Learner{ID: id, Name: name, CreatedAt: time.Now().UTC()})
	if errors.Is(err, store.ErrLearnerExists) {
		return nil
	}
	return err
}

func startOrResume(ctx context.Context, a *app, in assessor.StartInput, resume bool) (string, assessment.Question, error) {
	started, err := a.assessor.Start(ctx, in)
	if err == nil {
		return started.Session.ID, started.Question, nil
	}
	if !errors.Is(err, assessment.ErrSessionAlreadyExists) {
		return "", assessment.Question{}, err
	}

	active, lookupErr := a.store.Sessions().ActiveByLearner(ctx, in.LearnerID)
	if lookupErr != nil || active == nil {
		return "", assessment.Question{}, err
	}
	if !resume {
		return "", assessment.Question{}, fmt.Errorf("%w: session %s (use --resume to continue it or `levelcheck cancel %s`)",
			err, active.ID, active.ID)
	}
	q, err := a.assessor.CurrentQuestion(ctx, active.ID)
	if err != nil {
		return "", assessment.Question{}, err
	}
	return active.ID, q, nil
}

func assessLoop(ctx context.Context, a *assessor.Assessor, sessionID string, q assessment.Question, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for n := questionNumber(q); ; {
		printQuestion(out, n, q)
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read answer: %w", err)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, theme.Hint.Render("Paused. Resume with --resume before the session expires."))
			return nil
		}

		turn, err := a.Submit(ctx, assessor.SubmitInput{SessionID: sessionID, Answer: scanner.Text()})
		if err != nil {
			var ve *assessment.ValidationError
			if errors.As(err, &ve) {
				fmt.Fprintln(out, theme.Failed.Render(ve.Reason))
				continue
			}
			return err
		}
		printTurn(out, turn)

		if turn.Done() {
			summary, err := a.Complete(ctx, sessionID)
			if err != nil {
				return err
			}
			printSummary(out, summary)
			return nil
		}
		q = *turn.Next
		n++
	}
}

// questionNumber is the 1-based position encoded in a question id.
func questionNumber(q assessment.Question) int {
	i := strings.LastIndex(q.ID, "_")
	var turn int
	if i >= 0 {
		if _, err := fmt.Sscanf(q.ID[i+1:], "%d", &turn); err != nil {
			return 1
		}
	}
	return turn + 1
}
