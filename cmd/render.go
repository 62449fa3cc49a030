package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abhisek/levelcheck/internal/assessment"
	"github.com/abhisek/levelcheck/internal/assessor"
	"github.com/abhisek/levelcheck/internal/session"
	"github.com/abhisek/levelcheck/internal/ui/components"
	"github.com/abhisek/levelcheck/internal/ui/theme"
)

const barWidth = 40

func printQuestion(w io.Writer, n int, q assessment.Question) {
	head := theme.Title.Render(fmt.Sprintf("Question %d", n)) + "  " +
		theme.Subtitle.Render(fmt.Sprintf("%s · %s", q.ExpectedLevel, strings.ReplaceAll(q.Category, "_", " ")))
	body := theme.Body.Render(q.Content)
	if q.Instructions != "" {
		body += "\n" + theme.Hint.Render(q.Instructions)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, head)
	fmt.Fprintln(w, theme.QuestionCard.Render(body))
}

func printTurn(w io.Writer, turn *assessor.Turn) {
	r := turn.Result
	fmt.Fprintln(w)
	fmt.Fprintln(w, components.ScoreLine("complexity", r.Scores.Complexity, barWidth))
	fmt.Fprintln(w, components.ScoreLine("accuracy", r.Scores.Accuracy, barWidth))
	fmt.Fprintln(w, components.ScoreLine("fluency", r.Scores.Fluency, barWidth))

	line := theme.Label.Render("estimate") + "  " + theme.Level(r.EstimatedLevel)
	if r.Fallback() {
		line += "  " + theme.Degraded.Render("(basic scoring, AI evaluation unavailable)")
	}
	fmt.Fprintln(w, line)
	if r.Feedback != "" {
		fmt.Fprintln(w, theme.Hint.Render(r.Feedback))
	}
	fmt.Fprintln(w, components.NewProgressBar("progress", turn.Progress.Percent/100, true, barWidth+6).View())
}

func printSummary(w io.Writer, s *session.Summary) {
	lines := []string{
		theme.Title.Render("Assessment complete"),
		"",
		theme.Label.Render("level") + "  " + theme.Level(s.FinalLevel),
		theme.Label.Render("score") + "  " + theme.Body.Render(fmt.Sprintf("%.2f", s.FinalScore)),
		theme.Label.Render("questions") + "  " + theme.Body.Render(fmt.Sprint(s.Questions)),
		theme.Label.Render("duration") + "  " + theme.Body.Render(s.Duration.Round(time.Second).String()),
	}
	if s.FallbackCount > 0 {
		lines = append(lines, theme.Degraded.Render(fmt.Sprintf("%d of %d answers used basic scoring", s.FallbackCount, s.Questions)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Card.Render(strings.Join(lines, "\n")))
}

func printProgress(w io.Writer, p session.Progress) {
	rows := [][2]string{
		{"session", p.SessionID},
		{"learner", p.LearnerID},
		{"languages", p.Pair.String()},
		{"status", theme.Status(p.Status)},
		{"answers", fmt.Sprint(p.ResponseCount)},
		{"estimate", theme.Level(p.CurrentLevel)},
		{"started", p.CreatedAt.Local().Format("2006-01-02 15:04")},
	}
	if p.FinalLevel != "" {
		rows = append(rows, [2]string{"final", theme.Level(p.FinalLevel)})
	}
	if p.CompletedAt != nil {
		rows = append(rows, [2]string{"completed", p.CompletedAt.Local().Format("2006-01-02 15:04")})
	}
	for _, r := range rows {
		fmt.Fprintln(w, theme.Label.Render(r[0])+"  "+r[1])
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, components.NewProgressBar("progress", p.Percent/100, true, barWidth+6).View())
	if p.ResponseCount > 0 {
		fmt.Fprintln(w, components.ScoreLine("complexity", p.Averages.Complexity, barWidth))
		fmt.Fprintln(w, components.ScoreLine("accuracy", p.Averages.Accuracy, barWidth))
		fmt.Fprintln(w, components.ScoreLine("fluency", p.Averages.Fluency, barWidth))
		fmt.Fprintln(w, components.ScoreLine("overall", p.Averages.Overall, barWidth))
	}
}
