// Package estimator aggregates per-turn scores into CEFR estimates and
// decides when an assessment has gathered enough evidence.
//
// Every function is pure: it reads the scores it is given and keeps no state.
package estimator

import (
	"math"

	"github.com/abhisek/levelcheck/internal/assessment"
)

// band maps composite scores below Upper onto Level.
type band struct {
	Upper float64
	Level assessment.Level
}

// runningBands are used after every turn to steer the next question.
var runningBands = []band{
	{0.25, assessment.LevelA1},
	{0.45, assessment.LevelA2},
	{0.65, assessment.LevelB1},
	{0.85, assessment.LevelB2},
	{0.95, assessment.LevelC1},
}

// finalBands are stricter and used once at completion.
var finalBands = []band{
	{0.3, assessment.LevelA1},
	{0.5, assessment.LevelA2},
	{0.7, assessment.LevelB1},
	{0.85, assessment.LevelB2},
	{0.95, assessment.LevelC1},
}

// Final estimate coefficients. Accuracy carries the most weight.
const (
	finalComplexityWeight = 0.3
	finalAccuracyWeight   = 0.4
	finalFluencyWeight    = 0.3

	// finalWindow is how many of the most recent responses feed the final estimate.
	finalWindow = 3
)

func mapBands(score float64, bands []band) assessment.Level {
	for _, b := range bands {
		if score < b.Upper {
			return b.Level
		}
	}
	return assessment.LevelC2
}

// RunningLevelForScore maps a composite score using the running breakpoints.
func RunningLevelForScore(score float64) assessment.Level {
	return mapBands(score, runningBands)
}

// FinalLevelForScore maps a composite score using the final breakpoints.
func FinalLevelForScore(score float64) assessment.Level {
	return mapBands(score, finalBands)
}

// Averages are the unweighted per-dimension means over a set of responses.
type Averages struct {
	Complexity float64 `json:"complexity"`
	Accuracy   float64 `json:"accuracy"`
	Fluency    float64 `json:"fluency"`
	Overall    float64 `json:"overall"`
}

// Average computes per-dimension means. Zero responses yield all zeros.
func Average(responses []assessment.Response) Averages {
	if len(responses) == 0 {
		return Averages{}
	}
	var sum assessment.Scores
	for _, r := range responses {
		sum.Complexity += r.Scores.Complexity
		sum.Accuracy += r.Scores.Accuracy
		sum.Fluency += r.Scores.Fluency
	}
	n := float64(len(responses))
	mean := assessment.Scores{
		Complexity: sum.Complexity / n,
		Accuracy:   sum.Accuracy / n,
		Fluency:    sum.Fluency / n,
	}
	return Averages{
		Complexity: mean.Complexity,
		Accuracy:   mean.Accuracy,
		Fluency:    mean.Fluency,
		Overall:    mean.Overall(),
	}
}

// Rounded returns a copy with every field rounded to three decimals.
func (a Averages) Rounded() Averages {
	return Averages{
		Complexity: round3(a.Complexity),
		Accuracy:   round3(a.Accuracy),
		Fluency:    round3(a.Fluency),
		Overall:    round3(a.Overall),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// RunningLevel is the simple-mean estimate over all responses.
func RunningLevel(responses []assessment.Response) assessment.Level {
	if len(responses) == 0 {
		return assessment.BaselineLevel
	}
	return RunningLevelForScore(Average(responses).Overall)
}

// FinalScore is the recency-weighted composite used at completion. Only the
// last three responses count, weighted 1, 2, 3 from oldest to newest.
func FinalScore(responses []assessment.Response) float64 {
	recent := responses
	if len(recent) > finalWindow {
		recent = recent[len(recent)-finalWindow:]
	}

	var total, complexity, accuracy, fluency float64
	for i, r := range recent {
		w := float64(i + 1)
		total += w
		complexity += r.Scores.Complexity * w
		accuracy += r.Scores.Accuracy * w
		fluency += r.Scores.Fluency * w
	}
	if total == 0 {
		return 0
	}
	return finalComplexityWeight*complexity/total +
		finalAccuracyWeight*accuracy/total +
		finalFluencyWeight*fluency/total
}

// FinalLevel is the level stored on a completed session.
func FinalLevel(responses []assessment.Response) assessment.Level {
	if len(responses) == 0 {
		return assessment.BaselineLevel
	}
	return FinalLevelForScore(FinalScore(responses))
}
