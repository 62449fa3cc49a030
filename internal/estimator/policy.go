package estimator

import "github.com/abhisek/levelcheck/internal/assessment"

// Policy is the stopping rule for an assessment.
type Policy struct {
	// MinQuestions is the number of responses always collected.
	MinQuestions int

	// MaxQuestions is the hard upper bound on responses.
	MaxQuestions int

	// VarianceThreshold stops the session early once the variance of recent
	// overall scores falls below it.
	VarianceThreshold float64

	// VarianceWindow is how many recent responses the variance covers.
	VarianceWindow int

	// Adaptive enables the variance early stop.
	Adaptive bool
}

// DefaultPolicy returns the standard 5..10 question policy.
func DefaultPolicy() Policy {
	return Policy{
		MinQuestions:      5,
		MaxQuestions:      10,
		VarianceThreshold: 0.05,
		VarianceWindow:    3,
		Adaptive:          true,
	}
}

// ShouldContinue reports whether another question should be asked after
// the given responses.
func (p Policy) ShouldContinue(responses []assessment.Response) bool {
	n := len(responses)
	if n < p.MinQuestions {
		return true
	}
	if n >= p.MaxQuestions {
		return false
	}
	if p.Adaptive && p.VarianceWindow > 0 && n >= p.VarianceWindow {
		if RecentVariance(responses, p.VarianceWindow) < p.VarianceThreshold {
			return false
		}
	}
	return true
}

// RecentVariance is the population variance of the overall scores of the
// last window responses.
func RecentVariance(responses []assessment.Response, window int) float64 {
	if window <= 0 || len(responses) == 0 {
		return 0
	}
	if len(responses) > window {
		responses = responses[len(responses)-window:]
	}

	overall := make([]float64, len(responses))
	var mean float64
	for i, r := range responses {
		overall[i] = r.Scores.Overall()
		mean += overall[i]
	}
	mean /= float64(len(overall))

	var variance float64
	for _, s := range overall {
		variance += (s - mean) * (s - mean)
	}
	return variance / float64(len(overall))
}
