package evaluator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Reply labels. The first four are required.
const (
	labelComplexity = "COMPLEXITY_SCORE"
	labelAccuracy   = "ACCURACY_SCORE"
	labelFluency    = "FLUENCY_SCORE"
	labelLevel      = "ESTIMATED_LEVEL"
	labelFeedback   = "FEEDBACK"
)

var requiredLabels = []string{labelComplexity, labelAccuracy, labelFluency, labelLevel}

var labeledLine = regexp.MustCompile(
	`^(?P<label>COMPLEXITY_SCORE|ACCURACY_SCORE|FLUENCY_SCORE|ESTIMATED_LEVEL|FEEDBACK)\s*:\s*(?P<value>.*?)\s*$`,
)

var (
	labelIdx = labeledLine.SubexpIndex("label")
	valueIdx = labeledLine.SubexpIndex("value")
)

// ParseError describes why a labeled reply was rejected.
type ParseError struct {
	Label  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("evaluation reply: %s: %s", e.Label, e.Reason)
}

// parseLabeled extracts the verdict from a reply of the form
//
//	COMPLEXITY_SCORE: 0.6
//	ACCURACY_SCORE: 0.7
//	FLUENCY_SCORE: 0.65
//	ESTIMATED_LEVEL: B1
//	FEEDBACK: ...
//
// Lines without a known label are ignored. A missing, repeated or
// non-numeric required field rejects the whole reply. Scores are returned
// unclamped and unknown levels become the baseline.
func parseLabeled(text string) (*evaluation, error) {
	fields := make(map[string]string, 5)
	for _, line := range strings.Split(text, "\n") {
		m := labeledLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		label := m[labelIdx]
		if _, dup := fields[label]; dup {
			return nil, &ParseError{Label: label, Reason: "appears more than once"}
		}
		fields[label] = m[valueIdx]
	}

	for _, label := range requiredLabels {
		if v, ok := fields[label]; !ok || v == "" {
			return nil, &ParseError{Label: label, Reason: "missing"}
		}
	}

	var ev evaluation
	var err error
	if ev.scores.Complexity, err = parseScore(labelComplexity, fields[labelComplexity]); err != nil {
		return nil, err
	}
	if ev.scores.Accuracy, err = parseScore(labelAccuracy, fields[labelAccuracy]); err != nil {
		return nil, err
	}
	if ev.scores.Fluency, err = parseScore(labelFluency, fields[labelFluency]); err != nil {
		return nil, err
	}
	ev.level = normalizeLevel(unbracket(fields[labelLevel]))
	ev.feedback = fields[labelFeedback]
	return &ev, nil
}

// unbracket strips one pair of square brackets, which models sometimes
// copy from the format line.
func unbracket(s string) string {
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func parseScore(label, raw string) (float64, error) {
	v, err := strconv.ParseFloat(unbracket(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Label: label, Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return v, nil
}
