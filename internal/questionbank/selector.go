package questionbank

import (
	"fmt"

	"github.com/abhisek/levelcheck/internal/assessment"
)

// unknownTargetName is used in instructions when the target code has no
// display name.
const unknownTargetName = "the target language"

// Selector deterministically picks the question for a turn.
type Selector struct {
	bank Bank
}

// NewSelector returns a selector over bank. A nil bank selects from Default;
// any other bank must pass Validate.
func NewSelector(bank Bank) (*Selector, error) {
	if bank == nil {
		return &Selector{bank: Default}, nil
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return &Selector{bank: bank}, nil
}

// Select returns the question for turn at the given level estimate.
//
// Levels without templates collapse to A2. The category is
// categories[turn mod len] and the template templates[turn mod len], so
// identical inputs always produce the identical question. Questions already
// asked in the session are not consulted.
func (s *Selector) Select(level assessment.Level, turn int, pair assessment.LanguagePair) assessment.Question {
	if turn < 0 {
		turn = 0
	}
	lvl := questionLevel(level)
	cats := s.bank[lvl]

	cat := cats[turn%len(cats)]
	content := cat.Templates[turn%len(cat.Templates)]

	return assessment.Question{
		ID:            fmt.Sprintf("%s_%s_%d", lvl, cat.Name, turn),
		Content:       content,
		ExpectedLevel: lvl,
		Category:      cat.Name,
		Instructions:  Instructions(pair),
	}
}

// Instructions builds the answer hint for the pair's target language.
func Instructions(pair assessment.LanguagePair) string {
	name := assessment.DisplayName(pair.Target, unknownTargetName)
	return fmt.Sprintf("Please answer in %s. Take your time and answer as completely as you can.", name)
}

func questionLevel(l assessment.Level) assessment.Level {
	if isProbed(l) {
		return l
	}
	return assessment.BaselineLevel
}
