// Package questionbank holds the leveled catalog of open-ended assessment
// questions and the deterministic selector that picks one per turn.
package questionbank

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/levelcheck/internal/assessment"
)

// Category is a topical group of question templates. Order within a level
// is significant: the selector cycles categories by turn index.
type Category struct {
	Name      string   `yaml:"name"`
	Templates []string `yaml:"templates"`
}

// Bank maps the probed levels to their ordered categories.
type Bank map[assessment.Level][]Category

// probedLevels are the only levels with questions. C1 and C2 are inferred
// from scoring quality rather than harder prompts.
var probedLevels = []assessment.Level{
	assessment.LevelA1,
	assessment.LevelA2,
	assessment.LevelB1,
	assessment.LevelB2,
}

// Default is the built-in catalog.
var Default = Bank{
	assessment.LevelA1: {
		{Name: "introduction", Templates: []string{
			"Please introduce yourself. Tell me your name and where you are from.",
			"What do you like to do in your free time?",
			"Describe your family. How many people are in your family?",
		}},
		{Name: "daily_life", Templates: []string{
			"What did you eat for breakfast today?",
			"Describe your typical day from morning to evening.",
			"What time do you usually wake up and go to sleep?",
		}},
		{Name: "preferences", Templates: []string{
			"What is your favorite color and why?",
			"Do you prefer coffee or tea? Why?",
			"What kind of music do you like?",
		}},
	},
	assessment.LevelA2: {
		{Name: "past_experiences", Templates: []string{
			"Tell me about your last vacation. Where did you go and what did you do?",
			"Describe a memorable day from your childhood.",
			"What was your favorite subject in school and why?",
		}},
		{Name: "opinions", Templates: []string{
			"What do you think about social media? Is it good or bad?",
			"Do you prefer living in a city or in the countryside? Explain your choice.",
			"What is the most important quality in a friend?",
		}},
		{Name: "future_plans", Templates: []string{
			"What are your plans for next weekend?",
			"Where would you like to travel in the future and why?",
			"What job would you like to have in 5 years?",
		}},
	},
	assessment.LevelB1: {
		{Name: "complex_situations", Templates: []string{
			"Describe a time when you had to solve a difficult problem. How did you handle it?",
			"If you could change one thing about your city, what would it be and why?",
			"Explain the advantages and disadvantages of learning languages online.",
		}},
		{Name: "abstract_topics", Templates: []string{
			"What does success mean to you? How do you measure it?",
			"Do you think technology makes our lives better or worse? Explain your opinion.",
			"How has your country changed in the last 10 years?",
		}},
		{Name: "hypothetical", Templates: []string{
			"If you could meet any person from history, who would it be and what would you ask them?",
			"What would you do if you won a million dollars?",
			"If you could have any superpower, what would it be and how would you use it?",
		}},
	},
	assessment.LevelB2: {
		{Name: "analytical", Templates: []string{
			"Analyze the impact of globalization on local cultures. What are the benefits and drawbacks?",
			"Compare the education system in your country with other countries you know about.",
			"Discuss the role of artificial intelligence in modern society. What opportunities and risks do you see?",
		}},
		{Name: "argumentative", Templates: []string{
			"Some people believe that social media should be regulated by governments. What is your position on this issue?",
			"Argue for or against the statement: 'Money is the most important factor in job satisfaction.'",
			"Should countries prioritize economic growth or environmental protection? Defend your viewpoint.",
		}},
		{Name: "complex_narrative", Templates: []string{
			"Describe a situation where you had to adapt to a completely new environment. What challenges did you face and how did you overcome them?",
			"Tell me about a time when your opinion about something important changed. What caused this change?",
			"Explain a complex process or system that you understand well to someone who knows nothing about it.",
		}},
	},
}

// Validate checks that every probed level has at least one category and
// every category at least one template.
func (b Bank) Validate() error {
	for _, lvl := range probedLevels {
		cats := b[lvl]
		if len(cats) == 0 {
			return fmt.Errorf("question bank: level %s has no categories", lvl)
		}
		for _, c := range cats {
			if c.Name == "" {
				return fmt.Errorf("question bank: level %s has an unnamed category", lvl)
			}
			if len(c.Templates) == 0 {
				return fmt.Errorf("question bank: %s/%s has no templates", lvl, c.Name)
			}
		}
	}
	for lvl := range b {
		if !isProbed(lvl) {
			return fmt.Errorf("question bank: level %q cannot carry questions", lvl)
		}
	}
	return nil
}

func isProbed(l assessment.Level) bool {
	for _, p := range probedLevels {
		if p == l {
			return true
		}
	}
	return false
}

// bankFile is the on-disk YAML layout:
//
//	levels:
//	  A1:
//	    - name: introduction
//	      templates: ["...", "..."]
type bankFile struct {
	Levels map[string][]Category `yaml:"levels"`
}

// Parse decodes a YAML catalog and validates it.
func Parse(data []byte) (Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	b := make(Bank, len(f.Levels))
	for k, cats := range f.Levels {
		lvl, err := assessment.ParseLevel(k)
		if err != nil {
			return nil, fmt.Errorf("question bank: %w", err)
		}
		b[lvl] = cats
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Load reads a YAML catalog from path.
func Load(path string) (Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}
