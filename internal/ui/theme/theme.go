// Package theme holds the colors and styles of the levelcheck console output.
package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/levelcheck/internal/assessment"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Warning   = lipgloss.Color("#EAB308") // Amber
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(12)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)

	QuestionCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 2)
)

// States
var (
	Ok = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Failed = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Degraded = lipgloss.NewStyle().
			Foreground(Warning)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)

// Level renders a CEFR code as a colored badge: A levels teal, B levels
// purple, C levels orange.
func Level(l assessment.Level) string {
	bg := Secondary
	switch l {
	case assessment.LevelB1, assessment.LevelB2:
		bg = Primary
	case assessment.LevelC1, assessment.LevelC2:
		bg = Accent
	}
	if !l.Valid() {
		bg = Border
	}
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(Text).
		Bold(true).
		Padding(0, 1).
		Render(string(l))
}

// Status renders a session status.
func Status(s assessment.Status) string {
	switch s {
	case assessment.StatusActive:
		return lipgloss.NewStyle().Foreground(Secondary).Render(string(s))
	case assessment.StatusCompleted:
		return Ok.Render(string(s))
	case assessment.StatusCancelled:
		return Subtitle.Render(string(s))
	default:
		return Degraded.Render(string(s))
	}
}
