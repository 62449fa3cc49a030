package assessment

import (
	"fmt"
	"strings"
)

// Level is a CEFR proficiency band.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// BaselineLevel is the neutral prior used before any evidence exists.
const BaselineLevel = LevelA2

// Levels lists the CEFR bands in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Valid reports whether l is one of the six canonical codes.
func (l Level) Valid() bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2:
		return true
	}
	return false
}

func (l Level) String() string { return string(l) }

// ParseLevel normalizes s and returns the matching level.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("invalid CEFR level %q", s)
	}
	return l, nil
}
