package questionbank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/levelcheck/internal/assessment"
)

const customBank = `
levels:
  a1:
    - name: greetings
      templates:
        - "Say hello."
  A2:
    - name: routine
      templates:
        - "What do you do on Mondays?"
        - "What do you do on Fridays?"
  B1:
    - name: travel
      templates: ["Describe a trip that went wrong."]
  B2:
    - name: debate
      templates: ["Should cities ban cars?"]
`

func TestParse(t *testing.T) {
	b, err := Parse([]byte(customBank))
	require.NoError(t, err)

	require.Len(t, b[assessment.LevelA1], 1)
	assert.Equal(t, "greetings", b[assessment.LevelA1][0].Name)

	s, err := NewSelector(b)
	require.NoError(t, err)
	p, err := assessment.NewLanguagePair("TR", "EN")
	require.NoError(t, err)

	q := s.Select(assessment.LevelA2, 1, p)
	assert.Equal(t, "A2_routine_1", q.ID)
	assert.Equal(t, "What do you do on Fridays?", q.Content)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "levels: [unclosed"},
		{"missing level", `
levels:
  A1: [{name: a, templates: [x]}]
  A2: [{name: a, templates: [x]}]
  B1: [{name: a, templates: [x]}]
`},
		{"empty templates", `
levels:
  A1: [{name: a, templates: [x]}]
  A2: [{name: a, templates: []}]
  B1: [{name: a, templates: [x]}]
  B2: [{name: a, templates: [x]}]
`},
		{"unprobed level", `
levels:
  A1: [{name: a, templates: [x]}]
  A2: [{name: a, templates: [x]}]
  B1: [{name: a, templates: [x]}]
  B2: [{name: a, templates: [x]}]
  C1: [{name: a, templates: [x]}]
`},
		{"bad level", `
levels:
  X1: [{name: a, templates: [x]}]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customBank), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, b, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
