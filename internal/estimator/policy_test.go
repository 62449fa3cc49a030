package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldContinue(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		scores []float64
		want   bool
	}{
		{"below minimum always continues", []float64{0.5, 0.5, 0.5, 0.5}, true},
		{"converged scores stop early", []float64{0.2, 0.9, 0.5, 0.52, 0.48}, false},
		{"scattered scores continue", []float64{0.5, 0.5, 0.1, 0.9, 0.3}, true},
		{"maximum reached stops", []float64{0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9}, false},
		{"between bounds with high variance continues", []float64{0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0.1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ShouldContinue(uniform(tt.scores...)))
		})
	}
}

func TestShouldContinueNonAdaptive(t *testing.T) {
	p := DefaultPolicy()
	p.Adaptive = false

	assert.True(t, p.ShouldContinue(uniform(0.5, 0.5, 0.5, 0.5, 0.5)))
	assert.False(t, p.ShouldContinue(uniform(0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5)))
}

func TestRecentVariance(t *testing.T) {
	assert.InDelta(t, 0.0, RecentVariance(uniform(0.4, 0.4, 0.4), 3), 1e-12)
	// {0.1, 0.9, 0.3}: mean 13/30, population variance 0.11556.
	assert.InDelta(t, 0.115556, RecentVariance(uniform(0.7, 0.1, 0.9, 0.3), 3), 1e-5)
	assert.Zero(t, RecentVariance(nil, 3))
}
