package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEvaluate_InsufficientHistory(t *testing.T) {
	s := NewStore(100, 10, zap.NewNop())
	for i := 0; i < 9; i++ {
		s.Append(contextWith("browsing", 0.3, 0.2))
	}

	ctx := contextWith("rapid_movement", 0.95, 0.95)
	a := s.Evaluate(&ctx)

	// Below the minimum history everything reads as typical.
	assert.True(t, a.IsTypical)
	assert.Zero(t, a.AnomalyScore)
	assert.Empty(t, a.Significant)
}

func TestEvaluate_TypicalContext(t *testing.T) {
	s := NewStore(100, 10, zap.NewNop())
	for i := 0; i < 20; i++ {
		s.Append(contextWith("browsing", 0.3, 0.2))
	}

	ctx := contextWith("browsing", 0.3, 0.2)
	a := s.Evaluate(&ctx)

	assert.True(t, a.IsTypical)
	assert.InDelta(t, 0.0, a.AnomalyScore, 1e-9)
}

func TestEvaluate_DensitySpike(t *testing.T) {
	s := NewStore(100, 10, zap.NewNop())
	for i := 0; i < 20; i++ {
		s.Append(contextWith("browsing", 0.3, 0.0))
	}

	t.Run("same activity, extreme density", func(t *testing.T) {
		ctx := contextWith("browsing", 1.0, 0.0)
		a := s.Evaluate(&ctx)

		// The density deviation clamps to 1.0 and is the only computable
		// signal, so the score saturates.
		assert.Equal(t, 1.0, a.AnomalyScore)
		assert.True(t, a.IsTypical)
		assert.Contains(t, a.Significant, "density")
	})

	t.Run("unseen activity, extreme density", func(t *testing.T) {
		ctx := contextWith("rapid_movement", 1.0, 0.0)
		a := s.Evaluate(&ctx)

		assert.False(t, a.IsTypical)
		// Clamped density deviation 1.0 averaged with the unseen-activity
		// penalty 0.5.
		assert.InDelta(t, 0.75, a.AnomalyScore, 1e-9)
		assert.Contains(t, a.Significant, "density")
		assert.NotContains(t, a.Significant, "unseen_activity")
	})
}

func TestEvaluate_MinorityActivityStillTypical(t *testing.T) {
	s := NewStore(100, 10, zap.NewNop())
	// 3 of 20 is above the 10% same-activity cutoff.
	for i := 0; i < 17; i++ {
		s.Append(contextWith("browsing", 0.3, 0.2))
	}
	for i := 0; i < 3; i++ {
		s.Append(contextWith("queue_formation", 0.3, 0.2))
	}

	ctx := contextWith("queue_formation", 0.3, 0.2)
	a := s.Evaluate(&ctx)
	assert.True(t, a.IsTypical)

	// Exactly 10% does not clear the strict cutoff.
	s2 := NewStore(100, 10, zap.NewNop())
	for i := 0; i < 18; i++ {
		s2.Append(contextWith("browsing", 0.3, 0.2))
	}
	for i := 0; i < 2; i++ {
		s2.Append(contextWith("queue_formation", 0.3, 0.2))
	}
	ctx2 := contextWith("queue_formation", 0.3, 0.2)
	assert.False(t, s2.Evaluate(&ctx2).IsTypical)
}

func TestEvaluate_ZeroMeanSignalsExcluded(t *testing.T) {
	s := NewStore(100, 10, zap.NewNop())
	for i := 0; i < 12; i++ {
		s.Append(contextWith("empty_area", 0.0, 0.0))
	}

	ctx := contextWith("empty_area", 0.4, 0.0)
	a := s.Evaluate(&ctx)

	// Both means are zero, so neither deviation is computable and the
	// score defaults to zero rather than dividing by zero.
	assert.Zero(t, a.AnomalyScore)
	assert.True(t, a.IsTypical)
}
