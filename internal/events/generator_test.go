package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/learning"
	"github.com/watchgrid/cortex/internal/patterns"
)

func baseInput(confidence, anomaly float64, elapsed time.Duration) GenerateInput {
	return GenerateInput{
		Context: patterns.SceneContext{
			Timestamp:       time.Now(),
			PrimaryActivity: "browsing",
			CrowdDensity:    0.3,
			MotionIntensity: 0.2,
			Confidence:      confidence,
		},
		Assessment: learning.Assessment{IsTypical: true, AnomalyScore: anomaly},
		Elapsed:    elapsed,
		CameraID:   "cam-01",
	}
}

func TestGenerator_LearningPhase(t *testing.T) {
	g := NewGenerator(time.Hour, zap.NewNop())

	t.Run("every context yields a low-urgency event", func(t *testing.T) {
		in := baseInput(0.1, 0.0, 30*time.Minute)
		ev := g.Generate(in)
		require.NotNil(t, ev)
		assert.Equal(t, UrgencyLow, ev.Analysis.Urgency)
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, "cam-01", ev.CameraID)
		assert.Equal(t, true, ev.Analysis.Data.Generic["learning_phase"])
	})

	t.Run("anomaly flag uses the lower learning threshold", func(t *testing.T) {
		flagged := g.Generate(baseInput(0.6, 0.35, 30*time.Minute))
		require.NotNil(t, flagged)
		assert.True(t, flagged.IsAnomaly)

		clear := g.Generate(baseInput(0.6, 0.25, 30*time.Minute))
		require.NotNil(t, clear)
		assert.False(t, clear.IsAnomaly)
	})

	t.Run("phase boundary is exclusive", func(t *testing.T) {
		assert.True(t, g.InLearningPhase(time.Hour-time.Nanosecond))
		assert.False(t, g.InLearningPhase(time.Hour))
	})
}

func TestGenerator_SteadyStateGate(t *testing.T) {
	g := NewGenerator(time.Hour, zap.NewNop())

	t.Run("low confidence and low anomaly is suppressed", func(t *testing.T) {
		ev := g.Generate(baseInput(0.4, 0.4, 2*time.Hour))
		assert.Nil(t, ev)
	})

	t.Run("confidence alone passes the gate", func(t *testing.T) {
		ev := g.Generate(baseInput(0.5, 0.0, 2*time.Hour))
		require.NotNil(t, ev)
		assert.False(t, ev.IsAnomaly)
	})

	t.Run("anomaly alone passes the gate", func(t *testing.T) {
		ev := g.Generate(baseInput(0.1, 0.5, 2*time.Hour))
		require.NotNil(t, ev)
		assert.True(t, ev.IsAnomaly)
	})
}

func TestGenerator_SteadyUrgency(t *testing.T) {
	g := NewGenerator(time.Hour, zap.NewNop())

	t.Run("critical on extreme anomaly", func(t *testing.T) {
		ev := g.Generate(baseInput(0.6, 0.81, 2*time.Hour))
		require.NotNil(t, ev)
		assert.Equal(t, UrgencyCritical, ev.Analysis.Urgency)
	})

	t.Run("critical on extreme motion", func(t *testing.T) {
		in := baseInput(0.6, 0.0, 2*time.Hour)
		in.Context.MotionIntensity = 0.95
		ev := g.Generate(in)
		require.NotNil(t, ev)
		assert.Equal(t, UrgencyCritical, ev.Analysis.Urgency)
		assert.Contains(t, ev.Analysis.Recommendations, "High motion detected; perform a safety check")
	})

	t.Run("high for a dense matched queue", func(t *testing.T) {
		in := baseInput(0.8, 0.0, 2*time.Hour)
		in.Context.MatchedPattern = "queue_formation"
		in.Context.CrowdDensity = 0.75
		ev := g.Generate(in)
		require.NotNil(t, ev)
		assert.Equal(t, UrgencyHigh, ev.Analysis.Urgency)
		assert.Contains(t, ev.Analysis.Recommendations,
			"Consider opening another service point to reduce the queue")
	})

	t.Run("medium on moderate anomaly", func(t *testing.T) {
		ev := g.Generate(baseInput(0.6, 0.6, 2*time.Hour))
		require.NotNil(t, ev)
		assert.Equal(t, UrgencyMedium, ev.Analysis.Urgency)
	})

	t.Run("low otherwise with default recommendation", func(t *testing.T) {
		ev := g.Generate(baseInput(0.6, 0.0, 2*time.Hour))
		require.NotNil(t, ev)
		assert.Equal(t, UrgencyLow, ev.Analysis.Urgency)
		assert.Equal(t, []string{"Continue monitoring"}, ev.Analysis.Recommendations)
	})
}

func TestGenerator_EventFields(t *testing.T) {
	g := NewGenerator(time.Hour, zap.NewNop())

	in := baseInput(0.7, 0.0, 2*time.Hour)
	in.BusinessType = "retail_store"
	in.Reinforced = true
	in.Context.MatchedPattern = "browsing"
	in.Context.MatchScore = 0.7
	in.Context.InteractionPoints = []patterns.InteractionPoint{
		{Location: "counter_area", Type: "transaction_point"},
	}

	ev := g.Generate(in)
	require.NotNil(t, ev)
	assert.Equal(t, "counter_area", ev.Location)
	assert.Equal(t, "retail_store", ev.BusinessType)
	assert.Equal(t, "browsing", ev.TriggerPattern)
	assert.True(t, ev.Learning.PatternReinforced)
	assert.Equal(t, 0.7, ev.Learning.Feedback)
	assert.Contains(t, ev.Analysis.Description, "the retail_store")
	assert.Contains(t, ev.Analysis.Description, `pattern "browsing"`)

	// Without interaction points the location defaults to the scene.
	plain := g.Generate(baseInput(0.7, 0.0, 2*time.Hour))
	require.NotNil(t, plain)
	assert.Equal(t, "scene", plain.Location)
}
