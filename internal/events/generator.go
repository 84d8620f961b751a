// internal/events/generator.go
package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/learning"
	"github.com/watchgrid/cortex/internal/patterns"
)

// Thresholds for the steady-state gate and anomaly flags.
const (
	steadyConfidenceGate = 0.5
	steadyAnomalyGate    = 0.5
	learningAnomalyFlag  = 0.3
	steadyAnomalyFlag    = 0.5
	criticalAnomaly      = 0.8
	criticalMotion       = 0.9
	highQueueDensity     = 0.7
	investigateAnomaly   = 0.7
	safetyCheckMotion    = 0.8
)

// GenerateInput carries everything the generator needs for one decision.
type GenerateInput struct {
	Context      patterns.SceneContext
	Assessment   learning.Assessment
	Elapsed      time.Duration // observation time since monitoring start
	BusinessType string
	CameraID     string
	Reinforced   bool // whether this context reinforced a pattern
}

// Generator decides whether a scene context becomes an AutonomousEvent.
// It is a two-state machine: LearningPhase for the first observation
// window, SteadyState afterwards. The transition is time-driven and
// monotonic.
type Generator struct {
	learningWindow time.Duration
	logger         *zap.Logger
}

// NewGenerator creates a generator with the given learning-phase window
func NewGenerator(learningWindow time.Duration, logger *zap.Logger) *Generator {
	if learningWindow <= 0 {
		learningWindow = time.Hour
	}
	return &Generator{learningWindow: learningWindow, logger: logger}
}

// InLearningPhase reports whether the given elapsed observation time is
// still inside the learning window.
func (g *Generator) InLearningPhase(elapsed time.Duration) bool {
	return elapsed < g.learningWindow
}

// Generate produces an event for the context, or nil when the steady-state
// gate rejects it. In the learning phase every context yields an event so
// system behavior surfaces during onboarding.
func (g *Generator) Generate(in GenerateInput) *AutonomousEvent {
	c := in.Context

	if g.InLearningPhase(in.Elapsed) {
		return g.learningEvent(in)
	}

	if c.Confidence < steadyConfidenceGate && in.Assessment.AnomalyScore < steadyAnomalyGate {
		return nil
	}

	ev := g.baseEvent(in)
	ev.IsAnomaly = in.Assessment.AnomalyScore >= steadyAnomalyFlag
	ev.Analysis.Urgency = steadyUrgency(c, in.Assessment)
	ev.Analysis.Description = describeContext(c, in.BusinessType)
	ev.Analysis.Recommendations = recommend(c, in.Assessment)
	ev.Analysis.Data = StructuredData{
		Kind: KindGeneric,
		Generic: map[string]interface{}{
			"activity":      c.PrimaryActivity,
			"crowd_density": c.CrowdDensity,
			"motion":        c.MotionIntensity,
			"anomaly_score": in.Assessment.AnomalyScore,
		},
	}
	return ev
}

func (g *Generator) learningEvent(in GenerateInput) *AutonomousEvent {
	c := in.Context

	ev := g.baseEvent(in)
	ev.IsAnomaly = in.Assessment.AnomalyScore >= learningAnomalyFlag
	ev.Analysis.Urgency = UrgencyLow
	ev.Analysis.Description = fmt.Sprintf(
		"Learning phase observation: %s with %d interaction point(s). Building behavioral baseline.",
		c.PrimaryActivity, len(c.InteractionPoints))
	ev.Analysis.Recommendations = []string{
		"No action needed; the system is building its baseline",
	}
	ev.Analysis.Data = StructuredData{
		Kind: KindGeneric,
		Generic: map[string]interface{}{
			"learning_phase": true,
			"activity":       c.PrimaryActivity,
			"crowd_density":  c.CrowdDensity,
			"motion":         c.MotionIntensity,
		},
	}
	return ev
}

func (g *Generator) baseEvent(in GenerateInput) *AutonomousEvent {
	c := in.Context
	location := "scene"
	if len(c.InteractionPoints) > 0 {
		location = c.InteractionPoints[0].Location
	}

	return &AutonomousEvent{
		ID:              uuid.New().String(),
		Timestamp:       c.Timestamp,
		DetectedContext: c.PrimaryActivity,
		Location:        location,
		BusinessType:    in.BusinessType,
		TriggerPattern:  c.MatchedPattern,
		Confidence:      c.Confidence,
		CameraID:        in.CameraID,
		Learning: LearningMeta{
			PatternReinforced: in.Reinforced,
			PatternID:         c.MatchedPattern,
			Feedback:          c.Confidence,
		},
	}
}

// steadyUrgency applies the fixed urgency rules: critical on extreme
// anomaly or motion, high for a dense matched queue, medium on moderate
// anomaly, low otherwise.
func steadyUrgency(c patterns.SceneContext, a learning.Assessment) Urgency {
	switch {
	case a.AnomalyScore > criticalAnomaly || c.MotionIntensity > criticalMotion:
		return UrgencyCritical
	case c.MatchedPattern == "queue_formation" && c.CrowdDensity > highQueueDensity:
		return UrgencyHigh
	case a.AnomalyScore > steadyAnomalyFlag:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func describeContext(c patterns.SceneContext, businessType string) string {
	venue := "the monitored area"
	if businessType != "" {
		venue = "the " + businessType
	}
	desc := fmt.Sprintf("Detected %s in %s (density %.2f, motion %.2f).",
		c.PrimaryActivity, venue, c.CrowdDensity, c.MotionIntensity)
	if c.MatchedPattern != "" {
		desc += fmt.Sprintf(" Matched pattern %q with score %.2f.", c.MatchedPattern, c.MatchScore)
	}
	return desc
}

func recommend(c patterns.SceneContext, a learning.Assessment) []string {
	var recs []string

	if c.MatchedPattern == "queue_formation" && c.CrowdDensity > highQueueDensity {
		recs = append(recs, "Consider opening another service point to reduce the queue")
	}
	if a.AnomalyScore > investigateAnomaly {
		recs = append(recs, "Unusual activity detected; investigate the area")
	}
	if c.MotionIntensity > safetyCheckMotion {
		recs = append(recs, "High motion detected; perform a safety check")
	}
	if len(recs) == 0 {
		recs = append(recs, "Continue monitoring")
	}

	return recs
}
