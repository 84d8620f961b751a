// internal/learning/anomaly.go
package learning

import "github.com/watchgrid/cortex/internal/patterns"

// Penalty added when the activity label has never been seen in history.
const unseenActivityPenalty = 0.5

// Deviations above this value count as significant for urgency decisions.
const significantDeviation = 0.5

// Assessment is the typicality verdict for one context.
type Assessment struct {
	IsTypical    bool
	AnomalyScore float64
	// Significant lists the deviation signals exceeding the significance
	// threshold: "density", "motion", "unseen_activity".
	Significant []string
}

// Evaluate compares a context against the rolling history. With fewer than
// the minimum history entries every context is typical with a zero score:
// insufficient evidence is a defined default, not an error.
func (s *Store) Evaluate(ctx *patterns.SceneContext) Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) < s.minHistory {
		return Assessment{IsTypical: true}
	}

	var (
		densitySum   float64
		motionSum    float64
		sameCount    int
		seenActivity bool
	)
	for _, h := range s.history {
		densitySum += h.CrowdDensity
		motionSum += h.MotionIntensity
		if h.PrimaryActivity == ctx.PrimaryActivity {
			sameCount++
			seenActivity = true
		}
	}

	n := float64(len(s.history))
	typical := float64(sameCount)/n > 0.10

	var deviations []float64
	var significant []string

	if meanDensity := densitySum / n; meanDensity > 0 {
		dev := clamp01(abs(ctx.CrowdDensity-meanDensity) / meanDensity)
		deviations = append(deviations, dev)
		if dev > significantDeviation {
			significant = append(significant, "density")
		}
	}
	if meanMotion := motionSum / n; meanMotion > 0 {
		dev := clamp01(abs(ctx.MotionIntensity-meanMotion) / meanMotion)
		deviations = append(deviations, dev)
		if dev > significantDeviation {
			significant = append(significant, "motion")
		}
	}
	if !seenActivity {
		deviations = append(deviations, unseenActivityPenalty)
		if unseenActivityPenalty > significantDeviation {
			significant = append(significant, "unseen_activity")
		}
	}

	score := 0.0
	if len(deviations) > 0 {
		for _, d := range deviations {
			score += d
		}
		score /= float64(len(deviations))
	}

	return Assessment{
		IsTypical:    typical,
		AnomalyScore: score,
		Significant:  significant,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
