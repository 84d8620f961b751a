// internal/patterns/matcher.go
package patterns

import (
	"time"

	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/detection"
)

// People thresholds for queue inference. The learning-phase threshold is
// lower so queue events surface during onboarding.
const (
	queuePeopleSteady   = 4
	queuePeopleLearning = 3
)

// Motion-intensity breakpoints for bucket classification.
const (
	motionStaticMax = 0.1
	motionSlowMax   = 0.4
	motionNormalMax = 0.7
)

// Crowd-density breakpoints for the people-arrangement label.
const (
	densityGroupedMin = 0.3
	densityCrowdedMin = 0.6
	densityDenseMin   = 0.8
)

// Matcher builds scene contexts from detection records and scores them
// against the catalog.
type Matcher struct {
	catalog   *Catalog
	threshold float64
	logger    *zap.Logger
}

// NewMatcher creates a matcher over the given catalog
func NewMatcher(catalog *Catalog, threshold float64, logger *zap.Logger) *Matcher {
	if threshold <= 0 {
		threshold = 0.5
	}
	return &Matcher{catalog: catalog, threshold: threshold, logger: logger}
}

// BuildContext derives a SceneContext from one detection record.
func (m *Matcher) BuildContext(data detection.DetectionData, learningPhase bool, at time.Time) SceneContext {
	return SceneContext{
		Timestamp:         at,
		PrimaryActivity:   inferActivity(data, learningPhase),
		Objects:           extractObjects(data),
		CrowdDensity:      data.CrowdDensity,
		MotionIntensity:   data.MotionIntensity,
		InteractionPoints: inferInteractionPoints(data),
		Confidence:        0.5,
	}
}

// inferActivity is a prioritized rule cascade, not a single score. Queue
// conditions are checked first, then single-person states, then the
// crowd/browsing/service/rapid/empty states, with a generic fallback.
func inferActivity(d detection.DetectionData, learningPhase bool) string {
	queueThreshold := queuePeopleSteady
	if learningPhase {
		queueThreshold = queuePeopleLearning
	}

	switch {
	case d.PersonCount >= queueThreshold && d.MotionIntensity < 0.3 && d.CrowdDensity > 0.3:
		return ActivityQueueFormation
	case d.PersonCount == 1:
		return ActivityIndividual
	case d.PersonCount >= 6 || d.CrowdDensity > 0.7:
		return ActivityCrowdGathering
	case d.PersonCount >= 2 && hasAnyLabel(d, "shelf", "rack", "display"):
		return ActivityBrowsing
	case d.PersonCount >= 2 && hasAnyLabel(d, "counter", "register", "desk"):
		return ActivityServiceInteraction
	case d.MotionIntensity > 0.8:
		return ActivityRapidMovement
	case d.PersonCount == 0:
		return ActivityEmptyArea
	default:
		return ActivityGeneral
	}
}

// extractObjects converts label counts into structured entries. People get
// a density-based arrangement; everything else a count-based one.
func extractObjects(d detection.DetectionData) []ObjectEntry {
	if len(d.ObjectCounts) == 0 {
		return nil
	}

	entries := make([]ObjectEntry, 0, len(d.ObjectCounts))
	for label, count := range d.ObjectCounts {
		if count == 0 {
			continue
		}
		arrangement := countArrangement(count)
		if label == "person" {
			arrangement = peopleArrangement(d.CrowdDensity)
		}
		entries = append(entries, ObjectEntry{
			Type:        label,
			Count:       count,
			Arrangement: arrangement,
		})
	}
	return entries
}

func countArrangement(count int) string {
	switch {
	case count == 1:
		return "single"
	case count <= 3:
		return "few"
	default:
		return "many"
	}
}

func peopleArrangement(density float64) string {
	switch {
	case density >= densityDenseMin:
		return "dense"
	case density >= densityCrowdedMin:
		return "crowded"
	case density >= densityGroupedMin:
		return "grouped"
	default:
		return "scattered"
	}
}

// inferInteractionPoints derives points of interest from label
// co-occurrence heuristics.
func inferInteractionPoints(d detection.DetectionData) []InteractionPoint {
	var points []InteractionPoint

	if hasAnyLabel(d, "register", "counter", "cash register") {
		points = append(points, InteractionPoint{
			Location: "counter_area",
			Type:     "transaction_point",
		})
	}
	if hasAnyLabel(d, "desk") && d.PersonCount >= 2 {
		points = append(points, InteractionPoint{
			Location: "desk_area",
			Type:     "consultation_point",
		})
	}
	if d.PersonCount >= 3 && d.CrowdDensity > 0.4 {
		points = append(points, InteractionPoint{
			Location: "queue_area",
			Type:     "queue_point",
		})
	}

	return points
}

func hasAnyLabel(d detection.DetectionData, labels ...string) bool {
	for _, l := range labels {
		if d.ObjectCounts[l] > 0 {
			return true
		}
	}
	return false
}

// MotionBucket maps a motion intensity into its qualitative bucket.
func MotionBucket(intensity float64) string {
	switch {
	case intensity <= motionStaticMax:
		return MotionStatic
	case intensity <= motionSlowMax:
		return MotionSlow
	case intensity <= motionNormalMax:
		return MotionNormal
	default:
		return MotionFast
	}
}

// Match scores every catalog pattern against the context and stamps the
// best match above the threshold onto it. The score for a pattern is the
// per-condition match rate averaged over only the conditions that pattern
// defines; ties go to the pattern defined first. Returns the matched
// pattern id, or "" when nothing clears the threshold.
func (m *Matcher) Match(ctx *SceneContext, d detection.DetectionData) string {
	best := ""
	bestScore := 0.0

	for _, p := range m.catalog.All() {
		score := scorePattern(p.Conditions, ctx, d)
		if score > bestScore && score >= m.threshold {
			best = p.ID
			bestScore = score
		}
	}

	if best != "" {
		ctx.MatchedPattern = best
		ctx.MatchScore = bestScore
		ctx.Confidence = bestScore
		if m.logger != nil {
			m.logger.Debug("pattern matched",
				zap.String("pattern", best),
				zap.Float64("score", bestScore),
				zap.String("activity", ctx.PrimaryActivity))
		}
	}

	return best
}

// scorePattern averages condition satisfaction over the conditions the
// pattern actually defines. A pattern with fewer conditions can therefore
// outscore a fuller one; that permissive behavior is intentional and
// covered by tests.
func scorePattern(c Conditions, ctx *SceneContext, d detection.DetectionData) float64 {
	defined := 0
	total := 0.0

	if c.MinPeople != nil {
		defined++
		if d.PersonCount >= *c.MinPeople && (c.MaxPeople == nil || d.PersonCount <= *c.MaxPeople) {
			total += 1.0
		}
	}
	if c.Motion != "" {
		defined++
		if MotionBucket(d.MotionIntensity) == c.Motion {
			total += 1.0
		}
	}
	if len(c.RequiredObjects) > 0 {
		defined++
		if hasAnyLabel(d, c.RequiredObjects...) {
			total += 1.0
		}
	}
	if c.Arrangement != "" {
		defined++
		if arrangementMatches(c.Arrangement, ctx) {
			total += 0.5
		}
	}

	if defined == 0 {
		return 0
	}
	return total / float64(defined)
}

// arrangementMatches compares a pattern arrangement against the context's
// people arrangement. A line reads as grouped-or-denser people; a cluster
// as crowded-or-denser; scattered and grid compare directly.
func arrangementMatches(want string, ctx *SceneContext) bool {
	people := ""
	for _, o := range ctx.Objects {
		if o.Type == "person" {
			people = o.Arrangement
			break
		}
	}
	if people == "" && ctx.CrowdDensity > 0 {
		people = peopleArrangement(ctx.CrowdDensity)
	}

	switch want {
	case ArrangementLine:
		return people == "grouped" || people == "crowded"
	case ArrangementCluster:
		return people == "crowded" || people == "dense"
	case ArrangementScattered:
		return people == "scattered"
	default:
		return false
	}
}
