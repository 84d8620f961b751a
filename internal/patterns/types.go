// internal/patterns/types.go
package patterns

import "time"

// Motion buckets
const (
	MotionStatic = "static"
	MotionSlow   = "slow"
	MotionNormal = "normal"
	MotionFast   = "fast"
)

// Spatial arrangements used by pattern conditions
const (
	ArrangementLine      = "line"
	ArrangementCluster   = "cluster"
	ArrangementScattered = "scattered"
	ArrangementGrid      = "grid"
)

// Primary activity labels produced by the context builder.
const (
	ActivityQueueFormation     = "queue_formation"
	ActivityIndividual         = "individual_activity"
	ActivityCrowdGathering     = "crowd_gathering"
	ActivityBrowsing           = "browsing"
	ActivityServiceInteraction = "service_interaction"
	ActivityRapidMovement      = "rapid_movement"
	ActivityEmptyArea          = "empty_area"
	ActivityGeneral            = "general_activity"
)

// Conditions is a pattern's matchable condition set. Nil pointer and
// empty-string fields are undefined and excluded from scoring.
type Conditions struct {
	MinPeople       *int
	MaxPeople       *int
	RequiredObjects []string
	Motion          string
	MinDuration     time.Duration
	Arrangement     string
}

// DefinedCount returns the number of scoreable conditions.
func (c Conditions) DefinedCount() int {
	n := 0
	if c.MinPeople != nil {
		n++
	}
	if c.Motion != "" {
		n++
	}
	if len(c.RequiredObjects) > 0 {
		n++
	}
	if c.Arrangement != "" {
		n++
	}
	return n
}

// Pattern is a named behavioral template plus its learned statistics.
// Confidence only moves up under reinforcement, capped at 1.0.
type Pattern struct {
	ID            string
	Name          string
	Conditions    Conditions
	Confidence    float64
	Occurrences   int
	FirstSeen     time.Time
	LastSeen      time.Time
	BusinessTypes []string
}

// ObjectEntry summarizes one detected object class.
type ObjectEntry struct {
	Type        string `json:"type"`
	Count       int    `json:"count"`
	Arrangement string `json:"arrangement"`
}

// InteractionPoint is an inferred location of interest.
type InteractionPoint struct {
	Location string `json:"location"`
	Type     string `json:"type"`
}

// SceneContext is one frame's derived semantic summary. It is created
// fresh per detection and read-only once appended to history.
type SceneContext struct {
	Timestamp         time.Time          `json:"timestamp"`
	PrimaryActivity   string             `json:"primary_activity"`
	Objects           []ObjectEntry      `json:"objects"`
	CrowdDensity      float64            `json:"crowd_density"`
	MotionIntensity   float64            `json:"motion_intensity"`
	InteractionPoints []InteractionPoint `json:"interaction_points"`
	MatchedPattern    string             `json:"matched_pattern,omitempty"`
	MatchScore        float64            `json:"match_score,omitempty"`
	Confidence        float64            `json:"confidence"`
	IsTypical         bool               `json:"is_typical"`
	AnomalyScore      float64            `json:"anomaly_score"`
}

func intPtr(v int) *int { return &v }
