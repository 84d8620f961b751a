// internal/events/types.go
package events

import (
	"time"
)

// Urgency classes, ordered from least to most urgent.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// StructuredKind tags the analysis payload variant.
type StructuredKind string

const (
	KindQueueMetrics     StructuredKind = "queue_metrics"
	KindInventoryStatus  StructuredKind = "inventory_status"
	KindSafetyAssessment StructuredKind = "safety_assessment"
	KindGeneric          StructuredKind = "generic"
	KindRaw              StructuredKind = "raw"
)

// QueueMetrics is the structured shape for queue and crowd analyses.
type QueueMetrics struct {
	PeopleCount          int     `json:"people_count"`
	QueueFormation       string  `json:"queue_formation"`
	EstimatedWaitMinutes float64 `json:"estimated_wait_minutes"`
	CrowdDensity         string  `json:"crowd_density"`
	StaffNeeded          bool    `json:"staff_needed"`
	Description          string  `json:"description"`
}

// InventoryStatus is the structured shape for inventory analyses.
type InventoryStatus struct {
	ProductsVisible     int     `json:"products_visible"`
	ShelfCapacityUsed   float64 `json:"shelf_capacity_used"`
	RestockingNeeded    bool    `json:"restocking_needed"`
	EmptySpots          int     `json:"empty_spots"`
	OrganizationQuality string  `json:"organization_quality"`
	Description         string  `json:"description"`
}

// SafetyAssessment is the structured shape for safety analyses.
type SafetyAssessment struct {
	HazardDetected          bool   `json:"hazard_detected"`
	HazardType              string `json:"hazard_type"`
	ImmediateActionRequired bool   `json:"immediate_action_required"`
	AffectedArea            string `json:"affected_area"`
	Severity                string `json:"severity"`
	Description             string `json:"description"`
}

// StructuredData is a tagged union over the known analysis shapes plus a
// raw variant for deep-analysis text that fails structured parsing. At
// most one variant matching Kind is set.
type StructuredData struct {
	Kind      StructuredKind         `json:"kind"`
	Queue     *QueueMetrics          `json:"queue,omitempty"`
	Inventory *InventoryStatus       `json:"inventory,omitempty"`
	Safety    *SafetyAssessment      `json:"safety,omitempty"`
	Generic   map[string]interface{} `json:"generic,omitempty"`
	Raw       string                 `json:"raw,omitempty"`
}

// AnalysisPayload carries the human-facing analysis of an event.
type AnalysisPayload struct {
	Description     string         `json:"description"`
	Data            StructuredData `json:"data"`
	Recommendations []string       `json:"recommendations"`
	Urgency         Urgency        `json:"urgency"`
}

// LearningMeta attributes an event's outcome back to the pattern catalog.
type LearningMeta struct {
	PatternReinforced bool    `json:"pattern_reinforced"`
	PatternID         string  `json:"pattern_id,omitempty"`
	Feedback          float64 `json:"feedback"`
}

// AutonomousEvent is one emitted scene event. Immutable once finalized;
// the scheduler may replace an in-flight event with an enhanced copy
// after deep analysis completes.
type AutonomousEvent struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	DetectedContext string          `json:"detected_context"`
	Location        string          `json:"location"`
	BusinessType    string          `json:"business_type,omitempty"`
	TriggerPattern  string          `json:"trigger_pattern,omitempty"`
	Confidence      float64         `json:"confidence"`
	IsAnomaly       bool            `json:"is_anomaly"`
	Analysis        AnalysisPayload `json:"analysis"`
	Learning        LearningMeta    `json:"learning"`
	CameraID        string          `json:"camera_id"`
}
