// internal/learning/business.go
package learning

import (
	"sync"

	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/detection"
	"github.com/watchgrid/cortex/internal/patterns"
)

// Classification thresholds: an estimate needs this many total
// observations and a leading score of at least minLeadScore; confidence
// saturates at score/confidenceDivisor.
const (
	minLeadScore      = 2.0
	confidenceDivisor = 5.0
)

// businessIndicators maps business types to characteristic object labels.
// Order matters: equal scores resolve to the type listed first.
var businessIndicators = []struct {
	Type       string
	Indicators []string
}{
	{"retail_store", []string{"shelf", "cart", "handbag", "backpack", "register"}},
	{"grocery", []string{"shelf", "cart", "basket", "refrigerator", "banana", "apple"}},
	{"restaurant", []string{"dining table", "chair", "cup", "bowl", "fork", "knife"}},
	{"cafe", []string{"cup", "chair", "laptop", "dining table"}},
	{"office", []string{"desk", "laptop", "keyboard", "monitor", "chair"}},
	{"bank", []string{"counter", "desk", "chair"}},
	{"warehouse", []string{"box", "forklift", "pallet", "shelf"}},
}

// BusinessProfile is the static operational lookup per business type.
type BusinessProfile struct {
	PrimaryFocus    string   `json:"primary_focus"`
	AlertPriorities []string `json:"alert_priorities"`
	KeyMetrics      []string `json:"key_metrics"`
}

var businessProfiles = map[string]BusinessProfile{
	"retail_store": {
		PrimaryFocus:    "customer flow and checkout efficiency",
		AlertPriorities: []string{"queue_formation", "crowd_gathering", "hazard"},
		KeyMetrics:      []string{"queue_length", "dwell_time", "conversion"},
	},
	"grocery": {
		PrimaryFocus:    "checkout throughput and shelf availability",
		AlertPriorities: []string{"queue_formation", "hazard"},
		KeyMetrics:      []string{"queue_length", "restock_rate"},
	},
	"restaurant": {
		PrimaryFocus:    "table turnover and service speed",
		AlertPriorities: []string{"service_interaction", "crowd_gathering"},
		KeyMetrics:      []string{"wait_time", "table_occupancy"},
	},
	"cafe": {
		PrimaryFocus:    "counter throughput and seating occupancy",
		AlertPriorities: []string{"queue_formation", "service_interaction"},
		KeyMetrics:      []string{"queue_length", "seat_occupancy"},
	},
	"office": {
		PrimaryFocus:    "space utilization",
		AlertPriorities: []string{"crowd_gathering", "hazard"},
		KeyMetrics:      []string{"occupancy", "meeting_room_usage"},
	},
	"bank": {
		PrimaryFocus:    "teller queue management",
		AlertPriorities: []string{"queue_formation", "hazard"},
		KeyMetrics:      []string{"queue_length", "wait_time"},
	},
	"warehouse": {
		PrimaryFocus:    "safety and movement efficiency",
		AlertPriorities: []string{"hazard", "rapid_movement"},
		KeyMetrics:      []string{"incident_rate", "throughput"},
	},
}

// Estimate is the current business-type guess.
type Estimate struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Score      float64 `json:"score"`
}

// BusinessClassifier accumulates indicator-object evidence across the
// session. The estimate can change as evidence accumulates but never
// regresses to unknown once set, except via Reset.
type BusinessClassifier struct {
	mu           sync.RWMutex
	logger       *zap.Logger
	minEvents    int
	scores       map[string]float64
	observations int
	current      Estimate
}

// NewBusinessClassifier creates a classifier
func NewBusinessClassifier(minEvents int, logger *zap.Logger) *BusinessClassifier {
	if minEvents <= 0 {
		minEvents = 10
	}
	return &BusinessClassifier{
		logger:    logger,
		minEvents: minEvents,
		scores:    make(map[string]float64),
	}
}

// Observe accumulates indicator evidence from one detection.
func (b *BusinessClassifier) Observe(d detection.DetectionData, objects []patterns.ObjectEntry) {
	present := make(map[string]bool, len(d.ObjectCounts)+len(objects))
	for label, count := range d.ObjectCounts {
		if count > 0 {
			present[label] = true
		}
	}
	for _, o := range objects {
		present[o.Type] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.observations++
	for _, entry := range businessIndicators {
		for _, indicator := range entry.Indicators {
			if present[indicator] {
				b.scores[entry.Type]++
			}
		}
	}

	b.refresh()
}

// refresh recomputes the current estimate. Caller holds the lock.
func (b *BusinessClassifier) refresh() {
	if b.observations <= b.minEvents {
		return
	}

	best := ""
	bestScore := 0.0
	for _, entry := range businessIndicators {
		if s := b.scores[entry.Type]; s > bestScore {
			best = entry.Type
			bestScore = s
		}
	}

	if best == "" || bestScore < minLeadScore {
		return
	}

	confidence := bestScore / confidenceDivisor
	if confidence > 1 {
		confidence = 1
	}

	if b.current.Type != best && b.logger != nil {
		b.logger.Info("business type estimate updated",
			zap.String("type", best),
			zap.Float64("score", bestScore),
			zap.Float64("confidence", confidence))
	}

	b.current = Estimate{Type: best, Confidence: confidence, Score: bestScore}
}

// Current returns the present estimate; the zero Estimate means unknown.
func (b *BusinessClassifier) Current() Estimate {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Profile returns the static operational profile for the current
// estimate, and false while the type is unknown.
func (b *BusinessClassifier) Profile() (BusinessProfile, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := businessProfiles[b.current.Type]
	return p, ok
}

// Reset clears all accumulated evidence and the current estimate.
func (b *BusinessClassifier) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.scores = make(map[string]float64)
	b.observations = 0
	b.current = Estimate{}
}
