// internal/intelligence/reporter.go
package intelligence

import (
	"fmt"
	"time"

	"github.com/watchgrid/cortex/internal/learning"
	"github.com/watchgrid/cortex/internal/patterns"
)

// Accuracy-trend parameters: the last trendWindow contexts are compared
// against the prior trendWindow with a dead-band, and the trend defaults
// to improving until enough observations exist.
const (
	trendWindow   = 10
	trendDeadBand = 0.1
	trendMinObs   = 100
)

// Efficiency is the fixed set of derived efficiency metrics.
type Efficiency struct {
	PatternRecognitionRate float64 `json:"pattern_recognition_rate"`
	AnomalyDetectionRate   float64 `json:"anomaly_detection_rate"`
	MeanContextConfidence  float64 `json:"mean_context_confidence"`
}

// SystemIntelligence is the aggregated read-only view of what the system
// has learned. Safe to request at any time; before any detection it holds
// defaults.
type SystemIntelligence struct {
	ObservationHours   float64        `json:"observation_hours"`
	PatternsLearned    int            `json:"patterns_learned"`
	AccuracyTrend      string         `json:"accuracy_trend"`
	BusinessType       string         `json:"business_type,omitempty"`
	BusinessConfidence float64        `json:"business_confidence"`
	Activities         []string       `json:"activities"`
	PeakHours          map[string]int `json:"peak_hours"`
	Efficiency         Efficiency     `json:"efficiency"`
	Insights           []string       `json:"insights"`
}

// Reporter derives intelligence snapshots from the learning state. Pure
// read computation; it owns no state of its own.
type Reporter struct {
	store      *learning.Store
	classifier *learning.BusinessClassifier
}

// NewReporter creates a reporter
func NewReporter(store *learning.Store, classifier *learning.BusinessClassifier) *Reporter {
	return &Reporter{store: store, classifier: classifier}
}

// Snapshot computes the current intelligence view.
func (r *Reporter) Snapshot(started time.Time) SystemIntelligence {
	history := r.store.History()
	learned := r.store.LearnedPatterns()
	estimate := r.classifier.Current()

	si := SystemIntelligence{
		PatternsLearned:    len(learned),
		AccuracyTrend:      r.accuracyTrend(),
		BusinessType:       estimate.Type,
		BusinessConfidence: estimate.Confidence,
		Activities:         []string{},
		PeakHours:          make(map[string]int, len(learned)),
		Insights:           []string{},
	}

	if !started.IsZero() {
		si.ObservationHours = time.Since(started).Hours()
	}

	seen := make(map[string]bool)
	matched := 0
	anomalous := 0
	queueContexts := 0
	confidenceSum := 0.0
	for _, c := range history {
		if !seen[c.PrimaryActivity] {
			seen[c.PrimaryActivity] = true
			si.Activities = append(si.Activities, c.PrimaryActivity)
		}
		if c.MatchedPattern != "" {
			matched++
		}
		if !c.IsTypical || c.AnomalyScore > 0.5 {
			anomalous++
		}
		if c.MatchedPattern == "queue_formation" {
			queueContexts++
		}
		confidenceSum += c.Confidence
	}

	if n := len(history); n > 0 {
		si.Efficiency = Efficiency{
			PatternRecognitionRate: float64(matched) / float64(n),
			AnomalyDetectionRate:   float64(anomalous) / float64(n),
			MeanContextConfidence:  confidenceSum / float64(n),
		}
	}

	for _, lp := range learned {
		si.PeakHours[lp.PatternID] = peakHour(lp.HourHistogram)
	}

	si.Insights = r.insights(queueContexts, anomalous, estimate)
	return si
}

// accuracyTrend compares mean confidence of the two most recent windows.
func (r *Reporter) accuracyTrend() string {
	if r.store.Observations() < trendMinObs {
		return "improving"
	}

	history := r.store.History()
	if len(history) < 2*trendWindow {
		return "improving"
	}

	recent := history[len(history)-trendWindow:]
	prior := history[len(history)-2*trendWindow : len(history)-trendWindow]

	diff := meanConfidence(recent) - meanConfidence(prior)
	switch {
	case diff > trendDeadBand:
		return "improving"
	case diff < -trendDeadBand:
		return "declining"
	default:
		return "stable"
	}
}

func (r *Reporter) insights(queueContexts, anomalous int, estimate learning.Estimate) []string {
	insights := []string{}

	if queueContexts >= 10 {
		insights = append(insights, fmt.Sprintf(
			"Queues form regularly (%d observed); staffing the peak hour could cut wait times", queueContexts))
	}
	if anomalous > 5 {
		insights = append(insights, fmt.Sprintf(
			"%d unusual contexts observed recently; review the anomaly history", anomalous))
	}
	if estimate.Confidence > 0.8 {
		profile, ok := r.classifier.Profile()
		if ok {
			insights = append(insights, fmt.Sprintf(
				"Environment confidently identified as %s; tuning alerts toward %s",
				estimate.Type, profile.PrimaryFocus))
		}
	}

	return insights
}

func peakHour(hist [24]int) int {
	peak := 0
	for h, count := range hist {
		if count > hist[peak] {
			peak = h
		}
	}
	return peak
}

func meanConfidence(ctxs []patterns.SceneContext) float64 {
	if len(ctxs) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range ctxs {
		sum += c.Confidence
	}
	return sum / float64(len(ctxs))
}
