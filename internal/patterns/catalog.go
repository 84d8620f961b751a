// internal/patterns/catalog.go
package patterns

import (
	"sync"
	"time"
)

// Catalog holds the seed pattern set. The template side of each pattern is
// fixed; occurrence counts and confidence accumulate under reinforcement.
type Catalog struct {
	mu             sync.RWMutex
	patterns       []*Pattern
	byID           map[string]*Pattern
	confidenceStep float64
}

// seedPatterns returns the built-in behavioral patterns. Order matters:
// ties during matching are broken by catalog order.
func seedPatterns() []*Pattern {
	return []*Pattern{
		{
			ID:   "queue_formation",
			Name: "Queue Formation",
			Conditions: Conditions{
				MinPeople:   intPtr(3),
				Motion:      MotionStatic,
				MinDuration: 30 * time.Second,
				Arrangement: ArrangementLine,
			},
			Confidence:    0.5,
			BusinessTypes: []string{"retail_store", "grocery", "bank"},
		},
		{
			ID:   "crowd_gathering",
			Name: "Crowd Gathering",
			Conditions: Conditions{
				MinPeople:   intPtr(5),
				Motion:      MotionSlow,
				Arrangement: ArrangementCluster,
			},
			Confidence:    0.5,
			BusinessTypes: []string{"event_venue", "retail_store"},
		},
		{
			ID:   "browsing",
			Name: "Browsing",
			Conditions: Conditions{
				MinPeople:       intPtr(1),
				MaxPeople:       intPtr(4),
				RequiredObjects: []string{"shelf"},
				Motion:          MotionSlow,
				Arrangement:     ArrangementScattered,
			},
			Confidence:    0.5,
			BusinessTypes: []string{"retail_store", "grocery"},
		},
		{
			ID:   "service_interaction",
			Name: "Service Interaction",
			Conditions: Conditions{
				MinPeople:       intPtr(2),
				RequiredObjects: []string{"counter"},
				Motion:          MotionStatic,
			},
			Confidence:    0.5,
			BusinessTypes: []string{"retail_store", "restaurant", "bank"},
		},
		{
			ID:   "hazard",
			Name: "Hazard Condition",
			Conditions: Conditions{
				Motion: MotionFast,
			},
			Confidence:    0.5,
			BusinessTypes: []string{"warehouse", "retail_store"},
		},
	}
}

// NewCatalog creates a catalog seeded with the built-in patterns
func NewCatalog(confidenceStep float64) *Catalog {
	if confidenceStep <= 0 {
		confidenceStep = 0.05
	}
	c := &Catalog{
		patterns:       seedPatterns(),
		byID:           make(map[string]*Pattern),
		confidenceStep: confidenceStep,
	}
	for _, p := range c.patterns {
		c.byID[p.ID] = p
	}
	return c
}

// All returns a snapshot of every pattern in catalog order.
func (c *Catalog) All() []Pattern {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Pattern, 0, len(c.patterns))
	for _, p := range c.patterns {
		out = append(out, *p)
	}
	return out
}

// Get returns a copy of the named pattern.
func (c *Catalog) Get(id string) (Pattern, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byID[id]
	if !ok {
		return Pattern{}, false
	}
	return *p, true
}

// Reinforce records an occurrence of the pattern. Confidence increases by
// the configured step and never exceeds 1.0.
func (c *Catalog) Reinforce(id string, at time.Time) (Pattern, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.byID[id]
	if !ok {
		return Pattern{}, false
	}

	p.Occurrences++
	p.Confidence += c.confidenceStep
	if p.Confidence > 1.0 {
		p.Confidence = 1.0
	}
	if p.FirstSeen.IsZero() {
		p.FirstSeen = at
	}
	p.LastSeen = at

	return *p, true
}
