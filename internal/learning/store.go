// internal/learning/store.go
package learning

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/patterns"
)

// LearnedPattern is the accumulating statistical record for one catalog
// pattern. Created on first reinforcement, updated thereafter, removed
// only by an explicit reset.
type LearnedPattern struct {
	PatternID         string    `json:"pattern_id"`
	Observations      int       `json:"observations"`
	Confidence        float64   `json:"confidence"`
	HourHistogram     [24]int   `json:"hour_histogram"`
	DayHistogram      [7]int    `json:"day_histogram"`
	Preceding         []string  `json:"preceding,omitempty"`
	Following         []string  `json:"following,omitempty"`
	BusinessRelevance float64   `json:"business_relevance"`
	FirstSeen         time.Time `json:"first_seen"`
	LastSeen          time.Time `json:"last_seen"`
}

// Store is the mutable learning state shared by the detection and
// maintenance ticks. All access goes through the mutex; snapshots are
// copies safe to hand to readers.
type Store struct {
	mu           sync.RWMutex
	logger       *zap.Logger
	capacity     int
	minHistory   int
	history      []patterns.SceneContext
	learned      map[string]*LearnedPattern
	observations int
	lastPattern  string
}

// NewStore creates a learning store with the given rolling-history capacity
func NewStore(capacity, minHistory int, logger *zap.Logger) *Store {
	if capacity <= 0 {
		capacity = 100
	}
	if minHistory <= 0 {
		minHistory = 10
	}
	return &Store{
		logger:     logger,
		capacity:   capacity,
		minHistory: minHistory,
		learned:    make(map[string]*LearnedPattern),
	}
}

// Append records a finished context in the rolling history, evicting the
// oldest entry once capacity is reached.
func (s *Store) Append(ctx patterns.SceneContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, ctx)
	if len(s.history) > s.capacity {
		s.history = s.history[1:]
	}
	s.observations++
}

// Reinforce creates or updates the learned record for a pattern,
// including its temporal histograms and causal adjacency.
func (s *Store) Reinforce(patternID string, confidence float64, at time.Time) *LearnedPattern {
	s.mu.Lock()
	defer s.mu.Unlock()

	lp, ok := s.learned[patternID]
	if !ok {
		lp = &LearnedPattern{PatternID: patternID, FirstSeen: at}
		s.learned[patternID] = lp
	}

	lp.Observations++
	lp.Confidence = confidence
	lp.HourHistogram[at.Hour()]++
	lp.DayHistogram[int(at.Weekday())]++
	lp.LastSeen = at

	if s.lastPattern != "" && s.lastPattern != patternID {
		appendUnique(&lp.Preceding, s.lastPattern)
		if prev, ok := s.learned[s.lastPattern]; ok {
			appendUnique(&prev.Following, patternID)
		}
	}
	s.lastPattern = patternID

	return lp
}

func appendUnique(list *[]string, v string) {
	for _, existing := range *list {
		if existing == v {
			return
		}
	}
	*list = append(*list, v)
}

// History returns a copy of the rolling context history, oldest first.
func (s *Store) History() []patterns.SceneContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]patterns.SceneContext, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the current history length.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Observations returns the total number of contexts ever appended,
// independent of history eviction.
func (s *Store) Observations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observations
}

// LearnedPatterns returns a snapshot of every learned pattern record.
func (s *Store) LearnedPatterns() []LearnedPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LearnedPattern, 0, len(s.learned))
	for _, lp := range s.learned {
		out = append(out, *lp)
	}
	return out
}

// Reset clears history and learned patterns. The pattern catalog itself
// is not owned here and is unaffected.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	s.learned = make(map[string]*LearnedPattern)
	s.observations = 0
	s.lastPattern = ""

	if s.logger != nil {
		s.logger.Info("learning store reset")
	}
}
