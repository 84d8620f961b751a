package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/detection"
)

func observeN(b *BusinessClassifier, n int, counts map[string]int) {
	for i := 0; i < n; i++ {
		b.Observe(detection.DetectionData{ObjectCounts: counts}, nil)
	}
}

func TestBusinessClassifier_RequiresMinimumEvidence(t *testing.T) {
	b := NewBusinessClassifier(10, zap.NewNop())

	observeN(b, 10, map[string]int{"shelf": 2, "cart": 1})
	assert.Empty(t, b.Current().Type, "estimate must stay unknown at the observation floor")

	_, ok := b.Profile()
	assert.False(t, ok)
}

func TestBusinessClassifier_TieResolvesByTableOrder(t *testing.T) {
	b := NewBusinessClassifier(10, zap.NewNop())

	// shelf and cart are indicators for both retail_store and grocery;
	// scores tie and the first-listed type wins.
	observeN(b, 11, map[string]int{"shelf": 2, "cart": 1})

	est := b.Current()
	assert.Equal(t, "retail_store", est.Type)
	assert.Equal(t, 22.0, est.Score)
	assert.Equal(t, 1.0, est.Confidence, "confidence saturates at score/5 capped to 1")
}

func TestBusinessClassifier_ConfidenceBelowSaturation(t *testing.T) {
	b := NewBusinessClassifier(2, zap.NewNop())

	observeN(b, 3, map[string]int{"forklift": 1})

	est := b.Current()
	assert.Equal(t, "warehouse", est.Type)
	assert.InDelta(t, 0.6, est.Confidence, 1e-9)
}

func TestBusinessClassifier_NeverRegressesToUnknown(t *testing.T) {
	b := NewBusinessClassifier(2, zap.NewNop())
	observeN(b, 3, map[string]int{"forklift": 1})
	require.Equal(t, "warehouse", b.Current().Type)

	// Indicator-free scenes leave the estimate in place.
	observeN(b, 50, map[string]int{"person": 3})
	assert.Equal(t, "warehouse", b.Current().Type)
}

func TestBusinessClassifier_Reset(t *testing.T) {
	b := NewBusinessClassifier(2, zap.NewNop())
	observeN(b, 3, map[string]int{"forklift": 1})
	require.NotEmpty(t, b.Current().Type)

	b.Reset()

	assert.Empty(t, b.Current().Type)
	_, ok := b.Profile()
	assert.False(t, ok)
}

func TestBusinessProfile_Lookup(t *testing.T) {
	b := NewBusinessClassifier(2, zap.NewNop())
	observeN(b, 3, map[string]int{"counter": 1})

	est := b.Current()
	require.Equal(t, "bank", est.Type)

	p, ok := b.Profile()
	require.True(t, ok)
	assert.Equal(t, "teller queue management", p.PrimaryFocus)
	assert.Contains(t, p.AlertPriorities, "queue_formation")
}
