package patterns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Seeds(t *testing.T) {
	c := NewCatalog(0.05)

	all := c.All()
	require.Len(t, all, 5)
	assert.Equal(t, "queue_formation", all[0].ID)
	assert.Equal(t, "hazard", all[4].ID)

	for _, p := range all {
		assert.Equal(t, 0.5, p.Confidence, p.ID)
		assert.Zero(t, p.Occurrences, p.ID)
	}
}

func TestCatalog_Reinforce(t *testing.T) {
	c := NewCatalog(0.05)
	now := time.Now()

	t.Run("confidence grows monotonically and caps at 1.0", func(t *testing.T) {
		prev := 0.5
		for i := 0; i < 20; i++ {
			p, ok := c.Reinforce("queue_formation", now.Add(time.Duration(i)*time.Minute))
			require.True(t, ok)
			assert.GreaterOrEqual(t, p.Confidence, prev)
			assert.LessOrEqual(t, p.Confidence, 1.0)
			prev = p.Confidence
		}

		p, _ := c.Get("queue_formation")
		assert.Equal(t, 1.0, p.Confidence)
		assert.Equal(t, 20, p.Occurrences)
	})

	t.Run("first and last seen are tracked", func(t *testing.T) {
		p, _ := c.Get("queue_formation")
		assert.Equal(t, now, p.FirstSeen)
		assert.Equal(t, now.Add(19*time.Minute), p.LastSeen)
	})

	t.Run("unknown id is rejected", func(t *testing.T) {
		_, ok := c.Reinforce("no_such_pattern", now)
		assert.False(t, ok)
	})
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	c := NewCatalog(0.05)

	p, ok := c.Get("hazard")
	require.True(t, ok)
	p.Confidence = 0.99

	again, _ := c.Get("hazard")
	assert.Equal(t, 0.5, again.Confidence)
}
