// internal/detection/source.go
package detection

import (
	"context"
	"math/rand"
	"sync"
)

// SyntheticSource generates pseudo-frames with slowly drifting brightness,
// standing in for a camera during development. The payload shape matches
// what the simulated detector samples.
type SyntheticSource struct {
	mu         sync.Mutex
	rng        *rand.Rand
	brightness float64
	cameraID   string
}

// NewSyntheticSource creates a source for the given camera id
func NewSyntheticSource(cameraID string, seed int64) *SyntheticSource {
	return &SyntheticSource{
		rng:        rand.New(rand.NewSource(seed)), // #nosec G404 - synthetic frames
		brightness: 0.5,
		cameraID:   cameraID,
	}
}

// Capture produces the next synthetic frame.
func (s *SyntheticSource) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Random walk keeps consecutive frames correlated like a real scene.
	s.brightness += (s.rng.Float64() - 0.5) * 0.1
	if s.brightness < 0.05 {
		s.brightness = 0.05
	}
	if s.brightness > 0.95 {
		s.brightness = 0.95
	}

	size := 2000 + s.rng.Intn(80000)
	data := make([]byte, size)
	level := byte(s.brightness * 255)
	for i := range data {
		data[i] = level + byte(s.rng.Intn(32))
	}

	return Frame{Data: data, CameraID: s.cameraID}, nil
}
