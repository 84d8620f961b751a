package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/analysis"
	"github.com/watchgrid/cortex/internal/config"
	"github.com/watchgrid/cortex/internal/detection"
)

type fixedSource struct {
	frame detection.Frame
}

func (s *fixedSource) Capture(context.Context) (detection.Frame, error) {
	return s.frame, nil
}

type noopAnalyzer struct{}

func (noopAnalyzer) Analyze(context.Context, []byte, string) (analysis.Result, error) {
	return analysis.Result{Description: "noop"}, nil
}

func newTestEngine(t *testing.T) *CoreEngine {
	t.Helper()
	cfg := config.DefaultConfig()
	return NewCoreEngine(cfg, zap.NewNop(),
		&fixedSource{frame: detection.Frame{Data: []byte("frame"), CameraID: "cam-01"}},
		detection.NewSimulatedDetector(zap.NewNop()),
		noopAnalyzer{})
}

func queueDetection() detection.DetectionData {
	return detection.DetectionData{
		PersonCount:     4,
		CrowdDensity:    0.5,
		MotionIntensity: 0.05,
		ObjectCounts:    map[string]int{"person": 4},
	}
}

func TestProcessDetection_LearningPhasePipeline(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	e.ProcessDetection(queueDetection(), []byte("frame"), now)

	// One context processed, the queue pattern matched and reinforced,
	// one learning-phase event queued.
	state := e.Monitoring()
	assert.Equal(t, int64(1), state.FramesProcessed)
	assert.Equal(t, int64(1), state.EventsGenerated)
	assert.Equal(t, "queue_formation", state.CurrentActivity)
	assert.Equal(t, "queue_formation", state.ActivePattern)
	assert.Equal(t, 1, state.QueueDepth)

	p, ok := e.Catalog().Get("queue_formation")
	require.True(t, ok)
	assert.Equal(t, 1, p.Occurrences)
	assert.Greater(t, p.Confidence, 0.5)
}

func TestProcessDetection_ReinforcementAccumulates(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	for i := 0; i < 5; i++ {
		e.ProcessDetection(queueDetection(), []byte("frame"), now.Add(time.Duration(i)*time.Second))
	}

	p, _ := e.Catalog().Get("queue_formation")
	assert.Equal(t, 5, p.Occurrences)
	assert.InDelta(t, 0.75, p.Confidence, 1e-9)

	si := e.Intelligence()
	assert.Equal(t, 1, si.PatternsLearned)
	assert.Contains(t, si.Activities, "queue_formation")
}

func TestStartStop_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	e.Start(ctx)
	e.Start(ctx) // second call is a no-op
	assert.True(t, e.Active())

	e.Stop()
	assert.False(t, e.Active())
	assert.NotPanics(t, e.Stop)
}

func TestStartStop_Restart(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	e.Start(ctx)
	e.Stop()

	// A stopped engine must come back up with a live pipeline: detection
	// ticks run and the scheduler drains what they enqueue.
	e.Start(ctx)
	require.True(t, e.Active())

	assert.Eventually(t, func() bool {
		return e.Monitoring().FramesProcessed > 0
	}, 3*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(e.Events()) > 0
	}, 5*time.Second, 20*time.Millisecond)

	e.Stop()
	assert.False(t, e.Active())
}

func TestReset_PreservesCatalog(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	for i := 0; i < 3; i++ {
		e.ProcessDetection(queueDetection(), []byte("frame"), now.Add(time.Duration(i)*time.Second))
	}
	require.NotEmpty(t, e.Intelligence().Activities)

	e.Reset()

	si := e.Intelligence()
	assert.Empty(t, si.Activities)
	assert.Zero(t, si.PatternsLearned)
	assert.Empty(t, si.BusinessType)

	// Catalog reinforcement survives a learning reset.
	p, _ := e.Catalog().Get("queue_formation")
	assert.Equal(t, 3, p.Occurrences)
}

func TestMonitoring_DefaultState(t *testing.T) {
	e := newTestEngine(t)

	state := e.Monitoring()
	assert.False(t, state.Active)
	assert.Zero(t, state.FramesProcessed)
	assert.Zero(t, state.QueueDepth)
	assert.Empty(t, e.Events())
}
