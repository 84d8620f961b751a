package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/analysis"
	"github.com/watchgrid/cortex/internal/events"
)

type stubAnalyzer struct {
	mu      sync.Mutex
	res     analysis.Result
	err     error
	calls   int
	prompts []string
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ []byte, prompt string) (analysis.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.res, s.err
}

func (s *stubAnalyzer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestWorker(t *testing.T, q *Queue, a analysis.Analyzer, cfg WorkerConfig) (*Worker, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	return NewWorker(cfg, q, a, bus, zap.NewNop()), bus
}

func compressedFrame(t *testing.T, data []byte) []byte {
	t.Helper()
	out, err := analysis.NewEvidenceCodec().Compress(data)
	require.NoError(t, err)
	return out
}

func queuedItem(t *testing.T, id, activity string) *Item {
	t.Helper()
	return &Item{
		Event: events.AutonomousEvent{
			ID:              id,
			DetectedContext: activity,
			Location:        "scene",
		},
		Evidence: compressedFrame(t, []byte("frame-bytes")),
		Priority: PriorityMedium,
	}
}

func TestWorker_WarmupUsesCheapDescription(t *testing.T) {
	q := NewQueue(16)
	stub := &stubAnalyzer{}
	w, _ := newTestWorker(t, q, stub, WorkerConfig{WarmupWindow: time.Hour})

	it := queuedItem(t, "ev-1", "queue_formation")
	it.Event.Analysis.Data = events.StructuredData{
		Kind:    events.KindGeneric,
		Generic: map[string]interface{}{"crowd_density": 0.5, "motion": 0.1},
	}
	w.Process(context.Background(), it)

	hist := w.History()
	require.Len(t, hist, 1)
	assert.Contains(t, hist[0].Analysis.Description, "Observed queue_formation at scene")
	assert.Contains(t, hist[0].Analysis.Description, "crowd density 0.50")
	assert.Zero(t, stub.callCount(), "warm-up must not call the model")
}

func TestWorker_DeepAnalysisSuccess(t *testing.T) {
	q := NewQueue(16)
	stub := &stubAnalyzer{res: analysis.Result{Description: "Four people waiting in line."}}
	w, _ := newTestWorker(t, q, stub, WorkerConfig{})
	w.SetStarted(time.Now().Add(-time.Hour)) // past warm-up

	w.Process(context.Background(), queuedItem(t, "ev-1", "queue_formation"))

	hist := w.History()
	require.Len(t, hist, 1)
	assert.Equal(t, "Four people waiting in line.", hist[0].Analysis.Description)
	assert.Equal(t, 1, stub.callCount())
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "queue")
}

func TestWorker_RetryThenDrop(t *testing.T) {
	q := NewQueue(16)
	stub := &stubAnalyzer{err: errors.New("model unavailable")}
	w, _ := newTestWorker(t, q, stub, WorkerConfig{MaxAttempts: 3, DeepRate: 1000, DeepBurst: 10})
	w.SetStarted(time.Now().Add(-time.Hour))

	it := queuedItem(t, "ev-1", "browsing")

	// First two failures requeue the item with its attempt count intact.
	for attempt := 1; attempt <= 2; attempt++ {
		w.Process(context.Background(), it)
		popped, ok := q.Pop()
		require.True(t, ok, "attempt %d should requeue", attempt)
		assert.Equal(t, attempt, popped.Attempts)
		assert.Equal(t, "model unavailable", popped.LastError)
		it = popped
	}

	// Third failure exhausts the budget: no requeue, counted as dropped.
	w.Process(context.Background(), it)
	assert.Zero(t, q.Len())
	assert.Equal(t, 1, w.Dropped())
	assert.Empty(t, w.History())
	assert.Equal(t, 3, stub.callCount())
}

func TestWorker_RateLimitRequeuesWithoutAttempt(t *testing.T) {
	q := NewQueue(16)
	stub := &stubAnalyzer{res: analysis.Result{Description: "ok"}}
	w, _ := newTestWorker(t, q, stub, WorkerConfig{DeepRate: 0.001, DeepBurst: 1})
	w.SetStarted(time.Now().Add(-time.Hour))

	// First call consumes the only token.
	w.Process(context.Background(), queuedItem(t, "ev-1", "browsing"))
	require.Len(t, w.History(), 1)

	// Second call is rate limited: requeued, attempt budget untouched.
	w.Process(context.Background(), queuedItem(t, "ev-2", "browsing"))
	popped, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "ev-2", popped.Event.ID)
	assert.Zero(t, popped.Attempts)
	assert.Equal(t, 1, stub.callCount())
}

func TestWorker_RunDrainsQueue(t *testing.T) {
	q := NewQueue(16)
	stub := &stubAnalyzer{res: analysis.Result{Description: "drained"}}
	w, bus := newTestWorker(t, q, stub, WorkerConfig{TickInterval: 5 * time.Millisecond, DeepRate: 1000, DeepBurst: 10})
	w.SetStarted(time.Now().Add(-time.Hour))

	var mu sync.Mutex
	var delivered []string
	bus.Subscribe(func(ev events.AutonomousEvent) {
		mu.Lock()
		delivered = append(delivered, ev.ID)
		mu.Unlock()
	})

	require.NoError(t, q.Push(queuedItem(t, "ev-1", "browsing")))
	require.NoError(t, q.Push(queuedItem(t, "ev-2", "browsing")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 2
	}, 2*time.Second, 10*time.Millisecond)

	w.Stop()
	mu.Lock()
	assert.Equal(t, []string{"ev-1", "ev-2"}, delivered)
	mu.Unlock()
}

func TestWorker_RunAgainAfterStop(t *testing.T) {
	q := NewQueue(16)
	stub := &stubAnalyzer{res: analysis.Result{Description: "ok"}}
	w, bus := newTestWorker(t, q, stub, WorkerConfig{TickInterval: 5 * time.Millisecond, DeepRate: 1000, DeepBurst: 10})
	w.SetStarted(time.Now().Add(-time.Hour))

	var mu sync.Mutex
	var delivered []string
	bus.Subscribe(func(ev events.AutonomousEvent) {
		mu.Lock()
		delivered = append(delivered, ev.ID)
		mu.Unlock()
	})

	waitFor := func(n int) {
		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(delivered) == n
		}, 2*time.Second, 10*time.Millisecond)
	}

	require.NoError(t, q.Push(queuedItem(t, "before-stop", "browsing")))
	go w.Run(context.Background())
	waitFor(1)
	w.Stop()

	// A restarted worker must keep draining; items queued after the stop
	// may not pile up behind a dead loop.
	require.NoError(t, q.Push(queuedItem(t, "after-restart", "browsing")))
	go w.Run(context.Background())
	waitFor(2)
	w.Stop()

	assert.Zero(t, q.Len())
	mu.Lock()
	assert.Equal(t, []string{"before-stop", "after-restart"}, delivered)
	mu.Unlock()
}

func TestWorker_StopIdempotent(t *testing.T) {
	q := NewQueue(16)
	w, _ := newTestWorker(t, q, &stubAnalyzer{}, WorkerConfig{TickInterval: 5 * time.Millisecond})

	// Safe before any Run, and repeatable after one.
	assert.NotPanics(t, w.Stop)

	go w.Run(context.Background())
	time.Sleep(20 * time.Millisecond)
	assert.NotPanics(t, w.Stop)
	assert.NotPanics(t, w.Stop)
}

func TestWorker_HistoryBounded(t *testing.T) {
	q := NewQueue(16)
	stub := &stubAnalyzer{}
	w, _ := newTestWorker(t, q, stub, WorkerConfig{WarmupWindow: time.Hour, HistorySize: 3})

	for _, id := range []string{"a", "b", "c", "d"} {
		w.Process(context.Background(), queuedItem(t, id, "browsing"))
	}

	hist := w.History()
	require.Len(t, hist, 3)
	assert.Equal(t, "b", hist[0].ID)
	assert.Equal(t, "d", hist[2].ID)
}
