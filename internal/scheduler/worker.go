// internal/scheduler/worker.go
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/watchgrid/cortex/internal/analysis"
	"github.com/watchgrid/cortex/internal/events"
	"github.com/watchgrid/cortex/internal/metrics"
)

// WorkerConfig configures the scheduler worker loop.
type WorkerConfig struct {
	TickInterval time.Duration
	WarmupWindow time.Duration
	MaxAttempts  int
	HistorySize  int
	DeepRate     float64 // deep-analysis calls per second
	DeepBurst    int
}

// ApplyDefaults fills in default values
func (c *WorkerConfig) ApplyDefaults() {
	if c.TickInterval == 0 {
		c.TickInterval = time.Second
	}
	if c.WarmupWindow == 0 {
		c.WarmupWindow = 10 * time.Minute
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.HistorySize == 0 {
		c.HistorySize = 1000
	}
	if c.DeepRate == 0 {
		c.DeepRate = 1
	}
	if c.DeepBurst == 0 {
		c.DeepBurst = 2
	}
}

// Worker drains the priority queue into the deep-analysis collaborator at
// a fixed cadence, applying the cheap/deep two-tier policy and bounded
// retries. At most one deep analysis is outstanding at any time.
type Worker struct {
	cfg      WorkerConfig
	queue    *Queue
	analyzer analysis.Analyzer
	codec    *analysis.EvidenceCodec
	bus      *events.Bus
	limiter  *rate.Limiter
	logger   *zap.Logger

	started  time.Time
	inFlight atomic.Bool

	mu      sync.Mutex
	history []events.AutonomousEvent
	dropped int

	stopMu sync.Mutex
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewWorker creates a worker over the given queue and collaborator
func NewWorker(cfg WorkerConfig, queue *Queue, analyzer analysis.Analyzer, bus *events.Bus, logger *zap.Logger) *Worker {
	cfg.ApplyDefaults()
	return &Worker{
		cfg:      cfg,
		queue:    queue,
		analyzer: analyzer,
		codec:    analysis.NewEvidenceCodec(),
		bus:      bus,
		limiter:  rate.NewLimiter(rate.Limit(cfg.DeepRate), cfg.DeepBurst),
		logger:   logger,
		started:  time.Now(),
	}
}

// SetStarted overrides the observation start used for the warm-up window.
func (w *Worker) SetStarted(t time.Time) { w.started = t }

// Run drives the worker loop until the context is cancelled or Stop is
// called. One event at most is picked up per tick, and only when no deep
// analysis is already in flight. A stopped worker can be run again; each
// Run gets a fresh stop signal.
func (w *Worker) Run(ctx context.Context) {
	w.stopMu.Lock()
	stop := make(chan struct{})
	w.stop = stop
	w.stopMu.Unlock()

	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if w.inFlight.Load() {
				continue
			}
			item, ok := w.queue.Pop()
			if !ok {
				continue
			}
			metrics.SetQueueDepth(w.queue.Len())
			w.inFlight.Store(true)
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				defer w.inFlight.Store(false)
				w.Process(ctx, item)
			}()
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts the loop; an analysis already in flight completes and its
// result is discarded by the caller's cancelled context if applicable.
// Idempotent, and safe before the first Run.
func (w *Worker) Stop() {
	w.stopMu.Lock()
	if w.stop != nil {
		select {
		case <-w.stop:
		default:
			close(w.stop)
		}
	}
	w.stopMu.Unlock()
	w.wg.Wait()
}

// Process handles a single queued item: cheap template description during
// warm-up, deep analysis afterwards, retry-with-requeue on failure.
func (w *Worker) Process(ctx context.Context, item *Item) {
	if time.Since(w.started) < w.cfg.WarmupWindow {
		ev := item.Event
		ev.Analysis.Description = cheapDescription(ev)
		w.finalize(ev)
		return
	}

	if !w.limiter.Allow() {
		// Rate limited, not a failure: back of its class, no attempt burned.
		w.requeue(item)
		return
	}

	item.Attempts++

	res, err := w.deepAnalyze(ctx, item)
	if err != nil {
		item.LastError = err.Error()
		metrics.RecordAnalysisFailure()
		if item.Attempts < w.cfg.MaxAttempts {
			w.logger.Warn("deep analysis failed, requeueing",
				zap.String("event", item.Event.ID),
				zap.Int("attempt", item.Attempts),
				zap.Error(err))
			metrics.RecordRetry()
			w.requeue(item)
			return
		}

		w.mu.Lock()
		w.dropped++
		w.mu.Unlock()
		metrics.RecordDrop()
		w.logger.Error("deep analysis exhausted retries, dropping event",
			zap.String("event", item.Event.ID),
			zap.Int("attempts", item.Attempts),
			zap.String("last_error", item.LastError))
		return
	}

	ev := item.Event
	shape := analysis.ShapeFor(ev.DetectedContext)
	ev.Analysis.Data = analysis.ToStructured(res, shape)
	if res.Description != "" {
		ev.Analysis.Description = res.Description
	}
	w.finalize(ev)
}

func (w *Worker) deepAnalyze(ctx context.Context, item *Item) (analysis.Result, error) {
	frame, err := w.codec.Decompress(item.Evidence)
	if err != nil {
		return analysis.Result{}, err
	}

	prompt := analysis.PromptFor(item.Event.DetectedContext)

	start := time.Now()
	res, err := w.analyzer.Analyze(ctx, frame, prompt)
	metrics.ObserveAnalysisDuration(time.Since(start))
	return res, err
}

func (w *Worker) requeue(item *Item) {
	if err := w.queue.Push(item); err != nil {
		w.mu.Lock()
		w.dropped++
		w.mu.Unlock()
		metrics.RecordDrop()
		w.logger.Error("requeue failed, dropping event",
			zap.String("event", item.Event.ID), zap.Error(err))
	}
}

// finalize records the event in history and broadcasts it.
func (w *Worker) finalize(ev events.AutonomousEvent) {
	w.mu.Lock()
	w.history = append(w.history, ev)
	if len(w.history) > w.cfg.HistorySize {
		w.history = w.history[1:]
	}
	w.mu.Unlock()

	metrics.RecordEventFinalized(string(ev.Analysis.Urgency))
	w.bus.Publish(ev)
}

// History returns finalized events, oldest first.
func (w *Worker) History() []events.AutonomousEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]events.AutonomousEvent, len(w.history))
	copy(out, w.history)
	return out
}

// Dropped returns how many events were dropped after exhausting retries.
func (w *Worker) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// cheapDescription builds a bounded-latency description from the event's
// existing structured data, used instead of deep analysis during warm-up.
func cheapDescription(ev events.AutonomousEvent) string {
	desc := fmt.Sprintf("Observed %s at %s", ev.DetectedContext, ev.Location)
	if g := ev.Analysis.Data.Generic; g != nil {
		if d, ok := g["crowd_density"].(float64); ok {
			desc += fmt.Sprintf(", crowd density %.2f", d)
		}
		if m, ok := g["motion"].(float64); ok {
			desc += fmt.Sprintf(", motion %.2f", m)
		}
	}
	if ev.IsAnomaly {
		desc += " (unusual for this scene)"
	}
	return desc + "."
}
