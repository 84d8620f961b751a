// internal/engine/engine.go
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/watchgrid/cortex/internal/analysis"
	"github.com/watchgrid/cortex/internal/config"
	"github.com/watchgrid/cortex/internal/detection"
	"github.com/watchgrid/cortex/internal/events"
	"github.com/watchgrid/cortex/internal/intelligence"
	"github.com/watchgrid/cortex/internal/learning"
	"github.com/watchgrid/cortex/internal/metrics"
	"github.com/watchgrid/cortex/internal/patterns"
	"github.com/watchgrid/cortex/internal/scheduler"
)

// MonitoringState is the process-wide monitoring snapshot, mutated once
// per detection cycle and once per minute by the maintenance tick.
type MonitoringState struct {
	Active          bool      `json:"active"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	CurrentActivity string    `json:"current_activity,omitempty"`
	ActivePattern   string    `json:"active_pattern,omitempty"`
	QueueDepth      int       `json:"queue_depth"`
	FPS             float64   `json:"fps"`
	LatencyMillis   float64   `json:"latency_ms"`
	Accuracy        float64   `json:"accuracy"`
	FramesProcessed int64     `json:"frames_processed"`
	EventsGenerated int64     `json:"events_generated"`
}

// CoreEngine owns the shared mutable pipeline state and drives the three
// periodic tasks: the detection tick, the scheduler worker tick, and the
// per-minute maintenance tick. Detection never blocks on deep analysis;
// the queue decouples the two.
type CoreEngine struct {
	cfg    *config.Config
	logger *zap.Logger

	source   detection.FrameSource
	detector detection.Detector

	catalog    *patterns.Catalog
	matcher    *patterns.Matcher
	store      *learning.Store
	classifier *learning.BusinessClassifier
	generator  *events.Generator
	bus        *events.Bus
	queue      *scheduler.Queue
	worker     *scheduler.Worker
	reporter   *intelligence.Reporter
	codec      *analysis.EvidenceCodec

	mu      sync.RWMutex
	state   MonitoringState
	started time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCoreEngine wires the full pipeline
func NewCoreEngine(cfg *config.Config, logger *zap.Logger, source detection.FrameSource, detector detection.Detector, analyzer analysis.Analyzer) *CoreEngine {
	catalog := patterns.NewCatalog(cfg.Learning.ConfidenceStep)
	store := learning.NewStore(cfg.Learning.HistorySize, cfg.Learning.MinHistory, logger)
	classifier := learning.NewBusinessClassifier(cfg.Learning.MinBusinessEvents, logger)
	bus := events.NewBus()
	queue := scheduler.NewQueue(cfg.Scheduler.MaxQueueDepth)

	worker := scheduler.NewWorker(scheduler.WorkerConfig{
		TickInterval: cfg.Scheduler.TickInterval,
		WarmupWindow: cfg.Scheduler.WarmupWindow,
		MaxAttempts:  cfg.Scheduler.MaxAttempts,
		HistorySize:  cfg.Scheduler.HistorySize,
		DeepRate:     cfg.Scheduler.DeepRate,
		DeepBurst:    cfg.Scheduler.DeepBurst,
	}, queue, analyzer, bus, logger)

	return &CoreEngine{
		cfg:        cfg,
		logger:     logger,
		source:     source,
		detector:   detector,
		catalog:    catalog,
		matcher:    patterns.NewMatcher(catalog, cfg.Learning.MatchThreshold, logger),
		store:      store,
		classifier: classifier,
		generator:  events.NewGenerator(cfg.Learning.LearningPhase, logger),
		bus:        bus,
		queue:      queue,
		worker:     worker,
		reporter:   intelligence.NewReporter(store, classifier),
		codec:      analysis.NewEvidenceCodec(),
	}
}

// Start begins the periodic tasks. Calling Start on an active engine is a
// no-op.
func (e *CoreEngine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.state.Active {
		e.mu.Unlock()
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.started = time.Now()
	e.state = MonitoringState{Active: true, StartedAt: e.started}
	e.worker.SetStarted(e.started)
	e.mu.Unlock()

	e.wg.Add(3)
	go func() {
		defer e.wg.Done()
		e.detectLoop(runCtx)
	}()
	go func() {
		defer e.wg.Done()
		e.worker.Run(runCtx)
	}()
	go func() {
		defer e.wg.Done()
		e.maintenanceLoop(runCtx)
	}()

	e.logger.Info("monitoring started",
		zap.Int("target_fps", e.cfg.Detection.TargetFPS),
		zap.String("camera", e.cfg.Detection.CameraID))
}

// Stop halts all periodic tasks. Idempotent; a deep analysis already in
// flight completes against the cancelled context and its result is
// discarded.
func (e *CoreEngine) Stop() {
	e.mu.Lock()
	if !e.state.Active {
		e.mu.Unlock()
		return
	}
	e.state.Active = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.worker.Stop()
	e.wg.Wait()

	e.logger.Info("monitoring stopped")
}

// Reset clears the learning store, rolling history, and business-type
// evidence. The pattern catalog is untouched.
func (e *CoreEngine) Reset() {
	e.store.Reset()
	e.classifier.Reset()
	e.logger.Info("learning state reset")
}

func (e *CoreEngine) detectLoop(ctx context.Context) {
	interval := time.Second / time.Duration(e.cfg.Detection.TargetFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.detectionCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (e *CoreEngine) detectionCycle(ctx context.Context) {
	start := time.Now()

	frame, err := e.source.Capture(ctx)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn("frame capture failed", zap.Error(err))
		}
		return
	}
	if frame.CameraID == "" {
		frame.CameraID = e.cfg.Detection.CameraID
	}

	data, err := e.detector.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn("detection failed", zap.Error(err))
		}
		return
	}

	e.ProcessDetection(data, frame.Data, time.Now())

	latency := time.Since(start)
	metrics.ObserveDetectionLatency(latency)

	e.mu.Lock()
	e.state.LatencyMillis = float64(latency.Milliseconds())
	if latency > 0 {
		e.state.FPS = 1.0 / latency.Seconds()
	}
	e.mu.Unlock()
}

// ProcessDetection runs one full pipeline pass for a detection record:
// context building, pattern matching and reinforcement, typicality
// assessment, business evidence, and event generation.
func (e *CoreEngine) ProcessDetection(data detection.DetectionData, frameData []byte, now time.Time) {
	e.mu.RLock()
	started := e.started
	e.mu.RUnlock()
	if started.IsZero() {
		started = now
	}
	elapsed := now.Sub(started)

	learningPhase := e.generator.InLearningPhase(elapsed)
	c := e.matcher.BuildContext(data, learningPhase, now)
	matched := e.matcher.Match(&c, data)

	reinforced := false
	if matched != "" {
		if p, ok := e.catalog.Reinforce(matched, now); ok {
			e.store.Reinforce(matched, p.Confidence, now)
			reinforced = true
		}
	}

	assessment := e.store.Evaluate(&c)
	c.IsTypical = assessment.IsTypical
	c.AnomalyScore = assessment.AnomalyScore

	e.store.Append(c)
	e.classifier.Observe(data, c.Objects)

	metrics.RecordFrame()
	metrics.RecordContext(c.PrimaryActivity)

	ev := e.generator.Generate(events.GenerateInput{
		Context:      c,
		Assessment:   assessment,
		Elapsed:      elapsed,
		BusinessType: e.classifier.Current().Type,
		CameraID:     e.cfg.Detection.CameraID,
		Reinforced:   reinforced,
	})

	e.mu.Lock()
	e.state.FramesProcessed++
	e.state.CurrentActivity = c.PrimaryActivity
	e.state.ActivePattern = c.MatchedPattern
	e.mu.Unlock()

	if ev == nil {
		return
	}

	evidence, err := e.codec.Compress(frameData)
	if err != nil {
		e.logger.Warn("evidence compression failed", zap.Error(err))
		evidence = nil
	}

	item := &scheduler.Item{
		Event:    *ev,
		Evidence: evidence,
		Priority: scheduler.PriorityFor(ev.Analysis.Urgency),
	}
	if err := e.queue.Push(item); err != nil {
		e.logger.Warn("event queue full, dropping event",
			zap.String("event", ev.ID),
			zap.String("urgency", string(ev.Analysis.Urgency)))
		return
	}

	metrics.SetQueueDepth(e.queue.Len())
	e.mu.Lock()
	e.state.EventsGenerated++
	e.mu.Unlock()
}

func (e *CoreEngine) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.refreshDerived()
		case <-ctx.Done():
			return
		}
	}
}

// refreshDerived recomputes the derived monitoring metrics.
func (e *CoreEngine) refreshDerived() {
	history := e.store.History()
	accuracy := 0.0
	if len(history) > 0 {
		for _, c := range history {
			accuracy += c.Confidence
		}
		accuracy /= float64(len(history))
	}

	e.mu.Lock()
	e.state.Accuracy = accuracy
	e.state.QueueDepth = e.queue.Len()
	e.mu.Unlock()

	metrics.SetQueueDepth(e.queue.Len())
}

// Active reports whether monitoring is running.
func (e *CoreEngine) Active() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Active
}

// Monitoring returns the current monitoring snapshot.
func (e *CoreEngine) Monitoring() MonitoringState {
	e.mu.RLock()
	state := e.state
	e.mu.RUnlock()

	state.QueueDepth = e.queue.Len()
	return state
}

// Intelligence returns the current system-intelligence view. Safe to call
// before any detection has occurred.
func (e *CoreEngine) Intelligence() intelligence.SystemIntelligence {
	e.mu.RLock()
	started := e.started
	e.mu.RUnlock()
	return e.reporter.Snapshot(started)
}

// Events returns finalized events, oldest first.
func (e *CoreEngine) Events() []events.AutonomousEvent {
	return e.worker.History()
}

// Subscribe registers a handler for finalized events.
func (e *CoreEngine) Subscribe(h events.Handler) {
	e.bus.Subscribe(h)
}

// Catalog exposes the pattern catalog for read access.
func (e *CoreEngine) Catalog() *patterns.Catalog {
	return e.catalog
}
