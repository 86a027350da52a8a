// Package conversion drives the video-to-GIF pipeline: load engine, analyze
// input, validate against real metadata, encode, and collect the artifact.
// It owns the timeout and cancellation races and synthesizes the progress
// stream.
package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/RevoLabs-IO/video2gif/internal/converr"
	"github.com/RevoLabs-IO/video2gif/internal/deps"
	"github.com/RevoLabs-IO/video2gif/internal/engine"
	"github.com/RevoLabs-IO/video2gif/internal/model"
	"github.com/RevoLabs-IO/video2gif/internal/progress"
	"github.com/RevoLabs-IO/video2gif/internal/validate"
)

// State names a position in the conversion lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateAnalyzing  State = "analyzing"
	StateProcessing State = "processing"
	StateFinalizing State = "finalizing"
	StateDone       State = "done"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// Cancellation and timeout race onto one shared flag; the first writer wins
// and decides how the failure is reported.
const (
	reasonNone int32 = iota
	reasonCaller
	reasonTimeout
)

// Orchestrator runs one conversion at a time. The engine handle it acquires
// is shared across requests (owned by the Loader); everything else is
// per-request state.
type Orchestrator struct {
	loader *engine.Loader
	prober validate.Prober
	logger *slog.Logger

	reason atomic.Int32

	mu        sync.Mutex
	state     State
	cancelRun context.CancelFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLoader injects the engine loader (defaults to the process-wide one).
func WithLoader(l *engine.Loader) Option {
	return func(o *Orchestrator) { o.loader = l }
}

// WithProber injects the metadata prober (useful for testing; defaults to
// ffprobe resolved from the engine config).
func WithProber(p validate.Prober) Option {
	return func(o *Orchestrator) { o.prober = p }
}

// WithLogger attaches a diagnostics logger.
func WithLogger(lg *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = lg }
}

// New constructs an Orchestrator in the idle state.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{state: StateIdle}
	for _, fn := range opts {
		fn(o)
	}
	if o.loader == nil {
		o.loader = engine.Default()
	}
	return o
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Cancel requests cooperative cancellation. It is idempotent, safe from any
// state, and a no-op after the conversion has settled. In-flight engine
// work is not forcibly preempted; progress emission and the final result
// respect the flag, and resource cleanup still runs.
func (o *Orchestrator) Cancel() {
	o.reason.CompareAndSwap(reasonNone, reasonCaller)
	o.mu.Lock()
	cancel := o.cancelRun
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsCancelled reports whether cancellation (caller- or timeout-initiated)
// has been requested.
func (o *Orchestrator) IsCancelled() bool {
	return o.reason.Load() != reasonNone
}

// Convert runs the full pipeline for one request and returns the artifact
// with statistics, or a classified error. Failures never escape without a
// taxonomy kind; a set cancellation flag takes reporting priority over any
// concurrently-arising error.
func (o *Orchestrator) Convert(ctx context.Context, payload []byte, opts model.Options, cfg model.EngineConfig) (*model.Result, error) {
	start := time.Now()
	if o.logger == nil {
		o.logger = cfg.Logger
	}

	// Optimistic validation before any expensive work; re-run later against
	// the real duration, which is the authoritative check.
	pre, _, err := validate.Apply(payload, opts, 0)
	if err != nil {
		o.setState(StateFailed)
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.mu.Lock()
	o.cancelRun = cancel
	o.mu.Unlock()

	timeout := cfg.EffectiveTimeout()
	timer := time.AfterFunc(timeout, func() {
		if o.reason.CompareAndSwap(reasonNone, reasonTimeout) {
			cancel()
		}
	})
	defer timer.Stop()

	em := newEmitter(pre.OnProgress)
	defer em.close()

	res, err := o.run(runCtx, payload, pre, cfg, em, start)
	if err != nil {
		em.freeze()
		cerr := o.classify(ctx, err, timeout)
		if cerr.Kind == converr.Cancelled {
			o.setState(StateCancelled)
		} else {
			o.setState(StateFailed)
		}
		return nil, cerr
	}
	if o.reason.Load() != reasonNone {
		// Cancellation landed after the encode settled but before resolution;
		// it still wins.
		em.freeze()
		cerr := o.classify(ctx, converr.New(converr.Cancelled, "conversion cancelled", nil), timeout)
		o.setState(StateCancelled)
		return nil, cerr
	}
	o.setState(StateDone)
	return res, nil
}

// classify maps a proximate error to the reported taxonomy member. The
// shared cancellation flag is consulted first: cancellation beats whatever
// error the cancelled work happened to surface.
func (o *Orchestrator) classify(ctx context.Context, err error, timeout time.Duration) *converr.Error {
	switch o.reason.Load() {
	case reasonCaller:
		return converr.New(converr.Cancelled, "conversion cancelled", nil)
	case reasonTimeout:
		return converr.New(converr.TimeoutExceeded,
			fmt.Sprintf("conversion exceeded the %s timeout", timeout),
			map[string]any{"timeoutMs": timeout.Milliseconds()})
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if ctxErr == context.DeadlineExceeded {
			return converr.New(converr.TimeoutExceeded, "conversion deadline exceeded", nil)
		}
		return converr.New(converr.Cancelled, "conversion cancelled", nil)
	}
	return converr.Wrap(err, "conversion failed")
}

func (o *Orchestrator) run(ctx context.Context, payload []byte, opts model.Options, cfg model.EngineConfig, em *emitter, start time.Time) (*model.Result, error) {
	// Stage 1: loading.
	o.setState(StateLoading)
	em.emit(model.Progress{Stage: progress.StageLoading, Percent: 0})
	eng, mode, err := o.loader.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	inName := "src-" + jobID
	outName := "out-" + jobID + ".gif"

	if err := eng.WriteFile(inName, payload); err != nil {
		return nil, converr.New(converr.ConversionFailed,
			fmt.Sprintf("could not stage input: %v", err), nil)
	}
	defer o.cleanupFiles(eng, cfg, inName, outName)

	// Stage 2: analyzing.
	o.setState(StateAnalyzing)
	em.emit(model.Progress{Stage: progress.StageAnalyzing, Percent: 10})
	meta, err := o.probeInput(ctx, eng, cfg, inName, payload)
	if err != nil {
		return nil, err
	}

	// Authoritative validation against the real duration.
	norm, warnings, err := validate.Apply(payload, opts, meta.Duration)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		if o.logger != nil {
			o.logger.Info("validation warning", "code", w.Code, "message", w.Message)
		}
	}

	// Stage 3: processing.
	o.setState(StateProcessing)
	dims, err := validate.OutputDimensions(meta.Width, meta.Height, norm.Scale)
	if err != nil {
		return nil, err
	}
	total := validate.FrameCount(norm.Duration, norm.FPS)
	em.emit(model.Progress{Stage: progress.StageProcessing, Percent: 20, FramesTotal: total})

	argv := BuildArgs(inName, outName, norm, dims)
	st := &encodeState{clipDuration: norm.Duration, fps: norm.FPS}
	encodeStart := time.Now()
	execErr := eng.Exec(ctx, argv, func(line string) {
		frac, done, ok := st.update(line)
		if !ok {
			return
		}
		p := model.Progress{
			Stage:       progress.StageProcessing,
			Percent:     20 + frac*70,
			FramesDone:  min(done, total),
			FramesTotal: total,
		}
		if frac > 0 && frac < 1 {
			eta := time.Since(encodeStart).Seconds() * (1 - frac) / frac
			p.ETASeconds = &eta
		}
		em.emit(p)
	})
	if execErr != nil {
		return nil, converr.New(converr.ConversionFailed,
			fmt.Sprintf("engine execution failed: %v", execErr), nil)
	}

	// Stage 4: finalizing.
	o.setState(StateFinalizing)
	em.emit(model.Progress{Stage: progress.StageFinalizing, Percent: 90})
	data, err := eng.ReadFile(outName)
	if err != nil {
		return nil, converr.New(converr.ConversionFailed,
			fmt.Sprintf("could not read artifact: %v", err), nil)
	}
	if len(data) == 0 {
		return nil, converr.New(converr.ConversionFailed,
			"engine produced an empty artifact", nil)
	}

	em.emit(model.Progress{
		Stage:       progress.StageFinalizing,
		Percent:     100,
		FramesDone:  total,
		FramesTotal: total,
	})

	memMB := advisoryMemoryMB()
	budget := cfg.MemoryBudgetMB
	if budget == 0 {
		budget = model.DefaultMemoryBudgetMB
	}
	if memMB > budget && o.logger != nil {
		o.logger.Warn("memory use exceeds advisory budget", "usedMb", memMB, "budgetMb", budget)
	}

	return &model.Result{
		Data:       data,
		Dimensions: dims,
		FrameCount: total,
		Metadata:   meta,
		Stats: model.Stats{
			Elapsed:       time.Since(start),
			ThreadingMode: mode,
			MemoryUsedMB:  memMB,
		},
		Warnings: warnings,
	}, nil
}

// pathResolver is implemented by engines whose workspace files live on the
// local filesystem, letting the prober read the staged input in place.
type pathResolver interface {
	FilePath(name string) (string, error)
}

// probeInput resolves metadata for the staged payload. Engines without
// filesystem-backed workspaces get a throwaway copy for the prober.
func (o *Orchestrator) probeInput(ctx context.Context, eng engine.Engine, cfg model.EngineConfig, inName string, payload []byte) (model.Metadata, error) {
	prober := o.prober
	if prober == nil {
		path, err := deps.FindFFprobe(cfg.FFprobePath, cfg.AssetDir)
		if err != nil {
			return model.Metadata{}, converr.New(converr.EngineLoadFailed,
				fmt.Sprintf("probe binary not found: %v", err), nil)
		}
		prober = &validate.FFprobe{Path: path, Verbose: cfg.Verbose}
	}

	if pr, ok := eng.(pathResolver); ok {
		path, err := pr.FilePath(inName)
		if err == nil {
			return prober.Probe(ctx, path)
		}
	}

	tmp, err := os.CreateTemp("", "video2gif-probe-")
	if err != nil {
		return model.Metadata{}, converr.Wrap(err, "stage probe input")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return model.Metadata{}, converr.Wrap(err, "stage probe input")
	}
	tmp.Close()
	return prober.Probe(ctx, tmp.Name())
}

// cleanupFiles removes the request's workspace files. Best-effort: failures
// are logged and never propagated over the conversion's own outcome.
func (o *Orchestrator) cleanupFiles(eng engine.Engine, cfg model.EngineConfig, names ...string) {
	if cfg.KeepTemp {
		return
	}
	for _, name := range names {
		if err := eng.Remove(name); err != nil && o.logger != nil {
			o.logger.Warn("workspace cleanup failed", "file", name, "error", err)
		}
	}
}

func advisoryMemoryMB() int {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	mi, err := p.MemoryInfo()
	if err != nil || mi == nil {
		return 0
	}
	return int(mi.RSS / (1024 * 1024))
}
