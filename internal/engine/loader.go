package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/RevoLabs-IO/video2gif/internal/capability"
	"github.com/RevoLabs-IO/video2gif/internal/converr"
	"github.com/RevoLabs-IO/video2gif/internal/deps"
	"github.com/RevoLabs-IO/video2gif/internal/execx"
	"github.com/RevoLabs-IO/video2gif/internal/model"
)

// Loader owns the shared engine instance. Loading is expensive, so at most
// one instance exists per Loader; concurrent callers coalesce onto a single
// in-flight load, and a failed load leaves no residue so the next call
// retries from scratch.
type Loader struct {
	runner  execx.Runner
	logger  *slog.Logger
	detect  func(override *bool) bool
	assets  func(multi bool) string
	factory func(runner execx.Runner, logger *slog.Logger) Engine

	mu     sync.Mutex
	group  singleflight.Group
	engine Engine
	mode   model.ThreadingMode
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r execx.Runner) LoaderOption {
	return func(l *Loader) { l.runner = r }
}

// WithLogger attaches a diagnostics logger.
func WithLogger(lg *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = lg }
}

// WithDetector substitutes the capability resolution used for the threading
// decision.
func WithDetector(d *capability.Detector) LoaderOption {
	return func(l *Loader) { l.detect = d.IsMultiThreadUsable }
}

// WithDefaultAssets supplies the environment-derived default asset
// locations for single- and multi-thread engine bundles.
func WithDefaultAssets(fn func(multi bool) string) LoaderOption {
	return func(l *Loader) { l.assets = fn }
}

// WithFactory substitutes the engine constructor (useful for testing).
func WithFactory(fn func(runner execx.Runner, logger *slog.Logger) Engine) LoaderOption {
	return func(l *Loader) { l.factory = fn }
}

// NewLoader constructs a Loader with the provided options.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		detect: capability.IsMultiThreadUsable,
	}
	for _, o := range opts {
		o(l)
	}
	if l.runner == nil {
		l.runner = execx.NewRunner()
	}
	if l.factory == nil {
		l.factory = func(r execx.Runner, lg *slog.Logger) Engine { return NewFFmpeg(r, lg) }
	}
	return l
}

var (
	stdOnce sync.Once
	std     *Loader
)

// Default returns the process-wide Loader shared by the library facade.
func Default() *Loader {
	stdOnce.Do(func() { std = NewLoader() })
	return std
}

type loadResult struct {
	eng  Engine
	mode model.ThreadingMode
}

// Load returns the shared engine, loading it on first use. An already
// loaded engine is returned immediately; callers arriving while a load is
// in flight join it instead of triggering a second instantiation. Failure
// is reported as ENGINE_LOAD_FAILED carrying the attempted location, and
// clears the in-flight state so a subsequent call retries.
func (l *Loader) Load(ctx context.Context, cfg model.EngineConfig) (Engine, model.ThreadingMode, error) {
	l.mu.Lock()
	if l.engine != nil {
		eng, mode := l.engine, l.mode
		l.mu.Unlock()
		return eng, mode, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do("engine", func() (any, error) {
		// A racing caller may have completed a load between the cache check
		// and joining the group.
		l.mu.Lock()
		if l.engine != nil {
			res := loadResult{l.engine, l.mode}
			l.mu.Unlock()
			return res, nil
		}
		l.mu.Unlock()
		return l.doLoad(ctx, cfg)
	})
	if err != nil {
		return nil, "", err
	}
	res := v.(loadResult)
	return res.eng, res.mode, nil
}

func (l *Loader) doLoad(ctx context.Context, cfg model.EngineConfig) (loadResult, error) {
	multi := l.detect(cfg.MultiThread)
	mode := model.ThreadingSingle
	threads := 1
	if multi {
		mode = model.ThreadingMulti
		threads = 0
	}

	assetDir := cfg.AssetDir
	if assetDir == "" && l.assets != nil {
		assetDir = l.assets(multi)
	}

	location := cfg.FFmpegPath
	if location == "" {
		location = assetDir
	}
	bin, err := deps.FindFFmpeg(cfg.FFmpegPath, assetDir)
	if err != nil {
		return loadResult{}, converr.New(converr.EngineLoadFailed,
			fmt.Sprintf("engine binary not found: %v", err),
			map[string]any{"location": location, "threading": string(mode)})
	}

	eng := l.factory(l.runner, l.logger)
	if err := eng.Load(ctx, Config{BinaryPath: bin, Threads: threads, Verbose: cfg.Verbose}); err != nil {
		return loadResult{}, converr.New(converr.EngineLoadFailed,
			fmt.Sprintf("engine failed to initialize: %v", err),
			map[string]any{"location": bin, "threading": string(mode)})
	}

	if l.logger != nil {
		l.logger.Info("engine loaded", "binary", bin, "threading", string(mode))
	}

	l.mu.Lock()
	l.engine = eng
	l.mode = mode
	l.mu.Unlock()
	return loadResult{eng, mode}, nil
}

// Mode reports the threading mode of the loaded engine, or "" when none is
// loaded.
func (l *Loader) Mode() model.ThreadingMode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// Reset discards the cached handle without closing it, allowing a fresh
// load (e.g. to force a different threading mode).
func (l *Loader) Reset() {
	l.mu.Lock()
	l.engine = nil
	l.mode = ""
	l.mu.Unlock()
}

// Cleanup closes the cached engine (best-effort) and resets the loader.
func (l *Loader) Cleanup() {
	l.mu.Lock()
	eng := l.engine
	l.engine = nil
	l.mode = ""
	l.mu.Unlock()

	if eng != nil {
		if err := eng.Close(); err != nil && l.logger != nil {
			l.logger.Warn("engine close failed", "error", err)
		}
	}
}
