// Package video2gif renders a sub-clip of a video to an animated GIF by
// orchestrating an external encoding engine (ffmpeg). It validates caller
// parameters against the real properties of the input, negotiates single-
// vs multi-threaded execution from host capabilities, and reports progress
// with cooperative cancellation and a wall-clock timeout.
//
// # Basic usage
//
//	payload, _ := os.ReadFile("clip.mp4")
//	gif, err := video2gif.Convert(ctx, payload, video2gif.Options{
//	    StartTime: 2,
//	    Duration:  3,
//	    FPS:       10,
//	    Scale:     480,
//	}, nil)
//
// ConvertWithMetadata returns the artifact together with the probed source
// metadata, derived output dimensions, and run statistics. NewSession
// yields a cancellable handle for one conversion. ValidateRequest checks a
// request without encoding anything.
//
// All failures carry a machine-checkable kind from a closed taxonomy; use
// ErrorKindOf and UserMessage to branch on or display them.
package video2gif

import (
	"context"
	"os"
	"sync"

	"github.com/RevoLabs-IO/video2gif/internal/capability"
	"github.com/RevoLabs-IO/video2gif/internal/config"
	"github.com/RevoLabs-IO/video2gif/internal/converr"
	"github.com/RevoLabs-IO/video2gif/internal/conversion"
	"github.com/RevoLabs-IO/video2gif/internal/deps"
	"github.com/RevoLabs-IO/video2gif/internal/engine"
	"github.com/RevoLabs-IO/video2gif/internal/model"
	"github.com/RevoLabs-IO/video2gif/internal/progress"
	"github.com/RevoLabs-IO/video2gif/internal/validate"
)

type (
	// Options are the caller-supplied conversion parameters.
	Options = model.Options

	// EngineConfig carries optional engine overrides; nil selects defaults.
	EngineConfig = model.EngineConfig

	// Metadata describes the probed source video.
	Metadata = model.Metadata

	// Dimensions is the derived output size.
	Dimensions = model.Dimensions

	// Progress is one progress sample delivered to Options.OnProgress.
	Progress = model.Progress

	// Result is the artifact plus metadata and statistics.
	Result = model.Result

	// Stats records how a conversion ran.
	Stats = model.Stats

	// Warning reports a non-fatal correction (e.g. a clamped duration).
	Warning = model.Warning

	// ThreadingMode is the engine execution mode actually used.
	ThreadingMode = model.ThreadingMode

	// Error is a classified conversion failure.
	Error = converr.Error

	// ErrorKind tags an Error with one taxonomy member.
	ErrorKind = converr.Kind

	// Stage identifies a pipeline step in progress samples.
	Stage = progress.Stage

	// CapabilitySnapshot records the host's detected execution capabilities.
	CapabilitySnapshot = capability.Snapshot
)

// Error taxonomy members.
const (
	ErrInvalidParameters   = converr.InvalidParameters
	ErrUnsupportedFormat   = converr.UnsupportedFormat
	ErrEngineLoadFailed    = converr.EngineLoadFailed
	ErrConversionFailed    = converr.ConversionFailed
	ErrMemoryLimitExceeded = converr.MemoryLimitExceeded
	ErrTimeoutExceeded     = converr.TimeoutExceeded
	ErrCancelled           = converr.Cancelled
	ErrUnknown             = converr.Unknown
)

// Threading modes.
const (
	ThreadingSingle = model.ThreadingSingle
	ThreadingMulti  = model.ThreadingMulti
)

// Progress stages.
const (
	StageLoading    = progress.StageLoading
	StageAnalyzing  = progress.StageAnalyzing
	StageProcessing = progress.StageProcessing
	StageFinalizing = progress.StageFinalizing
)

var (
	loaderOnce sync.Once
	loader     *engine.Loader
)

// sharedLoader is the process-wide engine loader: the engine is expensive
// to instantiate and one instance serves all requests.
func sharedLoader() *engine.Loader {
	loaderOnce.Do(func() {
		loader = engine.NewLoader(engine.WithDefaultAssets(config.AssetDir))
	})
	return loader
}

// resolveConfig merges environment-supplied defaults into cfg.
func resolveConfig(cfg *EngineConfig) model.EngineConfig {
	var c model.EngineConfig
	if cfg != nil {
		c = *cfg
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = config.FFmpegPath()
	}
	if c.FFprobePath == "" {
		c.FFprobePath = config.FFprobePath()
	}
	return c
}

// Convert renders the requested clip to GIF and returns the artifact bytes.
func Convert(ctx context.Context, payload []byte, opts Options, cfg *EngineConfig) ([]byte, error) {
	res, err := ConvertWithMetadata(ctx, payload, opts, cfg)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// ConvertWithMetadata renders the requested clip and returns the artifact
// together with source metadata, output dimensions, statistics, and any
// validation warnings.
func ConvertWithMetadata(ctx context.Context, payload []byte, opts Options, cfg *EngineConfig) (*Result, error) {
	orch := conversion.New(conversion.WithLoader(sharedLoader()))
	return orch.Convert(ctx, payload, opts, resolveConfig(cfg))
}

// DetectCapabilities returns the host capability snapshot used for the
// threading decision.
func DetectCapabilities() CapabilitySnapshot {
	return capability.Detect()
}

// Cleanup tears down the shared engine instance. Subsequent conversions
// trigger a fresh load.
func Cleanup() {
	sharedLoader().Cleanup()
}

// ErrorKindOf reports the taxonomy kind of err (ErrUnknown for unclassified
// errors).
func ErrorKindOf(err error) ErrorKind {
	return converr.KindOf(err)
}

// UserMessage returns a stable, caller-facing message for err, suitable for
// display. It never includes internal detail.
func UserMessage(err error) string {
	return converr.Wrap(err, "").UserMessage()
}

// Validation is the outcome of a dry-run request check.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateRequest checks a request without performing any encode. When the
// probe binary is available the duration check is authoritative; otherwise
// a warning notes that metadata probing was skipped.
func ValidateRequest(ctx context.Context, payload []byte, opts Options, cfg *EngineConfig) Validation {
	c := resolveConfig(cfg)
	var v Validation

	norm, warns, err := validate.Apply(payload, opts, 0)
	if err != nil {
		v.Errors = append(v.Errors, err.Error())
		return v
	}

	meta, probeErr := probePayload(ctx, c, payload)
	switch {
	case probeErr != nil && converr.KindOf(probeErr) == converr.UnsupportedFormat:
		v.Errors = append(v.Errors, probeErr.Error())
	case probeErr != nil:
		v.Warnings = append(v.Warnings, "metadata probing unavailable: "+probeErr.Error())
	default:
		if _, authWarns, err := validate.Apply(payload, opts, meta.Duration); err != nil {
			v.Errors = append(v.Errors, err.Error())
		} else {
			warns = authWarns
		}
		if _, err := validate.OutputDimensions(meta.Width, meta.Height, norm.Scale); err != nil {
			v.Errors = append(v.Errors, err.Error())
		}
	}

	for _, w := range warns {
		v.Warnings = append(v.Warnings, w.Message)
	}
	v.Valid = len(v.Errors) == 0
	return v
}

// probePayload stages the payload in a temp file and probes it.
func probePayload(ctx context.Context, cfg model.EngineConfig, payload []byte) (Metadata, error) {
	path, err := deps.FindFFprobe(cfg.FFprobePath, cfg.AssetDir)
	if err != nil {
		return Metadata{}, converr.New(converr.EngineLoadFailed, err.Error(), nil)
	}
	tmp, err := os.CreateTemp("", "video2gif-probe-")
	if err != nil {
		return Metadata{}, converr.Wrap(err, "stage probe input")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return Metadata{}, converr.Wrap(err, "stage probe input")
	}
	tmp.Close()

	prober := &validate.FFprobe{Path: path, Verbose: cfg.Verbose}
	return prober.Probe(ctx, tmp.Name())
}
