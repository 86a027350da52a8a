package model

import (
	"log/slog"
	"time"

	"github.com/RevoLabs-IO/video2gif/internal/progress"
)

// Options holds the caller-supplied conversion parameters for one request.
type Options struct {
	StartTime float64 // Clip start in seconds; fractional values allowed.
	Duration  float64 // Clip length in seconds; must be positive.
	FPS       int     // Output frame rate. 0 = default (10). Valid range 1..30.
	Scale     int     // Target output width in pixels. 0 = source width.

	// OnProgress, when non-nil, receives progress updates for the request.
	// Invocations are dispatched off the pipeline's stack; the callback may
	// block without stalling the conversion.
	OnProgress func(Progress)
}

// ThreadingMode names the execution mode the engine actually ran with.
type ThreadingMode string

const (
	ThreadingSingle ThreadingMode = "single"
	ThreadingMulti  ThreadingMode = "multi"
)

// EngineConfig carries optional overrides for engine loading and execution.
// The zero value selects auto-detected threading, default asset locations,
// and default limits.
type EngineConfig struct {
	AssetDir    string // Base directory holding engine bundles; "" = environment default, then PATH.
	FFmpegPath  string // Explicit engine binary; overrides AssetDir resolution.
	FFprobePath string // Explicit probe binary; overrides AssetDir resolution.

	MultiThread *bool // Explicit threading preference; nil defers to detection.

	Timeout        time.Duration // Per-conversion wall clock limit. 0 = 5m.
	MemoryBudgetMB int           // Advisory only; never enforced. 0 = 512.

	KeepTemp bool // Keep per-request workspace files for diagnostics.
	Verbose  bool // Stream engine output to the process stderr.

	Logger *slog.Logger // Optional; nil disables diagnostics logging.
}

// DefaultTimeout bounds a conversion when EngineConfig.Timeout is unset.
const DefaultTimeout = 5 * time.Minute

// DefaultMemoryBudgetMB is the advisory memory budget applied when unset.
const DefaultMemoryBudgetMB = 512

// EffectiveTimeout returns the configured timeout or the default.
func (c EngineConfig) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// Metadata holds decoded facts about a source video. It is derived per
// request and never persisted.
type Metadata struct {
	Duration float64 `json:"duration"` // seconds
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Size     int64   `json:"size"` // bytes
}

// Dimensions is an output width/height pair. Both values are even after
// derivation (encoder color-subsampling constraint).
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Progress is a transient per-request progress sample.
type Progress struct {
	Stage       progress.Stage
	Percent     float64  // 0..100, non-decreasing within a request
	ETASeconds  *float64 // optional estimate
	FramesDone  int      // 0 if unknown
	FramesTotal int      // 0 if unknown
}

// Stats records how a completed conversion ran.
type Stats struct {
	Elapsed       time.Duration `json:"elapsed"`
	ThreadingMode ThreadingMode `json:"threadingMode"`
	MemoryUsedMB  int           `json:"memoryUsedMb"` // advisory, from host probing
}

// Warning codes for silent corrections surfaced to the caller.
const (
	WarnDurationClamped = "duration_clamped"
)

// Warning reports a non-fatal correction applied during validation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the output of a successful conversion.
type Result struct {
	Data       []byte     `json:"-"` // GIF bytes
	Dimensions Dimensions `json:"outputDimensions"`
	FrameCount int        `json:"frameCount"`
	Metadata   Metadata   `json:"metadata"`
	Stats      Stats      `json:"statistics"`
	Warnings   []Warning  `json:"warnings,omitempty"`
}
