// Package validate checks and normalizes untrusted conversion parameters
// against the real properties of a source video. It owns no state; every
// function is pure over its inputs.
package validate

import (
	"fmt"
	"math"

	"github.com/RevoLabs-IO/video2gif/internal/converr"
	"github.com/RevoLabs-IO/video2gif/internal/model"
)

const (
	// MaxPayloadBytes is the input size ceiling (1 GiB).
	MaxPayloadBytes = 1 << 30

	// MinDuration is the floor applied when clamping an over-long clip.
	MinDuration = 0.1

	DefaultFPS = 10
	MinFPS     = 1
	MaxFPS     = 30
)

func invalid(msg string, details map[string]any) error {
	return converr.New(converr.InvalidParameters, msg, details)
}

// Apply validates opts against an optionally-known source duration
// (knownDuration <= 0 means unknown) and returns a normalized copy with
// defaults filled in. An over-long duration is clamped, never rejected; the
// correction is reported through the returned warnings. The caller's opts
// value is not modified on any path.
func Apply(payload []byte, opts model.Options, knownDuration float64) (model.Options, []model.Warning, error) {
	if len(payload) == 0 {
		return model.Options{}, nil, invalid("video payload is empty", nil)
	}
	if len(payload) > MaxPayloadBytes {
		return model.Options{}, nil, invalid(
			fmt.Sprintf("video payload exceeds %d byte limit", MaxPayloadBytes),
			map[string]any{"size": len(payload)})
	}

	if math.IsNaN(opts.StartTime) || math.IsInf(opts.StartTime, 0) || opts.StartTime < 0 {
		return model.Options{}, nil, invalid(
			fmt.Sprintf("startTime must be a finite non-negative number, got %v", opts.StartTime), nil)
	}
	if knownDuration > 0 && opts.StartTime >= knownDuration {
		return model.Options{}, nil, invalid(
			fmt.Sprintf("startTime %.3fs is beyond the video duration %.3fs", opts.StartTime, knownDuration),
			map[string]any{"startTime": opts.StartTime, "videoDuration": knownDuration})
	}
	if math.IsNaN(opts.Duration) || math.IsInf(opts.Duration, 0) || opts.Duration <= 0 {
		return model.Options{}, nil, invalid(
			fmt.Sprintf("duration must be a finite positive number, got %v", opts.Duration), nil)
	}
	if opts.FPS != 0 && (opts.FPS < MinFPS || opts.FPS > MaxFPS) {
		return model.Options{}, nil, invalid(
			fmt.Sprintf("fps must be between %d and %d, got %d", MinFPS, MaxFPS, opts.FPS), nil)
	}
	if opts.Scale < 0 {
		return model.Options{}, nil, invalid(
			fmt.Sprintf("scale must be a positive width in pixels, got %d", opts.Scale), nil)
	}

	out := opts
	if out.FPS == 0 {
		out.FPS = DefaultFPS
	}

	var warnings []model.Warning
	if knownDuration > 0 && out.StartTime+out.Duration > knownDuration {
		clamped := math.Max(MinDuration, knownDuration-out.StartTime)
		warnings = append(warnings, model.Warning{
			Code: model.WarnDurationClamped,
			Message: fmt.Sprintf("duration %.3fs exceeds the remaining video (%.3fs from %.3fs); clamped to %.3fs",
				out.Duration, knownDuration-out.StartTime, out.StartTime, clamped),
		})
		out.Duration = clamped
	}

	return out, warnings, nil
}

// OutputDimensions derives the encoded frame size. With no target width the
// source dimensions pass through unchanged. Otherwise the height follows
// the source aspect ratio, both values are forced even (odd values are
// decremented), and both are floored at 2px.
func OutputDimensions(srcWidth, srcHeight, targetWidth int) (model.Dimensions, error) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return model.Dimensions{}, invalid(
			fmt.Sprintf("source dimensions must be positive, got %dx%d", srcWidth, srcHeight), nil)
	}
	if targetWidth <= 0 {
		return model.Dimensions{Width: srcWidth, Height: srcHeight}, nil
	}

	width := targetWidth
	height := int(math.Round(float64(targetWidth) * float64(srcHeight) / float64(srcWidth)))

	if width%2 != 0 {
		width--
	}
	if height%2 != 0 {
		height--
	}
	if width < 2 {
		width = 2
	}
	if height < 2 {
		height = 2
	}
	return model.Dimensions{Width: width, Height: height}, nil
}

// FrameCount is the number of output frames for a clip: ceil(duration*fps).
func FrameCount(duration float64, fps int) int {
	return int(math.Ceil(duration * float64(fps)))
}
