package validate

import (
	"math"
	"strings"
	"testing"

	"github.com/RevoLabs-IO/video2gif/internal/converr"
	"github.com/RevoLabs-IO/video2gif/internal/model"
)

var payload = []byte("not actually a video, size is all that matters here")

func TestApplyRejections(t *testing.T) {
	cases := []struct {
		name     string
		payload  []byte
		opts     model.Options
		known    float64
		contains string
	}{
		{"empty payload", nil, model.Options{Duration: 3}, 0, "payload is empty"},
		{"negative start", payload, model.Options{StartTime: -1, Duration: 3}, 0, "startTime"},
		{"nan start", payload, model.Options{StartTime: math.NaN(), Duration: 3}, 0, "startTime"},
		{"inf start", payload, model.Options{StartTime: math.Inf(1), Duration: 3}, 0, "startTime"},
		{"start at duration", payload, model.Options{StartTime: 10, Duration: 3}, 10, "beyond the video duration"},
		{"start past duration", payload, model.Options{StartTime: 12, Duration: 3}, 10, "beyond the video duration"},
		{"zero duration", payload, model.Options{Duration: 0}, 0, "duration"},
		{"negative duration", payload, model.Options{Duration: -2}, 0, "duration"},
		{"nan duration", payload, model.Options{Duration: math.NaN()}, 0, "duration"},
		{"fps too low", payload, model.Options{Duration: 3, FPS: -1}, 0, "fps"},
		{"fps too high", payload, model.Options{Duration: 3, FPS: 31}, 0, "fps"},
		{"negative scale", payload, model.Options{Duration: 3, Scale: -480}, 0, "scale"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Apply(tc.payload, tc.opts, tc.known)
			if err == nil {
				t.Fatal("expected an error")
			}
			if converr.KindOf(err) != converr.InvalidParameters {
				t.Fatalf("kind = %s, want INVALID_PARAMETERS", converr.KindOf(err))
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.contains)
			}
		})
	}
}

func TestApplyDefaultsFPS(t *testing.T) {
	out, warns, err := Apply(payload, model.Options{Duration: 3}, 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.FPS != DefaultFPS {
		t.Fatalf("FPS = %d, want default %d", out.FPS, DefaultFPS)
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %+v", warns)
	}
}

func TestApplyBoundaryFPS(t *testing.T) {
	for _, fps := range []int{MinFPS, MaxFPS} {
		out, _, err := Apply(payload, model.Options{Duration: 3, FPS: fps}, 0)
		if err != nil {
			t.Fatalf("fps %d rejected: %v", fps, err)
		}
		if out.FPS != fps {
			t.Fatalf("fps %d changed to %d", fps, out.FPS)
		}
	}
}

func TestApplyClampsDuration(t *testing.T) {
	// 10s video, start at 8s, 5s requested: only 2s remain.
	opts := model.Options{StartTime: 8, Duration: 5}
	out, warns, err := Apply(payload, opts, 10)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Duration != 2 {
		t.Fatalf("Duration = %v, want 2", out.Duration)
	}
	if len(warns) != 1 || warns[0].Code != model.WarnDurationClamped {
		t.Fatalf("expected one duration_clamped warning, got %+v", warns)
	}
	// Input must be untouched.
	if opts.Duration != 5 {
		t.Fatalf("Apply mutated its input: %v", opts.Duration)
	}
}

func TestApplyClampFloor(t *testing.T) {
	// Start just inside the video: the clamp floors at 0.1s rather than
	// producing a degenerate clip.
	out, warns, err := Apply(payload, model.Options{StartTime: 9.99, Duration: 5}, 10)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Duration != MinDuration {
		t.Fatalf("Duration = %v, want floor %v", out.Duration, MinDuration)
	}
	if len(warns) != 1 {
		t.Fatalf("expected warning, got %+v", warns)
	}
}

func TestApplyExactFitNoWarning(t *testing.T) {
	out, warns, err := Apply(payload, model.Options{StartTime: 7, Duration: 3}, 10)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Duration != 3 || len(warns) != 0 {
		t.Fatalf("exact fit changed: duration %v, warnings %+v", out.Duration, warns)
	}
}

func TestApplyUnknownDurationSkipsClamp(t *testing.T) {
	out, warns, err := Apply(payload, model.Options{StartTime: 100, Duration: 500}, 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Duration != 500 || len(warns) != 0 {
		t.Fatalf("clamped without a known duration: %v %+v", out.Duration, warns)
	}
}

func TestApplyPayloadCeiling(t *testing.T) {
	big := make([]byte, MaxPayloadBytes+1)
	_, _, err := Apply(big, model.Options{Duration: 3}, 0)
	if converr.KindOf(err) != converr.InvalidParameters {
		t.Fatalf("oversized payload: %v", err)
	}

	ok := make([]byte, MaxPayloadBytes)
	if _, _, err := Apply(ok, model.Options{Duration: 3}, 0); err != nil {
		t.Fatalf("payload at the limit rejected: %v", err)
	}
}

func TestOutputDimensions(t *testing.T) {
	cases := []struct {
		name                 string
		srcW, srcH, target   int
		wantW, wantH         int
	}{
		{"16:9 to 640", 1920, 1080, 640, 640, 360},
		{"odd height decremented", 1000, 667, 333, 332, 222},
		{"passthrough", 1280, 720, 0, 1280, 720},
		{"square", 500, 500, 100, 100, 100},
		{"portrait", 1080, 1920, 480, 480, 852},
		{"tiny target floors at 2", 1920, 2, 2, 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := OutputDimensions(tc.srcW, tc.srcH, tc.target)
			if err != nil {
				t.Fatalf("OutputDimensions: %v", err)
			}
			if d.Width != tc.wantW || d.Height != tc.wantH {
				t.Fatalf("got %dx%d, want %dx%d", d.Width, d.Height, tc.wantW, tc.wantH)
			}
			if tc.target > 0 && (d.Width%2 != 0 || d.Height%2 != 0) {
				t.Fatalf("dimensions not even: %dx%d", d.Width, d.Height)
			}
		})
	}
}

func TestOutputDimensionsBadSource(t *testing.T) {
	if _, err := OutputDimensions(0, 1080, 640); converr.KindOf(err) != converr.InvalidParameters {
		t.Fatalf("zero width: %v", err)
	}
	if _, err := OutputDimensions(1920, -1, 640); converr.KindOf(err) != converr.InvalidParameters {
		t.Fatalf("negative height: %v", err)
	}
}

func TestFrameCount(t *testing.T) {
	cases := []struct {
		duration float64
		fps      int
		want     int
	}{
		{3, 10, 30},
		{2.95, 10, 30},
		{0.1, 10, 1},
		{1.01, 1, 2},
	}
	for _, tc := range cases {
		if got := FrameCount(tc.duration, tc.fps); got != tc.want {
			t.Errorf("FrameCount(%v, %d) = %d, want %d", tc.duration, tc.fps, got, tc.want)
		}
	}
}
