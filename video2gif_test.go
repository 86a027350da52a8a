package video2gif

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RevoLabs-IO/video2gif/internal/converr"
)

// noProbe points the probe binary at a path that cannot resolve, making
// metadata probing deterministically unavailable.
func noProbe(t *testing.T) *EngineConfig {
	t.Helper()
	return &EngineConfig{
		FFmpegPath:  filepath.Join(t.TempDir(), "no-ffmpeg"),
		FFprobePath: filepath.Join(t.TempDir(), "no-ffprobe"),
	}
}

func TestValidateRequestRejectsBadParameters(t *testing.T) {
	v := ValidateRequest(context.Background(), nil, Options{Duration: 3}, noProbe(t))
	if v.Valid {
		t.Fatal("empty payload validated")
	}
	if len(v.Errors) == 0 || !strings.Contains(v.Errors[0], "payload") {
		t.Fatalf("errors = %+v", v.Errors)
	}

	v = ValidateRequest(context.Background(), []byte("data"), Options{Duration: 3, FPS: 99}, noProbe(t))
	if v.Valid {
		t.Fatal("out-of-range fps validated")
	}
}

func TestValidateRequestWithoutProber(t *testing.T) {
	v := ValidateRequest(context.Background(), []byte("data"), Options{Duration: 3}, noProbe(t))
	if !v.Valid {
		t.Fatalf("parameter-valid request rejected: %+v", v.Errors)
	}
	found := false
	for _, w := range v.Warnings {
		if strings.Contains(w, "metadata probing unavailable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing probe-unavailable warning: %+v", v.Warnings)
	}
}

func TestErrorKindOf(t *testing.T) {
	err := converr.New(converr.TimeoutExceeded, "too slow", nil)
	if ErrorKindOf(err) != ErrTimeoutExceeded {
		t.Fatalf("kind = %s", ErrorKindOf(err))
	}
	if ErrorKindOf(errors.New("plain")) != ErrUnknown {
		t.Fatal("unclassified error must map to ErrUnknown")
	}
}

func TestUserMessage(t *testing.T) {
	err := converr.New(converr.Cancelled, "internal detail", nil)
	msg := UserMessage(err)
	if msg == "" || strings.Contains(msg, "internal detail") {
		t.Fatalf("user message leaks internals: %q", msg)
	}
	a := UserMessage(converr.New(converr.ConversionFailed, "x", nil))
	b := UserMessage(converr.New(converr.ConversionFailed, "y", nil))
	if a != b {
		t.Fatal("user message not stable per kind")
	}
}

func TestDetectCapabilitiesStable(t *testing.T) {
	if DetectCapabilities() != DetectCapabilities() {
		t.Fatal("capability snapshots differ across calls")
	}
}
