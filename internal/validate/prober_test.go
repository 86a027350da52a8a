package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/RevoLabs-IO/video2gif/internal/converr"
	"github.com/RevoLabs-IO/video2gif/internal/execx"
)

type cannedRunner struct {
	stdout string
	stderr string
	err    error

	gotSpec execx.Spec
}

func (c *cannedRunner) Run(ctx context.Context, spec execx.Spec) (execx.Result, error) {
	c.gotSpec = spec
	return execx.Result{Stdout: []byte(c.stdout), Stderr: []byte(c.stderr)}, c.err
}

const probeJSON = `{
  "streams": [
    {"codec_type": "audio"},
    {"codec_type": "video", "width": 1920, "height": 1080}
  ],
  "format": {"duration": "10.500000", "size": "2048000"}
}`

func TestFFprobeProbe(t *testing.T) {
	r := &cannedRunner{stdout: probeJSON}
	p := &FFprobe{Path: "/usr/bin/ffprobe", Runner: r}

	meta, err := p.Probe(context.Background(), "/tmp/in.mp4")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.Width != 1920 || meta.Height != 1080 {
		t.Fatalf("dimensions = %dx%d", meta.Width, meta.Height)
	}
	if meta.Duration != 10.5 {
		t.Fatalf("duration = %v", meta.Duration)
	}
	if meta.Size != 2048000 {
		t.Fatalf("size = %d", meta.Size)
	}
	if r.gotSpec.Path != "/usr/bin/ffprobe" {
		t.Fatalf("ran %q", r.gotSpec.Path)
	}
	if !r.gotSpec.CaptureStdout {
		t.Fatal("probe must capture stdout")
	}
}

func TestFFprobeRunFailure(t *testing.T) {
	r := &cannedRunner{err: errors.New("exit status 1"), stderr: "moov atom not found"}
	p := &FFprobe{Path: "/usr/bin/ffprobe", Runner: r}
	_, err := p.Probe(context.Background(), "/tmp/in.bin")
	if converr.KindOf(err) != converr.UnsupportedFormat {
		t.Fatalf("kind = %s, want UNSUPPORTED_FORMAT", converr.KindOf(err))
	}
}

func TestFFprobeNoVideoStream(t *testing.T) {
	r := &cannedRunner{stdout: `{"streams":[{"codec_type":"audio"}],"format":{"duration":"3"}}`}
	p := &FFprobe{Path: "/usr/bin/ffprobe", Runner: r}
	_, err := p.Probe(context.Background(), "/tmp/audio.m4a")
	if converr.KindOf(err) != converr.UnsupportedFormat {
		t.Fatalf("kind = %s", converr.KindOf(err))
	}
}

func TestFFprobeBadDuration(t *testing.T) {
	for _, dur := range []string{"", "N/A", "0", "-1", "inf"} {
		r := &cannedRunner{stdout: `{"streams":[{"codec_type":"video","width":10,"height":10}],"format":{"duration":"` + dur + `"}}`}
		p := &FFprobe{Path: "/usr/bin/ffprobe", Runner: r}
		if _, err := p.Probe(context.Background(), "x"); converr.KindOf(err) != converr.UnsupportedFormat {
			t.Errorf("duration %q: kind = %s", dur, converr.KindOf(err))
		}
	}
}

func TestFFprobeUnparseableOutput(t *testing.T) {
	r := &cannedRunner{stdout: "not json at all"}
	p := &FFprobe{Path: "/usr/bin/ffprobe", Runner: r}
	if _, err := p.Probe(context.Background(), "x"); converr.KindOf(err) != converr.UnsupportedFormat {
		t.Fatalf("kind = %s", converr.KindOf(err))
	}
}

func TestFFprobeRequiresPath(t *testing.T) {
	p := &FFprobe{}
	if _, err := p.Probe(context.Background(), "x"); converr.KindOf(err) != converr.EngineLoadFailed {
		t.Fatalf("kind = %s", converr.KindOf(err))
	}
}
