package conversion

import (
	"strings"
	"testing"

	"github.com/RevoLabs-IO/video2gif/internal/model"
)

func TestBuildArgs(t *testing.T) {
	opts := model.Options{StartTime: 2, Duration: 3, FPS: 10, Scale: 480}
	dims := model.Dimensions{Width: 480, Height: 270}
	argv := BuildArgs("src-abc", "out-abc.gif", opts, dims)

	joined := strings.Join(argv, " ")
	for _, want := range []string{
		"-ss 2.000",
		"-t 3.000",
		"-i src-abc",
		"fps=10",
		"scale=480:270:flags=lanczos",
		"palettegen",
		"paletteuse",
		"-loop 0",
		"-progress pipe:1",
		"-f gif out-abc.gif",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("argv missing %q: %s", want, joined)
		}
	}
	if argv[len(argv)-1] != "out-abc.gif" {
		t.Fatalf("output must be the final argument, got %q", argv[len(argv)-1])
	}
}

func TestBuildArgsFractionalSeek(t *testing.T) {
	opts := model.Options{StartTime: 1.5, Duration: 0.1, FPS: 1}
	argv := BuildArgs("in", "out.gif", opts, model.Dimensions{Width: 2, Height: 2})
	joined := strings.Join(argv, " ")
	if !strings.Contains(joined, "-ss 1.500") || !strings.Contains(joined, "-t 0.100") {
		t.Fatalf("fractional seconds lost: %s", joined)
	}
}
