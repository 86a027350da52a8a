package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/RevoLabs-IO/video2gif/internal/converr"
	"github.com/RevoLabs-IO/video2gif/internal/execx"
	"github.com/RevoLabs-IO/video2gif/internal/model"
)

// Prober resolves metadata from a video file. It is the narrow boundary to
// the host's media-decode capability; the pipeline depends on nothing else
// about how decoding happens.
type Prober interface {
	Probe(ctx context.Context, path string) (model.Metadata, error)
}

// FFprobe probes files by shelling out to ffprobe.
type FFprobe struct {
	Path    string // ffprobe binary
	Runner  execx.Runner
	Verbose bool
}

// ffprobeOutput mirrors the fields of ffprobe's JSON output we care about.
type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

// Probe runs ffprobe and decodes duration, dimensions, and byte size.
// Undecodable input surfaces as UNSUPPORTED_FORMAT.
func (p *FFprobe) Probe(ctx context.Context, path string) (model.Metadata, error) {
	if p.Path == "" {
		return model.Metadata{}, converr.New(converr.EngineLoadFailed, "ffprobe path is required", nil)
	}
	runner := p.Runner
	if runner == nil {
		runner = execx.NewRunner()
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	res, runErr := runner.Run(ctx, execx.Spec{
		Path:          p.Path,
		Args:          args,
		Verbose:       p.Verbose,
		CaptureStdout: true,
	})
	if runErr != nil {
		return model.Metadata{}, converr.New(converr.UnsupportedFormat,
			fmt.Sprintf("could not decode video metadata: %v", runErr),
			map[string]any{"stderr": string(res.Stderr)})
	}

	var out ffprobeOutput
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return model.Metadata{}, converr.New(converr.UnsupportedFormat,
			fmt.Sprintf("unreadable probe output: %v", err), nil)
	}

	meta := model.Metadata{}
	for _, s := range out.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			meta.Width = s.Width
			meta.Height = s.Height
			break
		}
	}
	if meta.Width == 0 || meta.Height == 0 {
		return model.Metadata{}, converr.New(converr.UnsupportedFormat,
			"no decodable video stream found", nil)
	}

	dur, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil || math.IsNaN(dur) || math.IsInf(dur, 0) || dur <= 0 {
		return model.Metadata{}, converr.New(converr.UnsupportedFormat,
			fmt.Sprintf("video duration is not decodable (%q)", out.Format.Duration), nil)
	}
	meta.Duration = dur

	if sz, err := strconv.ParseInt(out.Format.Size, 10, 64); err == nil {
		meta.Size = sz
	} else if fi, err := os.Stat(path); err == nil {
		meta.Size = fi.Size()
	}

	return meta, nil
}
