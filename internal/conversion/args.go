package conversion

import (
	"fmt"
	"strconv"

	"github.com/RevoLabs-IO/video2gif/internal/model"
)

// BuildArgs constructs the engine argv for one GIF encode: seek to the clip
// window, resample to the requested rate and size, and render through a
// generated palette. Progress is requested on stdout for synthesis.
func BuildArgs(inName, outName string, opts model.Options, dims model.Dimensions) []string {
	filter := fmt.Sprintf(
		"fps=%d,scale=%d:%d:flags=lanczos,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse",
		opts.FPS, dims.Width, dims.Height,
	)
	return []string{
		"-y",
		"-ss", formatSeconds(opts.StartTime),
		"-t", formatSeconds(opts.Duration),
		"-i", inName,
		"-vf", filter,
		"-loop", "0",
		"-progress", "pipe:1",
		"-nostats",
		"-f", "gif",
		outName,
	}
}

// formatSeconds renders a seconds value with millisecond precision, the
// finest granularity the seek arguments accept reliably.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
