package model

import "time"

// ThreadingFlag values accepted by the CLI --threads flag.
const (
	ThreadsAuto   = "auto"
	ThreadsSingle = "single"
	ThreadsMulti  = "multi"
)

// CLIOptions holds user-configurable runtime options as parsed from flags.
type CLIOptions struct {
	OutDir string

	StartTime float64
	Duration  float64
	FPS       int
	Scale     int

	Timeout  time.Duration
	Threads  string // auto | single | multi
	AssetDir string
	FFmpeg   string // explicit engine binary
	FFprobe  string // explicit probe binary
	KeepTemp bool
	Verbose  bool

	NoUI bool // Disable TUI when true
	Jobs int  // Max concurrent jobs for TUI
}

// ConversionOptions maps the CLI flags onto per-request Options.
func (c CLIOptions) ConversionOptions() Options {
	return Options{
		StartTime: c.StartTime,
		Duration:  c.Duration,
		FPS:       c.FPS,
		Scale:     c.Scale,
	}
}

// EngineConfig maps the CLI flags onto an EngineConfig.
func (c CLIOptions) EngineConfig() EngineConfig {
	cfg := EngineConfig{
		AssetDir:    c.AssetDir,
		FFmpegPath:  c.FFmpeg,
		FFprobePath: c.FFprobe,
		Timeout:     c.Timeout,
		KeepTemp:    c.KeepTemp,
		Verbose:     c.Verbose,
	}
	switch c.Threads {
	case ThreadsSingle:
		f := false
		cfg.MultiThread = &f
	case ThreadsMulti:
		t := true
		cfg.MultiThread = &t
	}
	return cfg
}
