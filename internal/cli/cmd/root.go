package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/RevoLabs-IO/video2gif/internal/config"
)

const (
	ExitOK           = 0
	ExitCLIError     = 1
	ExitMissingDep   = 2
	ExitProbeError   = 3
	ExitConvertError = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "video2gif [files...]",
		Short:         "Turn video clips into animated GIFs",
		Long:          "video2gif renders a sub-clip of a video to an animated GIF. Point it at a file, pick a start time and duration, and it drives the encoding engine for you: validation, scaling, palette generation, and progress reporting included.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation behaves like the convert subcommand.
			return runExecute(cmd, args, runMode{ForceTUI: false})
		},
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().StringP("out-dir", "o", ".", "Output directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show full engine commands/output")
	root.PersistentFlags().String("asset-dir", "", "Directory holding the engine binaries")
	root.PersistentFlags().String("ffmpeg", "", "Path to the ffmpeg binary")
	root.PersistentFlags().String("ffprobe", "", "Path to the ffprobe binary")
	root.PersistentFlags().Int("jobs", 2, "Max concurrent jobs in TUI")

	// Also bind convert flags on root, so `video2gif <file>` works directly.
	bindConvertFlags(root.Flags())

	// Subcommands
	root.AddCommand(newConvertCmd())
	root.AddCommand(newProbeCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindConvertFlags(fs *pflag.FlagSet) {
	fs.Float64("start", 0, "Clip start time in seconds")
	fs.Float64P("duration", "d", 3, "Clip duration in seconds")
	fs.Int("fps", 0, "Output frame rate (1-30); 0 uses the default (10)")
	fs.Int("scale", 0, "Target output width in pixels; 0 keeps the source width")
	fs.Duration("timeout", 0, "Per-file conversion timeout; 0 uses the default (5m)")
	fs.String("threads", "auto", "Engine threading: auto, single, multi")
	fs.Bool("keep-temp", false, "Keep per-request workspace files")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	_ = config.Init(root)
	return root.ExecuteContext(ctx)
}

// Helpers. Persistent flags are merged into Flags() at parse time, so these
// work on the root command and on subcommands alike.
func getPersistentString(cmd *cobra.Command, name, def string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil || v == "" {
		return def
	}
	return v
}

func getPersistentBool(cmd *cobra.Command, name string, def bool) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return def
	}
	return v
}

func getPersistentInt(cmd *cobra.Command, name string, def int) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return def
	}
	return v
}

func ensureDir(path string) error {
	if path == "" {
		path = "."
	}
	return os.MkdirAll(filepath.Clean(path), 0o755)
}
