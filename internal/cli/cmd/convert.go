package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	video2gif "github.com/RevoLabs-IO/video2gif"
	"github.com/RevoLabs-IO/video2gif/internal/format"
	"github.com/RevoLabs-IO/video2gif/internal/model"
	"github.com/RevoLabs-IO/video2gif/internal/ui"
	"github.com/RevoLabs-IO/video2gif/internal/validate"
)

type runMode struct {
	ForceTUI bool
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "convert [files...]",
		Short:         "Render video clips to animated GIFs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		PreRunE:       runPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{ForceTUI: false})
		},
	}
	bindConvertFlags(cmd.Flags())
	return cmd
}

type ctxKey string

const runInputsKey ctxKey = "runInputs"

type runInputs struct {
	Files   []string
	Options model.CLIOptions
}

func runPreRun(cmd *cobra.Command, args []string) error {
	files, opts, err := assembleRunInputs(cmd, args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	ctx := context.WithValue(cmd.Context(), runInputsKey, runInputs{
		Files:   files,
		Options: opts,
	})
	cmd.SetContext(ctx)
	return nil
}

func assembleRunInputs(cmd *cobra.Command, args []string) ([]string, model.CLIOptions, error) {
	outDir := getPersistentString(cmd, "out-dir", ".")
	verbose := getPersistentBool(cmd, "verbose", false)
	assetDir := getPersistentString(cmd, "asset-dir", "")
	ffmpeg := getPersistentString(cmd, "ffmpeg", "")
	ffprobe := getPersistentString(cmd, "ffprobe", "")
	jobs := getPersistentInt(cmd, "jobs", 2)
	if jobs <= 0 {
		jobs = 2
	}

	start, _ := cmd.Flags().GetFloat64("start")
	duration, _ := cmd.Flags().GetFloat64("duration")
	fps, _ := cmd.Flags().GetInt("fps")
	scale, _ := cmd.Flags().GetInt("scale")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	threads, _ := cmd.Flags().GetString("threads")
	keepTemp, _ := cmd.Flags().GetBool("keep-temp")
	noUI, _ := cmd.Flags().GetBool("no-ui")

	threads = strings.ToLower(threads)
	switch threads {
	case model.ThreadsAuto, model.ThreadsSingle, model.ThreadsMulti:
	default:
		return nil, model.CLIOptions{}, fmt.Errorf("invalid --threads: %q (valid: auto|single|multi)", threads)
	}
	if fps != 0 && (fps < validate.MinFPS || fps > validate.MaxFPS) {
		return nil, model.CLIOptions{}, fmt.Errorf("invalid --fps: %d (valid range: %d-%d)", fps, validate.MinFPS, validate.MaxFPS)
	}

	var files []string
	for _, raw := range args {
		if _, err := os.Stat(raw); err != nil {
			return nil, model.CLIOptions{}, fmt.Errorf("input file %q: %v", raw, err)
		}
		files = append(files, raw)
	}

	opts := model.CLIOptions{
		OutDir:    filepath.Clean(outDir),
		StartTime: start,
		Duration:  duration,
		FPS:       fps,
		Scale:     scale,
		Timeout:   timeout,
		Threads:   threads,
		AssetDir:  assetDir,
		FFmpeg:    ffmpeg,
		FFprobe:   ffprobe,
		KeepTemp:  keepTemp,
		Verbose:   verbose,
		NoUI:      noUI,
		Jobs:      jobs,
	}
	return files, opts, nil
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	var in runInputs
	if v := cmd.Context().Value(runInputsKey); v != nil {
		in = v.(runInputs)
	} else {
		files, opts, err := assembleRunInputs(cmd, args)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		in = runInputs{Files: files, Options: opts}
	}

	if err := ensureDir(in.Options.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %v", err)}
	}

	useTUI := mode.ForceTUI || (!in.Options.NoUI && isTerminal())
	if useTUI {
		if err := ui.Run(cmd.Context(), in.Files, in.Options); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		return nil
	}

	for _, file := range in.Files {
		if err := convertOne(cmd.Context(), file, in.Options); err != nil {
			var ee *ExitError
			if errors.As(err, &ee) {
				return ee
			}
			return &ExitError{Code: ExitConvertError, Err: err}
		}
	}
	return nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func convertOne(ctx context.Context, file string, opts model.CLIOptions) error {
	payload, err := os.ReadFile(file)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("read %s: %v", file, err)}
	}

	convOpts := opts.ConversionOptions()
	if opts.Verbose {
		convOpts.OnProgress = func(p video2gif.Progress) {
			fmt.Fprintf(os.Stderr, "[%s] %.0f%%\n", p.Stage, p.Percent)
		}
	}

	cfg := opts.EngineConfig()
	if opts.Verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	res, err := video2gif.ConvertWithMetadata(ctx, payload, convOpts, &cfg)
	if err != nil {
		return &ExitError{Code: ExitConvertError, Err: fmt.Errorf("convert %s: %v", file, err)}
	}

	outPath := outputPath(opts.OutDir, file)
	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		return &ExitError{Code: ExitConvertError, Err: fmt.Errorf("write %s: %v", outPath, err)}
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}
	fmt.Printf("Saved: %s (%s, %dx%d, %d frames, %s, %s threading)\n",
		outPath,
		format.HumanizeBytes(int64(len(res.Data))),
		res.Dimensions.Width, res.Dimensions.Height,
		res.FrameCount,
		format.HumanizeDuration(res.Stats.Elapsed),
		res.Stats.ThreadingMode,
	)
	return nil
}

// outputPath derives the GIF path for an input file inside outDir.
func outputPath(outDir, inputPath string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "output"
	}
	return filepath.Join(outDir, stem+".gif")
}
