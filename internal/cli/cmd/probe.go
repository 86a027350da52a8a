package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RevoLabs-IO/video2gif/internal/deps"
	"github.com/RevoLabs-IO/video2gif/internal/format"
	"github.com/RevoLabs-IO/video2gif/internal/validate"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "probe [files...]",
		Short:         "Inspect video metadata without converting",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose := getPersistentBool(cmd, "verbose", false)
			assetDir := getPersistentString(cmd, "asset-dir", "")
			explicit := getPersistentString(cmd, "ffprobe", "")

			path, err := deps.FindFFprobe(explicit, assetDir)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			prober := &validate.FFprobe{Path: path, Verbose: verbose}

			failed := 0
			for _, file := range args {
				if _, err := os.Stat(file); err != nil {
					return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("input file %q: %v", file, err)}
				}
				meta, err := prober.Probe(cmd.Context(), file)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
					failed++
					continue
				}
				frames := validate.FrameCount(meta.Duration, validate.DefaultFPS)
				fmt.Printf("%s\n", file)
				fmt.Printf("  Dimensions: %dx%d\n", meta.Width, meta.Height)
				fmt.Printf("  Duration:   %.3fs\n", meta.Duration)
				fmt.Printf("  Size:       %s\n", format.HumanizeBytes(meta.Size))
				fmt.Printf("  Frames:     ~%d at default %d fps\n", frames, validate.DefaultFPS)
			}
			if failed > 0 {
				return &ExitError{Code: ExitProbeError, Err: fmt.Errorf("%d of %d file(s) failed to probe", failed, len(args))}
			}
			return nil
		},
	}
}
