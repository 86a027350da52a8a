package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RevoLabs-IO/video2gif/internal/capability"
	"github.com/RevoLabs-IO/video2gif/internal/deps"
	"github.com/RevoLabs-IO/video2gif/internal/execx"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Check engine binaries and host capabilities",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assetDir := getPersistentString(cmd, "asset-dir", "")
			runner := execx.NewRunner()

			missing := 0
			check := func(name, explicit string, find func(string, string) (string, error)) {
				path, err := find(explicit, assetDir)
				if err != nil {
					fmt.Printf("✗ %-8s not found\n", name)
					missing++
					return
				}
				version := binaryVersion(cmd, runner, path)
				fmt.Printf("✓ %-8s %s\n", name, path)
				if version != "" {
					fmt.Printf("           %s\n", version)
				}
			}
			check("ffmpeg", getPersistentString(cmd, "ffmpeg", ""), deps.FindFFmpeg)
			check("ffprobe", getPersistentString(cmd, "ffprobe", ""), deps.FindFFprobe)

			snap := capability.Detect()
			fmt.Println()
			fmt.Println("Host capabilities:")
			fmt.Printf("  Atomics:              %v\n", snap.Atomics)
			fmt.Printf("  Shared memory:        %v\n", snap.SharedMemory)
			fmt.Printf("  Threading:            %v\n", snap.Threading)
			fmt.Printf("  Multi-thread usable:  %v\n", snap.MultiThread)
			fmt.Printf("  Hardware concurrency: %d\n", snap.HardwareConcurrency)
			fmt.Printf("  Total memory:         %d MB\n", snap.TotalMemoryMB)

			if missing > 0 {
				fmt.Fprintln(os.Stderr, "\ninstall the missing binaries or point --ffmpeg/--ffprobe/--asset-dir at them")
				return &ExitError{Code: ExitMissingDep, Err: fmt.Errorf("%d required binarie(s) missing", missing)}
			}
			return nil
		},
	}
}

// binaryVersion returns the first line of `<bin> -version`, or "".
func binaryVersion(cmd *cobra.Command, runner execx.Runner, path string) string {
	res, err := runner.Run(cmd.Context(), execx.Spec{
		Path:          path,
		Args:          []string{"-version"},
		CaptureStdout: true,
	})
	if err != nil {
		return ""
	}
	line, _, _ := bytes.Cut(res.Stdout, []byte("\n"))
	return string(bytes.TrimSpace(line))
}
