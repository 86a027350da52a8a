package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	video2gif "github.com/RevoLabs-IO/video2gif"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "validate [files...]",
		Short:         "Check conversion parameters without encoding",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, opts, err := assembleRunInputs(cmd, args)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}

			convOpts := opts.ConversionOptions()
			cfg := opts.EngineConfig()

			invalid := 0
			for _, file := range files {
				payload, err := os.ReadFile(file)
				if err != nil {
					return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("read %s: %v", file, err)}
				}
				v := video2gif.ValidateRequest(cmd.Context(), payload, convOpts, &cfg)
				printValidation(file, v)
				if !v.Valid {
					invalid++
				}
			}
			if invalid > 0 {
				return &ExitError{Code: ExitProbeError, Err: fmt.Errorf("%d of %d request(s) invalid", invalid, len(files))}
			}
			return nil
		},
	}
	bindConvertFlags(cmd.Flags())
	return cmd
}

func printValidation(file string, v video2gif.Validation) {
	status := "OK"
	if !v.Valid {
		status = "INVALID"
	}
	fmt.Printf("%s: %s\n", file, status)
	for _, e := range v.Errors {
		fmt.Printf("  error:   %s\n", e)
	}
	for _, w := range v.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}
