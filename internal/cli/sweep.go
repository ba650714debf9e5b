package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewSweepCommand creates the manual mirror retry command.
func NewSweepCommand(rootOpts *RootOptions, factory RuntimeFactory) *cobra.Command {
	return &cobra.Command{
		Use:           "sweep",
		Short:         "Redeliver unsynced inquiries to the spreadsheet mirror",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			rt, err := openRuntime(cmd, rootOpts, factory)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.Sweeper.Sweep(cmd.Context())
			if err != nil {
				return formatter.Failure(ExitFailure, "sweep failed", err)
			}
			return formatter.Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "Attempted %d, succeeded %d\n", result.Attempted, result.Succeeded)
			})
		},
	}
}
