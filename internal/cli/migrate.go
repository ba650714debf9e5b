package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the schema migration command.
func NewMigrateCommand(rootOpts *RootOptions, factory RuntimeFactory) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Create or upgrade the inquiry schema",
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

			if err := rt.Migrate(cmd.Context()); err != nil {
				return formatter.Failure(ExitFailure, "migration failed", err)
			}
			return formatter.Success(map[string]bool{"migrated": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Schema is up to date")
			})
		},
	}
}
