package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-admissions-api/internal/models"
)

type tokenOptions struct {
	user   string
	role   string
	tenant string
	ttl    time.Duration
}

// NewTokenCommand mints a bearer token for staff tooling and smoke tests.
func NewTokenCommand(rootOpts *RootOptions, factory RuntimeFactory) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:           "token",
		Short:         "Issue a staff access token",
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

			role := models.UserRole(strings.ToUpper(strings.TrimSpace(opts.role)))
			if role != models.RoleAdmin && role != models.RoleCounselor {
				return formatter.Failure(ExitCommandError, "invalid role", fmt.Errorf("role must be ADMIN or COUNSELOR, got %q", opts.role))
			}

			rt, err := openRuntime(cmd, rootOpts, factory)
			if err != nil {
				return err
			}
			defer rt.Close()

			token, expires, err := rt.Tokens.IssueToken(opts.user, role, opts.tenant, opts.ttl)
			if err != nil {
				return formatter.Failure(ExitFailure, "issue token", err)
			}
			data := map[string]interface{}{"token": token, "expiresAt": expires.UTC().Format(time.RFC3339)}
			return formatter.Success(data, func(w io.Writer) {
				fmt.Fprintln(w, token)
			})
		},
	}

	cmd.Flags().StringVar(&opts.user, "user", "", "user id or email to embed")
	cmd.Flags().StringVar(&opts.role, "role", string(models.RoleCounselor), "ADMIN or COUNSELOR")
	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "tenant claim")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
