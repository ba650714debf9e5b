// Package cli implements intake-cli, the operator tool for legacy imports,
// manual sync sweeps and schema migration.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-admissions-api/internal/bootstrap"
	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/internal/service"
	"github.com/noah-isme/sma-admissions-api/pkg/config"
	"github.com/noah-isme/sma-admissions-api/pkg/database"
	"github.com/noah-isme/sma-admissions-api/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

type importer interface {
	Import(ctx context.Context, r io.Reader, opts service.ImportOptions) (*dto.ImportReport, error)
}

type sweeper interface {
	Sweep(ctx context.Context) (models.SweepResult, error)
}

type tokenIssuer interface {
	IssueToken(userID string, role models.UserRole, tenantID string, ttl time.Duration) (string, time.Time, error)
}

// Runtime is what a command needs from the assembled process.
type Runtime struct {
	Importer importer
	Sweeper  sweeper
	Tokens   tokenIssuer
	Migrate  func(ctx context.Context) error
	Close    func()
}

// RuntimeFactory builds a Runtime. Commands call it lazily so --help never
// touches the database.
type RuntimeFactory func(ctx context.Context, opts *RootOptions) (*Runtime, error)

// NewRootCommand creates the root command. A nil factory connects using the
// environment configuration.
func NewRootCommand(factory RuntimeFactory) *cobra.Command {
	if factory == nil {
		factory = DefaultRuntime
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "intake-cli",
		Short: "Admissions intake operator tool",
		Long:  "Operator commands for the admissions inquiry store: legacy CSV import, mirror sync sweeps and schema migration.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewImportCommand(opts, factory))
	cmd.AddCommand(NewSweepCommand(opts, factory))
	cmd.AddCommand(NewMigrateCommand(opts, factory))
	cmd.AddCommand(NewTokenCommand(opts, factory))

	return cmd
}

// DefaultRuntime loads configuration from the environment and assembles the
// same service graph the API server uses.
func DefaultRuntime(ctx context.Context, opts *RootOptions) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	c, err := bootstrap.New(ctx, cfg, logr)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		Importer: c.Imports,
		Sweeper:  c.Sync,
		Tokens:   c.Auth,
		Migrate: func(ctx context.Context) error {
			return database.Migrate(ctx, c.DB)
		},
		Close: func() {
			c.Close()
			_ = logr.Sync()
		},
	}, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func openRuntime(cmd *cobra.Command, opts *RootOptions, factory RuntimeFactory) (*Runtime, error) {
	rt, err := factory(cmd.Context(), opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "startup failed", err)
	}
	if rt.Close == nil {
		rt.Close = func() {}
	}
	return rt, nil
}
