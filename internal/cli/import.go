package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/service"
)

type importOptions struct {
	file   string
	tenant string
	dryRun bool
}

// NewImportCommand creates the legacy CSV import command.
func NewImportCommand(rootOpts *RootOptions, factory RuntimeFactory) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a legacy inquiry spreadsheet",
		Long: `Import inquiries exported from the legacy spreadsheet.

Headers are matched case-insensitively. Rows failing validation are skipped
and reported; the remaining rows are written in one transaction with fresh
case ids continuing after the larger of the live and legacy maximum.

Run during a maintenance window: concurrent intake makes the batch abort.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, opts, factory)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "CSV file to import (- for stdin)")
	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "tenant for rows without a tenant column")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "parse and allocate without writing")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(cmd *cobra.Command, rootOpts *RootOptions, opts *importOptions, factory RuntimeFactory) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	var in io.Reader = cmd.InOrStdin()
	if opts.file != "-" {
		f, err := os.Open(opts.file)
		if err != nil {
			return formatter.Failure(ExitCommandError, "open import file", err)
		}
		defer f.Close()
		in = f
	}

	rt, err := openRuntime(cmd, rootOpts, factory)
	if err != nil {
		return err
	}
	defer rt.Close()

	formatter.VerboseLog("importing %s (tenant=%q dry-run=%t)", opts.file, opts.tenant, opts.dryRun)
	report, err := rt.Importer.Import(cmd.Context(), in, service.ImportOptions{TenantID: opts.tenant, DryRun: opts.dryRun})
	if err != nil {
		return formatter.Failure(ExitFailure, "import failed", err)
	}

	if err := formatter.Success(report, func(w io.Writer) { printImportReport(w, report) }); err != nil {
		return err
	}
	if report.Rows > 0 && report.Imported == 0 {
		return NewExitError(ExitFailure, "no rows imported")
	}
	return nil
}

func printImportReport(w io.Writer, report *dto.ImportReport) {
	verb := "Imported"
	if report.DryRun {
		verb = "Would import"
	}
	fmt.Fprintf(w, "%s %d of %d rows\n", verb, report.Imported, report.Rows)
	if report.FirstCaseID != "" {
		fmt.Fprintf(w, "Case ids: %s .. %s\n", report.FirstCaseID, report.LastCaseID)
	}
	for _, skip := range report.Skipped {
		fmt.Fprintf(w, "  skipped line %d: %s\n", skip.Row, skip.Reason)
	}
}
