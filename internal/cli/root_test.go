package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admissions-api/internal/dto"
	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/internal/service"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
)

type importerFake struct {
	body   string
	opts   service.ImportOptions
	report *dto.ImportReport
	err    error
}

func (f *importerFake) Import(ctx context.Context, r io.Reader, opts service.ImportOptions) (*dto.ImportReport, error) {
	data, _ := io.ReadAll(r)
	f.body = string(data)
	f.opts = opts
	return f.report, f.err
}

type sweeperFake struct {
	calls int
}

func (f *sweeperFake) Sweep(ctx context.Context) (models.SweepResult, error) {
	f.calls++
	return models.SweepResult{Attempted: 3, Succeeded: 2}, nil
}

type tokensFake struct {
	role models.UserRole
}

func (f *tokensFake) IssueToken(userID string, role models.UserRole, tenantID string, ttl time.Duration) (string, time.Time, error) {
	f.role = role
	return "signed-token", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

type runtimeFixture struct {
	importer *importerFake
	sweeper  *sweeperFake
	tokens   *tokensFake
	migrated bool
	closed   bool
	opened   int
}

func (f *runtimeFixture) factory(ctx context.Context, opts *RootOptions) (*Runtime, error) {
	f.opened++
	return &Runtime{
		Importer: f.importer,
		Sweeper:  f.sweeper,
		Tokens:   f.tokens,
		Migrate: func(ctx context.Context) error {
			f.migrated = true
			return nil
		},
		Close: func() { f.closed = true },
	}, nil
}

func newFixture() *runtimeFixture {
	return &runtimeFixture{
		importer: &importerFake{report: &dto.ImportReport{Rows: 3, Imported: 2, FirstCaseID: "S-13", LastCaseID: "S-14", Skipped: []dto.SkipEntry{{Row: 4, Reason: "phone: required"}}}},
		sweeper:  &sweeperFake{},
		tokens:   &tokensFake{},
	}
}

func execute(t *testing.T, fixture *runtimeFixture, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(fixture.factory)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(newFixture().factory)
	for _, name := range []string{"import", "sweep", "migrate", "token"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestImportCommandText(t *testing.T) {
	fixture := newFixture()
	path := writeCSV(t, "student_name,parent_name,phone\nAsha,Ravi,9876543210\n")

	out, err := execute(t, fixture, "import", "--file", path, "--tenant", "north")
	require.NoError(t, err)

	assert.Contains(t, fixture.importer.body, "Asha,Ravi")
	assert.Equal(t, "north", fixture.importer.opts.TenantID)
	assert.False(t, fixture.importer.opts.DryRun)
	assert.Contains(t, out, "Imported 2 of 3 rows")
	assert.Contains(t, out, "S-13 .. S-14")
	assert.Contains(t, out, "skipped line 4: phone: required")
	assert.True(t, fixture.closed)
}

func TestImportCommandJSONDryRun(t *testing.T) {
	fixture := newFixture()
	fixture.importer.report.DryRun = true
	path := writeCSV(t, "student_name\n")

	out, err := execute(t, fixture, "--format", "json", "import", "-f", path, "--dry-run")
	require.NoError(t, err)
	assert.True(t, fixture.importer.opts.DryRun)

	var resp struct {
		Status string           `json:"status"`
		Data   dto.ImportReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "S-13", resp.Data.FirstCaseID)
	assert.True(t, resp.Data.DryRun)
}

func TestImportCommandConflictExitCode(t *testing.T) {
	fixture := newFixture()
	fixture.importer.err = appErrors.Clone(appErrors.ErrConflict, "case id collision")
	path := writeCSV(t, "student_name\n")

	out, err := execute(t, fixture, "import", "--file", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [CONFLICT]: case id collision")
}

func TestImportCommandMissingFile(t *testing.T) {
	fixture := newFixture()
	_, err := execute(t, fixture, "import", "--file", filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, 0, fixture.opened)

	_, err = execute(t, fixture, "import")
	assert.Error(t, err)
}

func TestSweepAndMigrateCommands(t *testing.T) {
	fixture := newFixture()

	out, err := execute(t, fixture, "sweep")
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.sweeper.calls)
	assert.Contains(t, out, "Attempted 3, succeeded 2")

	_, err = execute(t, fixture, "migrate")
	require.NoError(t, err)
	assert.True(t, fixture.migrated)
}

func TestTokenCommand(t *testing.T) {
	fixture := newFixture()

	out, err := execute(t, fixture, "token", "--user", "meera@school.test", "--role", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, fixture.tokens.role)
	assert.Equal(t, "signed-token\n", out)

	_, err = execute(t, fixture, "token", "--user", "x", "--role", "parent")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRuntimeFailureIsCommandError(t *testing.T) {
	cmd := NewRootCommand(func(ctx context.Context, opts *RootOptions) (*Runtime, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"sweep"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, newFixture(), "--format", "yaml", "sweep")
	assert.Error(t, err)
}
