package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2beens/sportsee/internal/auth"
	"github.com/2beens/sportsee/internal/users"
	"github.com/2beens/sportsee/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFixture = "../../internal/users/testdata/users.json"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestHashPassword(t *testing.T) {
	out, _, err := execute(t, "hash-password", "--cost", "4", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"))
	assert.True(t, pkg.CheckPasswordHash("s3cret", hash))

	_, _, err = execute(t, "hash-password")
	require.Error(t, err)
}

func TestValidateFixture(t *testing.T) {
	out, _, err := execute(t, "validate-fixture", testFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "2 users\n")
	assert.Contains(t, out, "user123\tsophiemartin\t6 sessions\t2025-12-01..2026-01-05\n")
	assert.Contains(t, out, "user456\temmaleroy\t0 sessions\t-..-\n")
}

func TestValidateFixture_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "u1", "username": "a", "password": "p"},
		{"id": "u1", "username": "", "password": "p"}
	]`), 0o600))

	_, stderr, err := execute(t, "validate-fixture", path)
	require.Error(t, err)
	assert.Contains(t, stderr, "u1")
}

func TestMintToken(t *testing.T) {
	t.Setenv("SPORTSEE_JWT_SECRET", "ctl-test-secret")

	out, _, err := execute(t, "mint-token", "--user", "user456", "--ttl", "5m")
	require.NoError(t, err)

	checker := auth.NewLoginChecker("ctl-test-secret", auth.NewMemoryRevocationList())
	claims, err := checker.Check(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "user456", claims.UserID)

	_, _, err = execute(t, "mint-token")
	require.Error(t, err)

	t.Setenv("SPORTSEE_JWT_SECRET", "")
	_, _, err = execute(t, "mint-token", "--user", "user456")
	require.EqualError(t, err, "jwt secret not set. use SPORTSEE_JWT_SECRET")
}

func TestReport(t *testing.T) {
	out, _, err := execute(t,
		"report",
		"--fixture", testFixture,
		"--user", "user123",
		"--end", "2025-12-07",
		"--weeks", "2",
		"--lang", "en",
	)
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "Sophie", r.User.FirstName)

	require.Len(t, r.WeeklyDistance, 2)
	assert.Equal(t, "2025-11-24", r.WeeklyDistance[0].StartIso)
	assert.Equal(t, 0.0, r.WeeklyDistance[0].TotalKm)
	assert.Equal(t, "2025-12-07", r.WeeklyDistance[1].EndIso)
	assert.Equal(t, 9.3, r.WeeklyDistance[1].TotalKm)

	// latest session is on Monday 2026-01-05
	assert.Equal(t, "2026-01-05", r.HeartRate.Range.StartIso)
	require.Len(t, r.HeartRate.Days, 7)
	assert.Equal(t, "Mon", r.HeartRate.Days[0].DayLabel)

	assert.Equal(t, 2, r.WeekKpis.SessionsCount)
	assert.Equal(t, 6, r.ProfileStats.TotalSessions)

	_, _, err = execute(t, "report", "--fixture", testFixture, "--user", "ghost")
	require.Error(t, err)

	_, _, err = execute(t, "report", "--fixture", testFixture, "--user", "user123", "--lang", "de")
	require.Error(t, err)
}

type testImporter struct {
	schemaErr error
	existing  map[string]bool
	inserted  []string
}

func (ti *testImporter) EnsureSchema(context.Context) error {
	return ti.schemaErr
}

func (ti *testImporter) Insert(_ context.Context, user users.User) error {
	if ti.existing[user.ID] {
		return fmt.Errorf("%w: %s", users.ErrUserExists, user.ID)
	}
	if user.ID == "broken" {
		return errors.New("connection reset")
	}
	ti.inserted = append(ti.inserted, user.ID)
	return nil
}

func TestImportUsers(t *testing.T) {
	var out bytes.Buffer
	cmd := newImportFixtureCmd()
	cmd.SetOut(&out)

	importer := &testImporter{existing: map[string]bool{"user456": true}}
	all := []users.User{{ID: "user123"}, {ID: "user456"}, {ID: "user789"}}

	require.NoError(t, importUsers(context.Background(), cmd, importer, all))
	assert.Equal(t, []string{"user123", "user789"}, importer.inserted)
	assert.Contains(t, out.String(), "skip user456: already exists\n")
	assert.Contains(t, out.String(), "2 imported, 1 skipped\n")

	err := importUsers(context.Background(), cmd, importer, []users.User{{ID: "broken"}})
	require.Error(t, err)

	importer.schemaErr = errors.New("permission denied")
	err = importUsers(context.Background(), cmd, importer, all)
	require.ErrorContains(t, err, "ensure schema")
}
