package users

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/2beens/sportsee/internal/running"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func loadTestStore(t *testing.T) *FixtureStore {
	t.Helper()
	store, err := LoadFixtureStore("testdata/users.json")
	require.NoError(t, err)
	return store
}

func TestLoadFixtureStore(t *testing.T) {
	store := loadTestStore(t)
	ctx := context.Background()

	assert.Len(t, store.Users(), 2)

	u, err := store.ByUsername(ctx, "sophiemartin")
	require.NoError(t, err)
	assert.Equal(t, "user123", u.ID)
	assert.Equal(t, "Sophie", u.UserInfos.FirstName)

	u, err = store.ByID(ctx, "user456")
	require.NoError(t, err)
	assert.Equal(t, "emmaleroy", u.Username)

	_, err = store.ByID(ctx, "user999")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = store.ByUsername(ctx, "nobody")
	assert.True(t, IsNotFound(err))
}

func TestLoadFixtureStore_RepoAssets(t *testing.T) {
	store, err := LoadFixtureStore("../../assets/data.json")
	require.NoError(t, err)

	for _, id := range []string{"user123", "user456", "user789"} {
		_, err := store.ByID(context.Background(), id)
		assert.NoError(t, err, id)
	}
}

func TestLoadFixtureStore_Errors(t *testing.T) {
	_, err := LoadFixtureStore(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture file not found")

	_, err = LoadFixtureStore(t.TempDir())
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0o600))
	_, err = LoadFixtureStore(path)
	require.Error(t, err)
}

func TestValidateUsers(t *testing.T) {
	err := ValidateUsers([]User{
		{ID: "a", Username: "alice", Password: "x"},
		{ID: "a", Username: "alice", Password: "y"},
		{ID: "", Username: "", PasswordHash: "h"},
		{ID: "b", Username: "bob", RunningData: []running.RawSession{
			{Date: "2025-12-01"},
			{Date: "2025-13-01"},
		}},
	})
	require.Error(t, err)
	// duplicate id, duplicate username, empty id, empty username, no password, bad date
	assert.Len(t, multierr.Errors(err), 6)

	assert.NoError(t, ValidateUsers(nil))
}

func TestFixtureStore_Sessions(t *testing.T) {
	store := loadTestStore(t)
	ctx := context.Background()

	all, err := store.Sessions(ctx, "user123", running.DateRange{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Date, all[i].Date)
	}

	inRange, err := store.Sessions(ctx, "user123", running.DateRange{StartIso: "2025-12-07", EndIso: "2025-12-21"})
	require.NoError(t, err)
	require.Len(t, inRange, 3)
	assert.Equal(t, "2025-12-07", inRange[0].Date)
	assert.Equal(t, "2025-12-21", inRange[2].Date)

	openEnd, err := store.Sessions(ctx, "user123", running.DateRange{StartIso: "2025-12-28"})
	require.NoError(t, err)
	assert.Len(t, openEnd, 2)

	empty, err := store.Sessions(ctx, "user456", running.DateRange{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = store.Sessions(ctx, "user999", running.DateRange{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSessionsQuery(t *testing.T) {
	query, args, err := sessionsQuery("user123", running.DateRange{})
	require.NoError(t, err)
	assert.NotContains(t, query, "date >=")
	assert.Equal(t, []any{"user123"}, args)

	query, args, err = sessionsQuery("user123", running.DateRange{StartIso: "2025-12-01", EndIso: "2025-12-31"})
	require.NoError(t, err)
	assert.Contains(t, query, "date >= $2")
	assert.Contains(t, query, "date <= $3")
	assert.Len(t, args, 3)

	query, args, err = sessionsQuery("user123", running.DateRange{EndIso: "2025-12-31"})
	require.NoError(t, err)
	assert.Contains(t, query, "date <= $2")
	assert.Len(t, args, 2)

	_, _, err = sessionsQuery("user123", running.DateRange{StartIso: "yesterday"})
	assert.ErrorIs(t, err, running.ErrInvalidDate)
}
