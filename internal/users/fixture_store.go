package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/pkg"

	"go.uber.org/multierr"
)

// FixtureStore serves users from a static JSON file, loaded once.
type FixtureStore struct {
	users      []User
	byID       map[string]*User
	byUsername map[string]*User
}

func LoadFixtureStore(path string) (*FixtureStore, error) {
	if exists, err := pkg.PathExists(path, false); err != nil {
		return nil, fmt.Errorf("stat fixture %s: %w", path, err)
	} else if !exists {
		return nil, fmt.Errorf("fixture file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}

	return NewFixtureStore(users)
}

func NewFixtureStore(users []User) (*FixtureStore, error) {
	if err := ValidateUsers(users); err != nil {
		return nil, err
	}

	s := &FixtureStore{
		users:      users,
		byID:       make(map[string]*User, len(users)),
		byUsername: make(map[string]*User, len(users)),
	}
	for i := range s.users {
		u := &s.users[i]
		s.byID[u.ID] = u
		s.byUsername[u.Username] = u
	}

	return s, nil
}

// ValidateUsers reports every problem found in users, not only the first one.
func ValidateUsers(users []User) error {
	var err error
	ids := map[string]bool{}
	usernames := map[string]bool{}

	for i, u := range users {
		if u.ID == "" {
			err = multierr.Append(err, fmt.Errorf("user #%d: empty id", i))
		} else if ids[u.ID] {
			err = multierr.Append(err, fmt.Errorf("user #%d: duplicate id %q", i, u.ID))
		}
		ids[u.ID] = true

		if u.Username == "" {
			err = multierr.Append(err, fmt.Errorf("user %q: empty username", u.ID))
		} else if usernames[u.Username] {
			err = multierr.Append(err, fmt.Errorf("user %q: duplicate username %q", u.ID, u.Username))
		}
		usernames[u.Username] = true

		if u.Password == "" && u.PasswordHash == "" {
			err = multierr.Append(err, fmt.Errorf("user %q: no password set", u.ID))
		}

		for j, s := range u.RunningData {
			if !running.IsValidDate(s.Date) {
				err = multierr.Append(err, fmt.Errorf("user %q: session #%d: %w: %q", u.ID, j, running.ErrInvalidDate, s.Date))
			}
		}
	}

	return err
}

func (s *FixtureStore) Users() []User {
	return s.users
}

func (s *FixtureStore) ByUsername(_ context.Context, username string) (*User, error) {
	u, ok := s.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *FixtureStore) ByID(_ context.Context, id string) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *FixtureStore) Sessions(ctx context.Context, userID string, rng running.DateRange) ([]running.RawSession, error) {
	u, err := s.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]running.RawSession, 0, len(u.RunningData))
	for _, session := range u.RunningData {
		if inRange(session.Date, rng) {
			sessions = append(sessions, session)
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Date < sessions[j].Date
	})

	return sessions, nil
}

var _ Store = (*FixtureStore)(nil)

// IsNotFound is a small helper for handlers mapping store errors to 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
