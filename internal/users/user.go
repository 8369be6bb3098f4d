package users

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/pkg"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// User is a stored account with its profile and raw running sessions.
// A bcrypt PasswordHash takes precedence over a plain Password.
type User struct {
	ID           string               `json:"id"`
	Username     string               `json:"username"`
	Password     string               `json:"password,omitempty"`
	PasswordHash string               `json:"passwordHash,omitempty"`
	UserInfos    running.RawProfile   `json:"userInfos"`
	RunningData  []running.RawSession `json:"runningData"`
}

func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash != "" {
		return pkg.CheckPasswordHash(password, u.PasswordHash)
	}
	if u.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
}

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=users_test

type Store interface {
	ByUsername(ctx context.Context, username string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)
	// Sessions returns the user's raw sessions within rng, sorted by date.
	// An empty bound is unbounded.
	Sessions(ctx context.Context, userID string, rng running.DateRange) ([]running.RawSession, error)
}

func inRange(date string, rng running.DateRange) bool {
	if rng.StartIso != "" && date < rng.StartIso {
		return false
	}
	if rng.EndIso != "" && date > rng.EndIso {
		return false
	}
	return true
}
