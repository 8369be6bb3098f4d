package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/users"
)

// StoreProvider reads users straight from the local user store.
type StoreProvider struct {
	store users.Store
}

func NewStoreProvider(store users.Store) *StoreProvider {
	return &StoreProvider{
		store: store,
	}
}

func (p *StoreProvider) UserInfo(ctx context.Context, caller Caller) (*running.UserInfo, error) {
	user, err := p.store.ByID(ctx, caller.UserID)
	if err != nil {
		return nil, mapStoreErr(caller, err)
	}

	sessions, err := p.store.Sessions(ctx, user.ID, running.DateRange{})
	if err != nil {
		return nil, mapStoreErr(caller, err)
	}

	raw := running.BuildRawUserInfo(user.UserInfos, sessions)
	return running.MapUserInfo(&raw)
}

func (p *StoreProvider) UserActivity(ctx context.Context, caller Caller, rng running.DateRange) ([]running.Session, error) {
	if rng.IsEmpty() {
		rng = running.DateRange{}
	}

	sessions, err := p.store.Sessions(ctx, caller.UserID, rng)
	if err != nil {
		return nil, mapStoreErr(caller, err)
	}

	return running.MapUserActivity(sessions), nil
}

func (p *StoreProvider) ProfileImage(context.Context, Caller) (*Image, error) {
	return nil, ErrProfileImageUnsupported
}

func mapStoreErr(caller Caller, err error) error {
	if errors.Is(err, users.ErrUserNotFound) {
		return fmt.Errorf("%w: %q", ErrUnknownUser, caller.UserID)
	}
	return err
}

var _ Provider = (*StoreProvider)(nil)
