package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/sportsee/internal/config"
	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/telemetry/metrics"
	"github.com/2beens/sportsee/internal/users"
)

var (
	ErrUnknownUser             = errors.New("unknown user")
	ErrProfileImageUnsupported = errors.New("profile image not supported by this data source")
)

// Caller identifies the authenticated user a request is made for.
type Caller struct {
	UserID string
	// Token is forwarded as a bearer token by providers that call a remote backend.
	Token string
}

type Image struct {
	ContentType string
	Data        []byte
}

//go:generate mockgen -source=$GOFILE -destination=../dashboard/provider_mocks_test.go -package=dashboard_test

// Provider is the single source of user data for the dashboard.
type Provider interface {
	UserInfo(ctx context.Context, caller Caller) (*running.UserInfo, error)
	// UserActivity returns the caller's sessions within rng. An empty bound means all sessions.
	UserActivity(ctx context.Context, caller Caller, rng running.DateRange) ([]running.Session, error)
	ProfileImage(ctx context.Context, caller Caller) (*Image, error)
}

type Deps struct {
	Store          users.Store
	HTTPClient     *http.Client
	MetricsManager *metrics.Manager
}

// New builds the provider selected by cfg.DataSource.
func New(cfg *config.Config, deps Deps) (Provider, error) {
	switch cfg.DataSource {
	case config.DataSourceStore:
		if deps.Store == nil {
			return nil, errors.New("store data source requires a user store")
		}
		return NewStoreProvider(deps.Store), nil
	case config.DataSourceAPI:
		return NewAPIProvider(APIProviderParams{
			BaseURL:        cfg.APIBaseURL,
			Timeout:        cfg.APITimeout.Duration,
			CacheTTL:       cfg.APICacheTTL.Duration,
			CacheSizeBytes: cfg.APICacheBytes,
			HTTPClient:     deps.HTTPClient,
			MetricsManager: deps.MetricsManager,
		})
	default:
		return nil, fmt.Errorf("unknown data source: %q", cfg.DataSource)
	}
}
