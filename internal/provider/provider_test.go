package provider_test

import (
	"testing"
	"time"

	"github.com/2beens/sportsee/internal/config"
	"github.com/2beens/sportsee/internal/provider"
	"github.com/2beens/sportsee/internal/telemetry/metrics"
	"github.com/2beens/sportsee/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	store, err := users.NewFixtureStore(nil)
	require.NoError(t, err)

	p, err := provider.New(&config.Config{DataSource: config.DataSourceStore}, provider.Deps{Store: store})
	require.NoError(t, err)
	assert.IsType(t, &provider.StoreProvider{}, p)

	_, err = provider.New(&config.Config{DataSource: config.DataSourceStore}, provider.Deps{})
	require.Error(t, err)

	p, err = provider.New(&config.Config{
		DataSource:  config.DataSourceAPI,
		APIBaseURL:  "http://localhost:8000",
		APICacheTTL: config.Duration{Duration: time.Minute},
	}, provider.Deps{MetricsManager: metrics.NewTestManager()})
	require.NoError(t, err)
	assert.IsType(t, &provider.APIProvider{}, p)

	_, err = provider.New(&config.Config{DataSource: config.DataSourceAPI}, provider.Deps{})
	require.Error(t, err)

	_, err = provider.New(&config.Config{DataSource: "graphql"}, provider.Deps{Store: store})
	require.EqualError(t, err, `unknown data source: "graphql"`)
}
