package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/telemetry/metrics"
	"github.com/2beens/sportsee/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultAPITimeout     = 10 * time.Second
	defaultCacheSizeBytes = 64 * 1024 * 1024
	maxResponseBodyBytes  = 10 << 20
	userInfoPath          = "/api/user-info"
	userActivityPath      = "/api/user-activity"
	profileImagePath      = "/api/profile-image"
	cacheKeySeparator     = "|"
	allTimeRangeStartIso  = "1970-01-01"
	allTimeRangeEndIso    = "9999-12-31"
)

// APIError is returned for every non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	// Details holds the decoded error body (JSON value or plain text), if any.
	Details any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d]: %s", e.Status, e.Message)
}

type APIProviderParams struct {
	BaseURL        string
	Timeout        time.Duration
	CacheTTL       time.Duration
	CacheSizeBytes int
	HTTPClient     *http.Client
	MetricsManager *metrics.Manager
}

// APIProvider fetches raw payloads from a remote sportsee backend and maps them.
// Successful JSON responses are cached per user, path and query.
type APIProvider struct {
	baseURL        *url.URL
	httpClient     *http.Client
	cache          *freecache.Cache
	cacheTTL       time.Duration
	metricsManager *metrics.Manager
}

func NewAPIProvider(params APIProviderParams) (*APIProvider, error) {
	baseURL, err := url.Parse(strings.TrimRight(params.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("api base url must be absolute, got %q", params.BaseURL)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = defaultAPITimeout
		}
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		}
	}

	p := &APIProvider{
		baseURL:        baseURL,
		httpClient:     httpClient,
		cacheTTL:       params.CacheTTL,
		metricsManager: params.MetricsManager,
	}
	if params.CacheTTL > 0 {
		size := params.CacheSizeBytes
		if size <= 0 {
			size = defaultCacheSizeBytes
		}
		p.cache = freecache.NewCache(size)
	}

	return p, nil
}

func (p *APIProvider) UserInfo(ctx context.Context, caller Caller) (_ *running.UserInfo, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiProvider.userInfo")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", caller.UserID))

	body, err := p.getJSON(ctx, caller, userInfoPath, nil)
	if err != nil {
		return nil, err
	}

	return running.DecodeUserInfo(bytes.NewReader(body))
}

func (p *APIProvider) UserActivity(ctx context.Context, caller Caller, rng running.DateRange) (_ []running.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiProvider.userActivity")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// the backend requires both bounds
	if rng.IsEmpty() {
		rng = running.DateRange{StartIso: allTimeRangeStartIso, EndIso: allTimeRangeEndIso}
	}
	span.SetAttributes(
		attribute.String("user.id", caller.UserID),
		attribute.String("range.start", rng.StartIso),
		attribute.String("range.end", rng.EndIso),
	)

	query := url.Values{}
	query.Set("startWeek", rng.StartIso)
	query.Set("endWeek", rng.EndIso)

	body, err := p.getJSON(ctx, caller, userActivityPath, query)
	if err != nil {
		return nil, err
	}

	return running.DecodeUserActivity(bytes.NewReader(body))
}

func (p *APIProvider) ProfileImage(ctx context.Context, caller Caller) (_ *Image, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiProvider.profileImage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	body, contentType, err := p.do(ctx, caller, profileImagePath, nil)
	if err != nil {
		return nil, err
	}

	return &Image{
		ContentType: contentType,
		Data:        body,
	}, nil
}

func (p *APIProvider) getJSON(ctx context.Context, caller Caller, path string, query url.Values) ([]byte, error) {
	key := cacheKey(caller.UserID, path, query)
	if p.cache != nil {
		if cached, err := p.cache.Get([]byte(key)); err == nil {
			p.countCache(metrics.CacheResultHit)
			return cached, nil
		}
		p.countCache(metrics.CacheResultMiss)
	}

	body, _, err := p.do(ctx, caller, path, query)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		expireSeconds := int(p.cacheTTL.Seconds())
		if expireSeconds < 1 {
			expireSeconds = 1
		}
		if err := p.cache.Set([]byte(key), body, expireSeconds); err != nil {
			log.Debugf("api provider, cache set [%s]: %s", key, err)
		}
	}

	return body, nil
}

func (p *APIProvider) do(ctx context.Context, caller Caller, path string, query url.Values) ([]byte, string, error) {
	reqURL := *p.baseURL
	reqURL.Path = p.baseURL.Path + path
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if caller.Token != "" {
		req.Header.Set("Authorization", "Bearer "+caller.Token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%s %s: %w", http.MethodGet, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		displayPath := path
		if len(query) > 0 {
			displayPath += "?" + query.Encode()
		}
		return nil, "", newAPIError(resp.StatusCode, http.MethodGet, displayPath, contentType, body)
	}

	return body, contentType, nil
}

func newAPIError(status int, method, path, contentType string, body []byte) *APIError {
	apiErr := &APIError{
		Status:  status,
		Message: fmt.Sprintf("HTTP %d on %s %s", status, method, path),
	}

	if strings.Contains(contentType, "application/json") {
		var details any
		if err := json.Unmarshal(body, &details); err == nil {
			apiErr.Details = details
			if obj, ok := details.(map[string]any); ok {
				if msg, ok := obj["message"].(string); ok && msg != "" {
					apiErr.Message = msg
				} else if msg, ok := obj["error"].(string); ok && msg != "" {
					apiErr.Message = msg
				}
			}
			return apiErr
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Details = text
	}

	return apiErr
}

func cacheKey(userID, path string, query url.Values) string {
	return strings.Join([]string{userID, path, query.Encode()}, cacheKeySeparator)
}

func (p *APIProvider) countCache(result string) {
	if p.metricsManager != nil {
		p.metricsManager.CounterProviderCache.WithLabelValues(result).Inc()
	}
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

var _ Provider = (*APIProvider)(nil)
