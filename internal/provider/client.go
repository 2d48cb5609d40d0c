// Package provider implements the upstream RapidAPI railway client: one
// HTTP request per fan-out branch, bounded retries for transient failures,
// and a cache-aside layer for responses that are expensive to refetch.
package provider

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"railway-gateway/internal/common/config"
	toolerr "railway-gateway/internal/common/errors"
	"railway-gateway/internal/common/logger"
	"railway-gateway/internal/common/metrics"
)

// Provider endpoints. Paths follow the irctc-api2 RapidAPI surface.
const (
	endpointPNRStatus        = "/pnrStatus"
	endpointLiveStation      = "/liveStation"
	endpointTrainSchedule    = "/trainSchedule"
	endpointFare             = "/getFare"
	endpointLiveTrainStatus  = "/liveTrainStatus"
	endpointSeatAvailability = "/checkSeatAvailability"
	endpointTrainsBetween    = "/trainBetweenStations"
)

// Doer is the transport seam; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Cache is the response-cache seam; database.RedisClient satisfies it.
// A nil Cache disables caching entirely.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Client struct {
	httpClient Doer
	baseURL    string
	apiKey     string
	apiHost    string
	retry      config.RetryConfig
	cache      Cache
	liveTTL    time.Duration
	staticTTL  time.Duration
	logger     logger.Logger
}

func NewClient(cfg config.ProviderConfig, cacheCfg config.CacheConfig, cache Cache, log logger.Logger) *Client {
	// Callers that bypass config.Load may hand over zero values; the retry
	// loop needs at least one attempt and a positive backoff window.
	retry := cfg.Retry
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = 250
	}
	if retry.MaxBackoff < retry.InitialBackoff {
		retry.MaxBackoff = retry.InitialBackoff
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		},
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		apiHost:   cfg.APIHost,
		retry:     retry,
		cache:     cache,
		liveTTL:   cacheCfg.LiveTTLDuration(),
		staticTTL: cacheCfg.StaticTTLDuration(),
		logger:    log.With(map[string]interface{}{"component": "provider"}),
	}
}

// WithTransport swaps the underlying transport. Tests use it to point the
// client at an httptest server transport with custom behavior.
func (c *Client) WithTransport(d Doer) *Client {
	c.httpClient = d
	return c
}

// ==========================
// Per-operation calls
// ==========================

func (c *Client) PNRStatus(ctx context.Context, pnr string) ([]byte, error) {
	return c.getJSON(ctx, endpointPNRStatus, url.Values{"pnr": {pnr}}, c.liveTTL)
}

func (c *Client) LiveStation(ctx context.Context, source, destination string, hours int) ([]byte, error) {
	params := url.Values{
		"source":      {source},
		"destination": {destination},
		"hours":       {strconv.Itoa(hours)},
	}
	return c.getJSON(ctx, endpointLiveStation, params, c.liveTTL)
}

func (c *Client) TrainSchedule(ctx context.Context, trainNumber string) ([]byte, error) {
	return c.getJSON(ctx, endpointTrainSchedule, url.Values{"trainNumber": {trainNumber}}, c.staticTTL)
}

func (c *Client) Fare(ctx context.Context, trainNumber, source, destination, date string) ([]byte, error) {
	params := url.Values{
		"trainNumber": {trainNumber},
		"source":      {source},
		"destination": {destination},
	}
	if date != "" {
		params.Set("date", date)
	}
	return c.getJSON(ctx, endpointFare, params, c.staticTTL)
}

func (c *Client) LiveTrainStatus(ctx context.Context, trainNumber, date string) ([]byte, error) {
	params := url.Values{"trainNumber": {trainNumber}}
	if date != "" {
		params.Set("date", date)
	}
	return c.getJSON(ctx, endpointLiveTrainStatus, params, c.liveTTL)
}

func (c *Client) SeatAvailability(ctx context.Context, source, destination, date, trainNumber string) ([]byte, error) {
	params := url.Values{
		"source":      {source},
		"destination": {destination},
		"date":        {date},
	}
	if trainNumber != "" {
		params.Set("trainNumber", trainNumber)
	}
	return c.getJSON(ctx, endpointSeatAvailability, params, c.liveTTL)
}

func (c *Client) SearchTrains(ctx context.Context, source, destination, date string) ([]byte, error) {
	params := url.Values{
		"source":      {source},
		"destination": {destination},
	}
	if date != "" {
		params.Set("date", date)
	}
	return c.getJSON(ctx, endpointTrainsBetween, params, c.staticTTL)
}

// ==========================
// Transport, retry, cache
// ==========================

// getJSON performs one logical upstream call: cache lookup, then up to
// retry.MaxAttempts round trips with backoff on retryable outcomes only.
// The retry loop is scoped to this single call; fan-out siblings are not
// affected by a failing branch.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, ttl time.Duration) ([]byte, error) {
	cacheKey := "rail:" + endpoint + "?" + params.Encode()

	if c.cache != nil && ttl > 0 {
		if val, err := c.cache.Get(ctx, cacheKey); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return []byte(val), nil
		}
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	} else {
		metrics.CacheLookupsTotal.WithLabelValues("bypass").Inc()
	}

	var lastErr *toolerr.ToolError
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			metrics.ProviderRetriesTotal.WithLabelValues(endpoint).Inc()
			if err := sleepContext(ctx, backoffDelay(attempt-1, c.retry.InitialBackoffDuration(), c.retry.MaxBackoffDuration())); err != nil {
				return nil, classifyTransportError(ctx, err)
			}
		}

		body, terr := c.roundTrip(ctx, endpoint, params)
		if terr == nil {
			metrics.ProviderRequestsTotal.WithLabelValues(endpoint, "success").Inc()
			if c.cache != nil && ttl > 0 {
				if err := c.cache.Set(ctx, cacheKey, string(body), ttl); err != nil {
					c.logger.Warn("cache write failed", map[string]interface{}{
						"endpoint": endpoint,
						"error":    err.Error(),
					})
				}
			}
			return body, nil
		}

		metrics.ProviderRequestsTotal.WithLabelValues(endpoint, string(terr.Code)).Inc()
		lastErr = terr
		if !terr.Retryable {
			break
		}

		c.logger.Warn("upstream call failed, retrying", map[string]interface{}{
			"endpoint":  endpoint,
			"attempt":   attempt + 1,
			"errorCode": string(terr.Code),
			"status":    terr.StatusCode,
		})
	}

	return nil, lastErr
}

// roundTrip issues exactly one HTTP request and classifies the outcome.
func (c *Client) roundTrip(ctx context.Context, endpoint string, params url.Values) ([]byte, *toolerr.ToolError) {
	reqURL := c.baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, toolerr.NewUpstreamError("build request: "+err.Error(), 0, false)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.apiHost)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, body)
	}
	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
