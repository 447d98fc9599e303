package firms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/config"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	breakerName        = "firms-area-api"
	maxErrorBodyBytes  = 512
	maxResponseBytes   = 256 << 20
	breakerTripFailure = 3
)

// Client fetches detection snapshots from the FIRMS area API.
type Client struct {
	baseURL  string
	apiKey   string
	source   string
	area     string
	dayRange int
	date     string

	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a FIRMS client from the service configuration.
// The MAP_KEY is passed in explicitly, never read from the environment here.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.FIRMSBaseURL, "/"),
		apiKey:     cfg.FIRMSAPIKey,
		source:     cfg.FIRMSSource,
		area:       cfg.FIRMSArea,
		dayRange:   cfg.FIRMSDayRange,
		date:       cfg.FIRMSDate,
		httpClient: &http.Client{Timeout: cfg.FIRMSTimeout},
		metrics:    metrics,
		logger:     logger,
	}
	c.cb = c.newBreaker(time.Minute)
	metrics.FIRMSCircuitState.Set(stateToFloat(gobreaker.StateClosed))
	return c
}

func (c *Client) newBreaker(openTimeout time.Duration) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", stateToString(from),
				"to", stateToString(to),
			)
			c.metrics.FIRMSCircuitState.Set(stateToFloat(to))
		},
	})
}

// Source is the FIRMS product being fetched (e.g. VIIRS_SNPP_NRT).
func (c *Client) Source() string {
	return c.source
}

// FetchCSV downloads the configured area snapshot as raw CSV bytes.
func (c *Client) FetchCSV(ctx context.Context) ([]byte, error) {
	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.fetch(ctx)
	})
	c.metrics.FIRMSFetchDuration.Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(c.apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrTransport, c.url("REDACTED"), stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	return body, nil
}

// url builds {base}/api/area/csv/{key}/{source}/{area}/{days}[/{date}].
// area is "world" or "west,south,east,north" and is sent unescaped.
func (c *Client) url(key string) string {
	parts := []string{
		c.baseURL, "api", "area", "csv",
		url.PathEscape(key),
		url.PathEscape(c.source),
		c.area,
		strconv.Itoa(c.dayRange),
	}
	if c.date != "" {
		parts = append(parts, c.date)
	}
	return strings.Join(parts, "/")
}

// stripURL drops the request URL (which carries the MAP_KEY) from transport errors.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
