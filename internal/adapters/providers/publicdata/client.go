package publicdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
	"github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/observability"
	"github.com/zatekoja/vaccinefinder/backend/pkg/config"
	"github.com/zatekoja/vaccinefinder/backend/pkg/retry"
)

const (
	defaultBaseURL   = "https://apis.data.go.kr/1790387/orglist3/getOrgList3"
	defaultNumOfRows = 100
	maxBodyBytes     = 8 << 20
)

// Client fetches vaccination sites from the public data portal registry.
type Client struct {
	baseURL    string
	serviceKey string
	numOfRows  int
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retry      retry.Config
}

// NewClient creates a registry client from configuration. httpClient may be nil.
func NewClient(cfg *config.PublicDataConfig, httpClient *http.Client) *Client {
	baseURL := cfg.BaseURL
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	numOfRows := cfg.NumOfRows
	if numOfRows <= 0 {
		numOfRows = defaultNumOfRows
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	maxFailures := uint32(5)
	if cfg.MaxFailures > 0 {
		maxFailures = uint32(cfg.MaxFailures)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "vaccine-registry",
		Timeout: cfg.BreakerReset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	retryCfg := retry.ProviderConfig()
	retryCfg.RetryIf = func(err error) bool {
		return !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests)
	}

	return &Client{
		baseURL:    baseURL,
		serviceKey: cfg.ServiceKey,
		numOfRows:  numOfRows,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    breaker,
		retry:      retryCfg,
	}
}

// FetchByRegionCode lists vaccination sites for a province/district code pair.
// Transport failures, non-2xx statuses and an open breaker wrap
// providers.ErrProviderUnreachable. A body that is not the expected JSON, such
// as the XML error envelope the portal returns for key problems, wraps
// providers.ErrMalformedResponse.
func (c *Client) FetchByRegionCode(ctx context.Context, code entities.RegionCode) ([]entities.VaccineSite, error) {
	ctx, span := observability.StartSpan(ctx, "publicdata.FetchByRegionCode")
	defer span.End()

	var body []byte
	err := retry.DoWithLog(ctx, c.retry, "vaccine-registry", func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.get(ctx, code)
		})
		if err != nil {
			return err
		}
		body = result.([]byte)
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("next_delay", nextDelay).
			Msg("vaccine registry request failed, retrying")
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("%w: %v", providers.ErrProviderUnreachable, err)
	}

	sites, err := decodeSites(body)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return sites, nil
}

func (c *Client) get(ctx context.Context, code entities.RegionCode) ([]byte, error) {
	params := url.Values{}
	params.Set("serviceKey", c.serviceKey)
	params.Set("numOfRows", strconv.Itoa(c.numOfRows))
	params.Set("pageNo", "1")
	params.Set("returnType", "json")
	params.Set("brtcCd", code.ProvinceCode)
	params.Set("sggCd", code.DistrictCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("registry request returned status %d", resp.StatusCode)
	}

	return body, nil
}

type registryResponse struct {
	Data []entities.VaccineSite `json:"data"`
}

// decodeSites parses a registry payload
func decodeSites(body []byte) ([]entities.VaccineSite, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", providers.ErrMalformedResponse)
	}
	if trimmed[0] == '<' {
		return nil, fmt.Errorf("%w: received XML instead of JSON", providers.ErrMalformedResponse)
	}

	var payload registryResponse
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrMalformedResponse, err)
	}
	if payload.Data == nil {
		payload.Data = []entities.VaccineSite{}
	}
	return payload.Data, nil
}
