package geolocation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
	"github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/observability"
)

const (
	googleGeocodeURL       = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultReverseCacheTTL = 30 * 24 * time.Hour
)

// GoogleRegionResolver resolves coordinates to an administrative region with
// the Google reverse geocoding API. Results are cached through CacheProvider.
type GoogleRegionResolver struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	cacheTTL   time.Duration
}

// NewGoogleRegionResolver creates a new Google region resolver.
func NewGoogleRegionResolver(apiKey string, cache providers.CacheProvider) *GoogleRegionResolver {
	return NewGoogleRegionResolverWithOptions(apiKey, cache, googleGeocodeURL, nil, defaultReverseCacheTTL)
}

// NewGoogleRegionResolverWithOptions allows overriding base URL, HTTP client and cache TTL (used for tests).
func NewGoogleRegionResolverWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client, cacheTTL time.Duration) *GoogleRegionResolver {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultReverseCacheTTL
	}
	return &GoogleRegionResolver{
		apiKey:     apiKey,
		httpClient: newHTTPClient(httpClient),
		cache:      cache,
		baseURL:    baseURL,
		cacheTTL:   cacheTTL,
	}
}

// Resolve returns the province (admin level 1) and district (admin level 2)
// containing the coordinates. No result yields an empty region, not an error.
func (g *GoogleRegionResolver) Resolve(ctx context.Context, lat, lng float64) (entities.Region, error) {
	cacheKey := coordinateKey("geo:v3:region:google:", lat, lng)
	if cached, ok := cachedRegion(ctx, g.cache, cacheKey); ok {
		return entities.Region{Province: cached.Province, District: cached.District}, nil
	}

	resp, err := g.doGeocodeRequest(ctx, url.Values{
		"latlng":   []string{fmt.Sprintf("%f,%f", lat, lng)},
		"language": []string{"ko"},
	})
	if err != nil {
		return entities.Region{}, err
	}

	if len(resp.Results) == 0 {
		observability.LoggerFromContext(ctx).Info().
			Float64("lat", lat).
			Float64("lng", lng).
			Msg("reverse geocode returned no results")
		return entities.Region{}, nil
	}

	components := resp.Results[0].AddressComponents
	region := regionPayload{
		Province: component(components, "administrative_area_level_1"),
		District: component(components, "administrative_area_level_2", "sublocality_level_1", "locality"),
	}
	storeRegion(ctx, g.cache, cacheKey, region, g.cacheTTL)

	return entities.Region{Province: region.Province, District: region.District}, nil
}

func (g *GoogleRegionResolver) doGeocodeRequest(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())

	var payload googleGeocodeResponse
	if err := getJSON(ctx, g.httpClient, reqURL, nil, &payload); err != nil {
		return nil, fmt.Errorf("geocode %w", err)
	}

	switch payload.Status {
	case "OK", "ZERO_RESULTS":
		return &payload, nil
	}
	if payload.ErrorMessage != "" {
		return nil, fmt.Errorf("geocode request failed: %s - %s", payload.Status, payload.ErrorMessage)
	}
	return nil, fmt.Errorf("geocode request failed: %s", payload.Status)
}

func component(components []googleAddressComponent, primary string, fallback ...string) string {
	for _, comp := range components {
		if containsType(comp.Types, primary) {
			return comp.LongName
		}
	}
	for _, alt := range fallback {
		for _, comp := range components {
			if containsType(comp.Types, alt) {
				return comp.LongName
			}
		}
	}
	return ""
}

func containsType(types []string, target string) bool {
	for _, t := range types {
		if t == target {
			return true
		}
	}
	return false
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress  string                   `json:"formatted_address"`
	AddressComponents []googleAddressComponent `json:"address_components"`
}

type googleAddressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
