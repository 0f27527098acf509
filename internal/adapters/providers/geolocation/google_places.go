package geolocation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
)

const (
	googlePlacesURL     = "https://maps.googleapis.com/maps/api/place"
	defaultSearchRadius = 5000
	detailFields        = "place_id,name,formatted_address,formatted_phone_number,geometry,opening_hours"
)

// GooglePlacesProvider finds hospitals with the Google Places nearby search
// and details endpoints.
type GooglePlacesProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	radius     int
	language   string
}

// NewGooglePlacesProvider creates a places provider. baseURL is the
// ".../maps/api/place" prefix; empty selects the production endpoint.
func NewGooglePlacesProvider(apiKey, baseURL string, radius int, language string, httpClient *http.Client) *GooglePlacesProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googlePlacesURL
	}
	if radius <= 0 {
		radius = defaultSearchRadius
	}
	if language == "" {
		language = "ko"
	}
	return &GooglePlacesProvider{
		apiKey:     apiKey,
		httpClient: newHTTPClient(httpClient),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		radius:     radius,
		language:   language,
	}
}

// Nearby returns hospitals around the coordinates in the order Google ranks them
func (g *GooglePlacesProvider) Nearby(ctx context.Context, lat, lng float64) ([]*entities.Facility, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", strconv.Itoa(g.radius))
	params.Set("type", "hospital")
	params.Set("language", g.language)

	var payload googleNearbyResponse
	if err := g.get(ctx, "/nearbysearch/json", params, &payload); err != nil {
		return nil, err
	}

	switch payload.Status {
	case "ZERO_RESULTS":
		return []*entities.Facility{}, nil
	case "OK":
	default:
		return nil, statusError("places nearby search", payload.Status, payload.ErrorMessage)
	}

	facilities := make([]*entities.Facility, 0, len(payload.Results))
	for _, result := range payload.Results {
		facilities = append(facilities, &entities.Facility{
			PlaceID: result.PlaceID,
			Name:    result.Name,
			Address: result.Vicinity,
			Location: entities.Location{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
		})
	}
	return facilities, nil
}

// Details returns one place with phone number and opening hours
func (g *GooglePlacesProvider) Details(ctx context.Context, placeID string) (*entities.Facility, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("place id is required")
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)
	params.Set("language", g.language)

	var payload googleDetailsResponse
	if err := g.get(ctx, "/details/json", params, &payload); err != nil {
		return nil, err
	}

	switch payload.Status {
	case "OK":
	case "NOT_FOUND", "INVALID_REQUEST", "ZERO_RESULTS":
		return nil, fmt.Errorf("%w: %s", providers.ErrPlaceNotFound, placeID)
	default:
		return nil, statusError("places details", payload.Status, payload.ErrorMessage)
	}

	result := payload.Result
	facility := &entities.Facility{
		PlaceID: result.PlaceID,
		Name:    result.Name,
		Address: result.FormattedAddress,
		Phone:   result.FormattedPhoneNumber,
		Location: entities.Location{
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
		},
	}
	if result.OpeningHours != nil {
		facility.Schedule = strings.Join(result.OpeningHours.WeekdayText, ", ")
	}
	return facility, nil
}

func (g *GooglePlacesProvider) get(ctx context.Context, path string, params url.Values, out any) error {
	if g.apiKey == "" {
		return fmt.Errorf("google places api key is required")
	}
	params.Set("key", g.apiKey)
	if err := getJSON(ctx, g.httpClient, g.baseURL+path+"?"+params.Encode(), nil, out); err != nil {
		return fmt.Errorf("places %w", err)
	}
	return nil
}

func statusError(operation, status, message string) error {
	if message != "" {
		return fmt.Errorf("%s failed: %s - %s", operation, status, message)
	}
	return fmt.Errorf("%s failed: %s", operation, status)
}

type googleNearbyResponse struct {
	Status       string               `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Results      []googleNearbyResult `json:"results"`
}

type googleNearbyResult struct {
	PlaceID  string         `json:"place_id"`
	Name     string         `json:"name"`
	Vicinity string         `json:"vicinity"`
	Geometry googleGeometry `json:"geometry"`
}

type googleDetailsResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Result       googleDetailsResult `json:"result"`
}

type googleDetailsResult struct {
	PlaceID              string              `json:"place_id"`
	Name                 string              `json:"name"`
	FormattedAddress     string              `json:"formatted_address"`
	FormattedPhoneNumber string              `json:"formatted_phone_number"`
	Geometry             googleGeometry      `json:"geometry"`
	OpeningHours         *googleOpeningHours `json:"opening_hours,omitempty"`
}

type googleOpeningHours struct {
	WeekdayText []string `json:"weekday_text"`
}
