package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

var (
	// ErrMalformedResponse is returned when a provider answered but the body could
	// not be read as the expected format (e.g. an XML error page instead of JSON).
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrProviderUnreachable is returned for transport failures, timeouts, non-2xx
	// statuses and an open circuit breaker.
	ErrProviderUnreachable = errors.New("provider unreachable")

	// ErrPlaceNotFound is returned when the places provider has no record for an id
	ErrPlaceNotFound = errors.New("place not found")
)

// VaccineProvider defines the interface for the public vaccine-availability data source
type VaccineProvider interface {
	// FetchByRegionCode lists vaccine sites for an administrative code pair.
	// Failures wrap ErrMalformedResponse or ErrProviderUnreachable.
	FetchByRegionCode(ctx context.Context, code entities.RegionCode) ([]entities.VaccineSite, error)
}

// FallbackSource supplies the record set used when a live fetch is not possible
type FallbackSource interface {
	Load(ctx context.Context) ([]entities.VaccineSite, error)
}
