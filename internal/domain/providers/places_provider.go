package providers

import (
	"context"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

// PlacesProvider defines the interface for the external facility search service
type PlacesProvider interface {
	// Nearby lists hospitals around a coordinate
	Nearby(ctx context.Context, lat, lng float64) ([]*entities.Facility, error)

	// Details returns a single facility by its place identifier
	Details(ctx context.Context, placeID string) (*entities.Facility, error)
}
