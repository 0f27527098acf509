package providers

import (
	"context"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

// RegionResolver converts coordinates into the administrative region they fall in.
type RegionResolver interface {
	// Resolve returns the province and district for a coordinate. Fields that the
	// backing service could not determine are left empty; an error is returned only
	// when the lookup itself failed.
	Resolve(ctx context.Context, lat, lng float64) (entities.Region, error)
}
