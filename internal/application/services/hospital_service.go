package services

import (
	"context"
	"errors"
	"strings"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
	"github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/vaccinefinder/backend/pkg/errors"
)

// HospitalService answers nearby and detail queries with vaccine-enriched facilities
type HospitalService struct {
	places     providers.PlacesProvider
	cache      *VaccineCacheService
	enrichment *EnrichmentService
}

// NewHospitalService creates a new hospital service
func NewHospitalService(places providers.PlacesProvider, cache *VaccineCacheService, enrichment *EnrichmentService) *HospitalService {
	return &HospitalService{
		places:     places,
		cache:      cache,
		enrichment: enrichment,
	}
}

// Nearby lists hospitals around the coordinates with their vaccine lists.
// A places-provider failure fails the request; vaccine and translation
// problems only degrade individual fields.
func (s *HospitalService) Nearby(ctx context.Context, lat, lng float64, targetLanguage string) ([]*entities.Facility, error) {
	ctx, span := observability.StartSpan(ctx, "HospitalService.Nearby")
	defer span.End()

	if !(entities.Location{Latitude: lat, Longitude: lng}).Valid() {
		return nil, apperrors.NewValidationError("lat must be within [-90, 90] and lng within [-180, 180]")
	}

	s.cache.RefreshIfMoved(ctx, lat, lng)

	facilities, err := s.places.Nearby(ctx, lat, lng)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("failed to search nearby hospitals", err)
	}

	return s.enrichment.Enrich(ctx, facilities, s.cache.Snapshot(), targetLanguage), nil
}

// Details returns one hospital with its vaccine list. The cache is refreshed
// around the hospital's own coordinates first when they are far from the
// current snapshot.
func (s *HospitalService) Details(ctx context.Context, placeID, targetLanguage string) (*entities.Facility, error) {
	ctx, span := observability.StartSpan(ctx, "HospitalService.Details")
	defer span.End()

	if strings.TrimSpace(placeID) == "" {
		return nil, apperrors.NewValidationError("placeId is required")
	}

	facility, err := s.places.Details(ctx, placeID)
	if err != nil {
		observability.RecordError(span, err)
		if errors.Is(err, providers.ErrPlaceNotFound) {
			return nil, apperrors.NewNotFoundError("hospital not found")
		}
		return nil, apperrors.NewExternalError("failed to fetch hospital details", err)
	}
	if facility == nil {
		return nil, apperrors.NewNotFoundError("hospital not found")
	}

	if facility.Location != (entities.Location{}) {
		s.cache.RefreshIfMoved(ctx, facility.Location.Latitude, facility.Location.Longitude)
	}

	enriched := s.enrichment.Enrich(ctx, []*entities.Facility{facility}, s.cache.Snapshot(), targetLanguage)
	return enriched[0], nil
}
