package geolocation

import (
	"context"
	"fmt"
	"sort"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
)

type mockDistrict struct {
	region entities.Region
	center entities.Location
}

var mockDistricts = []mockDistrict{
	{entities.Region{Province: "서울특별시", District: "종로구"}, entities.Location{Latitude: 37.5735, Longitude: 126.9790}},
	{entities.Region{Province: "서울특별시", District: "중구"}, entities.Location{Latitude: 37.5641, Longitude: 126.9979}},
	{entities.Region{Province: "서울특별시", District: "강남구"}, entities.Location{Latitude: 37.5172, Longitude: 127.0473}},
	{entities.Region{Province: "서울특별시", District: "서대문구"}, entities.Location{Latitude: 37.5791, Longitude: 126.9368}},
	{entities.Region{Province: "부산광역시", District: "해운대구"}, entities.Location{Latitude: 35.1631, Longitude: 129.1635}},
}

// MockRegionResolver resolves to the nearest of a few fixed districts.
// It is used for local development without map API keys.
type MockRegionResolver struct{}

// NewMockRegionResolver creates a new mock region resolver
func NewMockRegionResolver() *MockRegionResolver {
	return &MockRegionResolver{}
}

// Resolve returns the district whose center is closest to the coordinates
func (m *MockRegionResolver) Resolve(ctx context.Context, lat, lng float64) (entities.Region, error) {
	point := entities.Location{Latitude: lat, Longitude: lng}
	best := mockDistricts[0]
	bestDistance := point.DistanceKM(best.center)
	for _, d := range mockDistricts[1:] {
		if dist := point.DistanceKM(d.center); dist < bestDistance {
			best, bestDistance = d, dist
		}
	}
	return best.region, nil
}

var mockFacilities = []entities.Facility{
	{
		PlaceID:  "mock-severance",
		Name:     "Severance Hospital",
		Address:  "서울특별시 서대문구 연세로 50-1",
		Phone:    "1599-1004",
		Location: entities.Location{Latitude: 37.5622, Longitude: 126.9410},
		Schedule: "월요일: 오전 8:30~오후 5:30, 화요일: 오전 8:30~오후 5:30",
	},
	{
		PlaceID:  "mock-redcross",
		Name:     "Seoul Red Cross Hospital",
		Address:  "서울특별시 종로구 새문안로 9",
		Phone:    "02-2002-8000",
		Location: entities.Location{Latitude: 37.5670, Longitude: 126.9671},
	},
	{
		PlaceID:  "mock-kangbuk-samsung",
		Name:     "Kangbuk Samsung Hospital",
		Address:  "서울특별시 종로구 새문안로 29",
		Phone:    "02-2001-2001",
		Location: entities.Location{Latitude: 37.5685, Longitude: 126.9679},
	},
	{
		PlaceID:  "mock-jongno-clinic",
		Name:     "종로 연합 의원",
		Address:  "서울특별시 종로구 종로 100",
		Phone:    "02-765-0000",
		Location: entities.Location{Latitude: 37.5703, Longitude: 126.9910},
	},
	{
		PlaceID:  "mock-samsung",
		Name:     "Samsung Medical Center",
		Address:  "서울특별시 강남구 일원로 81",
		Phone:    "02-3410-2114",
		Location: entities.Location{Latitude: 37.4881, Longitude: 127.0855},
	},
}

// MockPlacesProvider serves a fixed set of Seoul hospitals
type MockPlacesProvider struct {
	radiusKm float64
}

// NewMockPlacesProvider creates a mock places provider searching within radiusKm
func NewMockPlacesProvider(radiusKm float64) *MockPlacesProvider {
	if radiusKm <= 0 {
		radiusKm = defaultSearchRadius / 1000
	}
	return &MockPlacesProvider{radiusKm: radiusKm}
}

// Nearby returns the fixed facilities within the radius, closest first
func (m *MockPlacesProvider) Nearby(ctx context.Context, lat, lng float64) ([]*entities.Facility, error) {
	point := entities.Location{Latitude: lat, Longitude: lng}

	type ranked struct {
		facility *entities.Facility
		distance float64
	}
	var found []ranked
	for i := range mockFacilities {
		if d := point.DistanceKM(mockFacilities[i].Location); d <= m.radiusKm {
			found = append(found, ranked{facility: mockFacilities[i].Clone(), distance: d})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].distance < found[j].distance })

	out := make([]*entities.Facility, 0, len(found))
	for _, r := range found {
		out = append(out, r.facility)
	}
	return out, nil
}

// Details returns a fixed facility by place id
func (m *MockPlacesProvider) Details(ctx context.Context, placeID string) (*entities.Facility, error) {
	for i := range mockFacilities {
		if mockFacilities[i].PlaceID == placeID {
			return mockFacilities[i].Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", providers.ErrPlaceNotFound, placeID)
}
