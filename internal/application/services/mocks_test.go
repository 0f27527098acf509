package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

// Mocks

type MockRegionResolver struct {
	mock.Mock
}

func (m *MockRegionResolver) Resolve(ctx context.Context, lat, lng float64) (entities.Region, error) {
	args := m.Called(ctx, lat, lng)
	return args.Get(0).(entities.Region), args.Error(1)
}

type MockVaccineProvider struct {
	mock.Mock
}

func (m *MockVaccineProvider) FetchByRegionCode(ctx context.Context, code entities.RegionCode) ([]entities.VaccineSite, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.VaccineSite), args.Error(1)
}

type MockFallbackSource struct {
	mock.Mock
}

func (m *MockFallbackSource) Load(ctx context.Context) ([]entities.VaccineSite, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.VaccineSite), args.Error(1)
}

type MockPlacesProvider struct {
	mock.Mock
}

func (m *MockPlacesProvider) Nearby(ctx context.Context, lat, lng float64) ([]*entities.Facility, error) {
	args := m.Called(ctx, lat, lng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Facility), args.Error(1)
}

func (m *MockPlacesProvider) Details(ctx context.Context, placeID string) (*entities.Facility, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Facility), args.Error(1)
}

// MockTranslator returns either a fixed string or the result of a func(text) string
type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, text, targetLanguage string) string {
	args := m.Called(ctx, text, targetLanguage)
	if fn, ok := args.Get(0).(func(string) string); ok {
		return fn(text)
	}
	return args.String(0)
}

// Fixtures

var (
	jongno     = entities.Region{Province: "서울특별시", District: "종로구"}
	jongnoCode = entities.RegionCode{ProvinceCode: "1100000000", DistrictCode: "11110"}
	gangnam    = entities.Region{Province: "서울특별시", District: "강남구"}
	haeundae   = entities.Region{Province: "부산광역시", District: "해운대구"}

	testCodes = entities.RegionCodeTable{
		Provinces: map[string]string{"서울특별시": "1100000000", "부산광역시": "2600000000"},
		Districts: map[string]map[string]string{
			"서울특별시": {"종로구": "11110", "중구": "11140", "강남구": "11680"},
		},
	}

	fallbackSites = []entities.VaccineSite{
		{CenterName: "샘플의원", Vaccines: []string{"인플루엔자"}},
	}
)
