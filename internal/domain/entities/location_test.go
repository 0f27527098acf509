package entities_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

func TestLocation_DistanceKM(t *testing.T) {
	cityHall := entities.Location{Latitude: 37.5665, Longitude: 126.9780}
	gangnam := entities.Location{Latitude: 37.4979, Longitude: 127.0276}

	assert.InDelta(t, 0, cityHall.DistanceKM(cityHall), 1e-9)
	assert.InDelta(t, 8.8, cityHall.DistanceKM(gangnam), 0.3)
	assert.InDelta(t, cityHall.DistanceKM(gangnam), gangnam.DistanceKM(cityHall), 1e-9)
}

func TestLocation_Valid(t *testing.T) {
	assert.True(t, entities.Location{Latitude: 37.5, Longitude: 127}.Valid())
	assert.False(t, entities.Location{Latitude: 91, Longitude: 0}.Valid())
	assert.False(t, entities.Location{Latitude: 0, Longitude: -181}.Valid())
}

func TestFacility_JSONShape(t *testing.T) {
	facility := entities.Facility{
		PlaceID:  "p1",
		Name:     "서울병원",
		Address:  "서울 종로구",
		Phone:    "02-000-0000",
		Location: entities.Location{Latitude: 37.5, Longitude: 127.0},
		Schedule: "월요일: 09:00~18:00",
		Vaccines: []string{"화이자"},
	}

	data, err := json.Marshal(facility)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "p1", raw["placeId"])
	assert.Equal(t, 37.5, raw["lat"])
	assert.Equal(t, 127.0, raw["lng"])
	assert.Equal(t, "월요일: 09:00~18:00", raw["weekday"])

	var decoded entities.Facility
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, facility, decoded)
}

func TestFacility_CloneIsDeep(t *testing.T) {
	original := &entities.Facility{Name: "a", Vaccines: []string{"화이자"}}

	clone := original.Clone()
	clone.Vaccines[0] = "모더나"

	assert.Equal(t, "화이자", original.Vaccines[0])
	assert.Nil(t, (*entities.Facility)(nil).Clone())
}

func TestRegionCodeTable_Lookup(t *testing.T) {
	table := entities.RegionCodeTable{
		Provinces: map[string]string{"서울특별시": "1100000000"},
		Districts: map[string]map[string]string{"서울특별시": {"종로구": "11110"}},
	}

	code, ok := table.Lookup(entities.Region{Province: "서울특별시", District: " 종로구 "})
	assert.True(t, ok)
	assert.Equal(t, "11110", code.DistrictCode)

	_, ok = table.Lookup(entities.Region{Province: "서울특별시"})
	assert.False(t, ok)
	_, ok = table.Lookup(entities.Region{District: "종로구"})
	assert.False(t, ok)
}

func TestRegionCodeTable_DistrictsAreScopedByProvince(t *testing.T) {
	table := entities.RegionCodeTable{
		Provinces: map[string]string{"서울특별시": "1100000000", "부산광역시": "2600000000"},
		Districts: map[string]map[string]string{"서울특별시": {"중구": "11140"}},
	}

	_, ok := table.Lookup(entities.Region{Province: "부산광역시", District: "중구"})
	assert.False(t, ok, "Seoul's 중구 code must not answer for Busan")

	table.Districts["부산광역시"] = map[string]string{"중구": "26110"}
	code, ok := table.Lookup(entities.Region{Province: "부산광역시", District: "중구"})
	assert.True(t, ok)
	assert.Equal(t, entities.RegionCode{ProvinceCode: "2600000000", DistrictCode: "26110"}, code)

	code, ok = table.Lookup(entities.Region{Province: "서울특별시", District: "중구"})
	assert.True(t, ok)
	assert.Equal(t, "11140", code.DistrictCode)
}

func TestRegion_IsZero(t *testing.T) {
	assert.True(t, entities.Region{}.IsZero())
	assert.True(t, entities.Region{Province: " "}.IsZero())
	assert.False(t, entities.Region{District: "중구"}.IsZero())
}
