package entities

import "strings"

// Region is the administrative area a coordinate resolves to.
// Either field may be empty when the lookup could not determine it.
type Region struct {
	Province string `json:"province"`
	District string `json:"district"`
}

// IsZero reports whether neither level was resolved.
func (r Region) IsZero() bool {
	return strings.TrimSpace(r.Province) == "" && strings.TrimSpace(r.District) == ""
}

// RegionCode is the pair of government-assigned codes used by the vaccine provider.
type RegionCode struct {
	ProvinceCode string `json:"provinceCode"`
	DistrictCode string `json:"districtCode"`
}

// RegionCodeTable maps region names to administrative codes. District names
// repeat across provinces, so districts are keyed under their province name.
type RegionCodeTable struct {
	Provinces map[string]string            `json:"provinces" yaml:"provinces"`
	Districts map[string]map[string]string `json:"districts" yaml:"districts"`
}

// Lookup returns the code pair for a region. A missing province or district mapping
// is an expected outcome and reported through ok=false.
func (t RegionCodeTable) Lookup(region Region) (RegionCode, bool) {
	provinceName := strings.TrimSpace(region.Province)
	province, ok := t.Provinces[provinceName]
	if !ok || province == "" {
		return RegionCode{}, false
	}
	district, ok := t.Districts[provinceName][strings.TrimSpace(region.District)]
	if !ok || district == "" {
		return RegionCode{}, false
	}
	return RegionCode{ProvinceCode: province, DistrictCode: district}, true
}
