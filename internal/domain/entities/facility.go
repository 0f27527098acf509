package entities

import "encoding/json"

// Facility represents a point-of-care location returned by the places provider.
// Vaccines is filled in by the enrichment pipeline.
type Facility struct {
	PlaceID  string   `json:"placeId"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Phone    string   `json:"phone"`
	Location Location `json:"-"`
	Schedule string   `json:"weekday"`
	Vaccines []string `json:"vaccines"`
}

// facilityJSON flattens Location so the wire shape keeps lat/lng at the top level.
type facilityJSON struct {
	PlaceID  string   `json:"placeId"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Phone    string   `json:"phone"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Schedule string   `json:"weekday"`
	Vaccines []string `json:"vaccines"`
}

// MarshalJSON implements json.Marshaler
func (f Facility) MarshalJSON() ([]byte, error) {
	return json.Marshal(facilityJSON{
		PlaceID:  f.PlaceID,
		Name:     f.Name,
		Address:  f.Address,
		Phone:    f.Phone,
		Lat:      f.Location.Latitude,
		Lng:      f.Location.Longitude,
		Schedule: f.Schedule,
		Vaccines: f.Vaccines,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (f *Facility) UnmarshalJSON(data []byte) error {
	var raw facilityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Facility{
		PlaceID:  raw.PlaceID,
		Name:     raw.Name,
		Address:  raw.Address,
		Phone:    raw.Phone,
		Location: Location{Latitude: raw.Lat, Longitude: raw.Lng},
		Schedule: raw.Schedule,
		Vaccines: raw.Vaccines,
	}
	return nil
}

// Clone returns a deep copy so callers can mutate the result freely.
func (f *Facility) Clone() *Facility {
	if f == nil {
		return nil
	}
	out := *f
	if f.Vaccines != nil {
		out.Vaccines = append([]string(nil), f.Vaccines...)
	}
	return &out
}
