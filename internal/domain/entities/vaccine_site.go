package entities

// VaccineSite is a vaccine-provider entry naming a facility and the vaccines it offers.
// Values are treated as immutable once fetched.
type VaccineSite struct {
	CenterName string   `json:"centerName"`
	Address    string   `json:"address"`
	Phone      string   `json:"tel"`
	Vaccines   []string `json:"vaccine"`
	Latitude   float64  `json:"lat"`
	Longitude  float64  `json:"lng"`
}

// HasVaccines reports whether the site lists at least one vaccine.
func (v *VaccineSite) HasVaccines() bool {
	return v != nil && len(v.Vaccines) > 0
}
