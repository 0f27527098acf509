package publicdata

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

//go:embed sample/vaccine_sample.json
var embeddedSample []byte

// SampleSource loads the bundled record set used when the registry cannot serve
// a region. A configured path overrides the embedded sample.
type SampleSource struct {
	path string
}

// NewSampleSource creates a fallback source. An empty path selects the embedded sample.
func NewSampleSource(path string) *SampleSource {
	return &SampleSource{path: path}
}

// Load reads and decodes the sample
func (s *SampleSource) Load(ctx context.Context) ([]entities.VaccineSite, error) {
	data := embeddedSample
	if s.path != "" {
		var err error
		data, err = os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read fallback sample: %w", err)
		}
	}

	sites, err := decodeSites(data)
	if err != nil {
		return nil, fmt.Errorf("fallback sample: %w", err)
	}
	return sites, nil
}

// LoadFile decodes a registry-format JSON file
func LoadFile(path string) ([]entities.VaccineSite, error) {
	return NewSampleSource(path).Load(context.Background())
}
