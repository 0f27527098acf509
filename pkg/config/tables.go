package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

// Tables holds the static lookup data used by the enrichment pipeline
type Tables struct {
	// Aliases maps a facility name as reported by the places search to the
	// name the vaccination registry uses for the same facility.
	Aliases map[string]string `yaml:"aliases"`

	RegionCodes entities.RegionCodeTable `yaml:"regionCodes"`
}

// DefaultTables returns the built-in tables used when no file is configured
func DefaultTables() *Tables {
	return &Tables{
		Aliases: map[string]string{
			"Severance Hospital":                        "연세대학교 세브란스병원",
			"Seoul Red Cross Hospital":                  "서울적십자병원",
			"Seoul National University Dental Hospital": "서울대학교치과병원",
			"Samsung Medical Center":                    "삼성서울병원",
			"Asan Medical Center":                       "서울아산병원",
			"Kangbuk Samsung Hospital":                  "강북삼성병원",
		},
		RegionCodes: entities.RegionCodeTable{
			Provinces: map[string]string{
				"서울특별시": "1100000000",
				"부산광역시": "2600000000",
			},
			Districts: map[string]map[string]string{
				"서울특별시": {
					"종로구": "11110",
					"중구":  "11140",
					"강남구": "11680",
				},
			},
		},
	}
}

// LoadTables reads tables from a YAML file. An empty path yields DefaultTables.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}

	return ParseTables(data)
}

// ParseTables decodes YAML table data
func ParseTables(data []byte) (*Tables, error) {
	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}

	if tables.Aliases == nil {
		tables.Aliases = map[string]string{}
	}
	if tables.RegionCodes.Provinces == nil {
		tables.RegionCodes.Provinces = map[string]string{}
	}
	if tables.RegionCodes.Districts == nil {
		tables.RegionCodes.Districts = map[string]map[string]string{}
	}

	return &tables, nil
}
