package config

import (
	"fmt"
)

// ShortlistConfig carries the eligibility rules. Thresholds default in
// loadConfig; the allow-lists have to come from the yaml because an empty
// location list would shortlist nobody.
type ShortlistConfig struct {
	AllowedCountries   []string `mapstructure:"allowed_countries"`
	MaxPreferredRate   float64  `mapstructure:"max_preferred_rate"`
	MinAvailability    float64  `mapstructure:"min_availability"`
	MinExperienceYears float64  `mapstructure:"min_experience_years"`
	Tier1Companies     []string `mapstructure:"tier1_companies"`
}

func (config ShortlistConfig) validate() error {

	if len(config.AllowedCountries) == 0 {
		return fmt.Errorf("missing variable: allowed_countries")
	}

	if config.MaxPreferredRate <= 0 {
		return fmt.Errorf("max_preferred_rate must be greater than zero")
	}

	return nil
}
