package job

import (
	"fmt"
	"os"

	"sentiment-desk/internal/domain"
	"sentiment-desk/internal/pipeline"

	"gopkg.in/yaml.v3"
)

type profileFile struct {
	Profiles []pipeline.Request `yaml:"profiles"`
}

// LoadProfiles reads the run profiles from a YAML file. Fields a profile
// leaves empty take their value from defaults. An empty path yields the
// single default profile.
func LoadProfiles(path string, defaults pipeline.Request) ([]pipeline.Request, error) {
	if path == "" {
		return []pipeline.Request{defaults}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read profiles: %v", domain.ErrConfiguration, err)
	}
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse profiles: %v", domain.ErrConfiguration, err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("%w: %s defines no profiles", domain.ErrConfiguration, path)
	}

	out := make([]pipeline.Request, 0, len(file.Profiles))
	for i, p := range file.Profiles {
		if p.Ticker == "" {
			return nil, fmt.Errorf("%w: profile %d has no ticker", domain.ErrConfiguration, i+1)
		}
		if p.NewsQuery == "" {
			p.NewsQuery = p.Ticker
		}
		if p.PricePeriod == "" {
			p.PricePeriod = defaults.PricePeriod
		}
		if p.NewsWindowDays == 0 {
			p.NewsWindowDays = defaults.NewsWindowDays
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i+1, err)
		}
		out = append(out, p)
	}
	return out, nil
}
