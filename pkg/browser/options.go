package browser

import (
	"time"

	"github.com/Peripli/feature-browser/pkg/pullable"
	"github.com/Peripli/service-manager/pkg/env"
	"github.com/pkg/errors"
)

// Settings type holds the feature browser config properties
type Settings struct {
	ScrollThreshold   int           `mapstructure:"scroll_threshold"`
	MaxParallelDrains int           `mapstructure:"max_parallel_drains"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
}

// DefaultSettings builds a default feature browser Settings
func DefaultSettings() *Settings {
	return &Settings{
		ScrollThreshold:   pullable.DefaultScrollThreshold,
		MaxParallelDrains: 5,
		SessionTTL:        30 * time.Minute,
	}
}

// NewSettings builds a feature browser Settings from the provided Environment
func NewSettings(env env.Environment) (*Settings, error) {
	config := struct {
		Browser *Settings
	}{DefaultSettings()}

	if err := env.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling browser configuration")
	}

	return config.Browser, nil
}

// Validate validates the configuration and returns appropriate errors in case it is invalid
func (s *Settings) Validate() error {
	if s.ScrollThreshold <= 0 {
		return errors.New("browser configuration ScrollThreshold must be positive")
	}
	if s.MaxParallelDrains <= 0 {
		return errors.New("browser configuration MaxParallelDrains must be positive")
	}
	if s.SessionTTL <= 0 {
		return errors.New("browser configuration SessionTTL must be positive")
	}
	return nil
}
