package config

import (
	"context"

	"github.com/Peripli/feature-browser/pkg/browser"
	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/Peripli/feature-browser/pkg/server"
	"github.com/Peripli/service-manager/pkg/env"
	"github.com/Peripli/service-manager/pkg/log"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

type validatable interface {
	Validate() error
}

// Settings type holds all config properties for the feature browser
type Settings struct {
	Server  *server.Settings  `mapstructure:"server"`
	Log     *log.Settings     `mapstructure:"log"`
	Sapi    *sapi.Settings    `mapstructure:"sapi"`
	Browser *browser.Settings `mapstructure:"browser"`
}

// DefaultSettings returns default values for the feature browser settings
func DefaultSettings() *Settings {
	return &Settings{
		Server:  server.DefaultSettings(),
		Log:     log.DefaultSettings(),
		Sapi:    sapi.DefaultSettings(),
		Browser: browser.DefaultSettings(),
	}
}

// NewSettings creates new feature browser settings from the specified environment
func NewSettings(env env.Environment) (*Settings, error) {
	config := DefaultSettings()
	if err := env.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "error loading configuration")
	}

	return config, nil
}

// AddPFlags adds the feature browser config flags to the provided flag set
func AddPFlags(set *pflag.FlagSet) {
	env.CreatePFlags(set, DefaultSettings())

	env.CreatePFlagsForConfigFile(set)
}

// DefaultEnv creates the environment of the feature browser from its flags, environment variables
// and config file. additionalPFlags may override flag values.
func DefaultEnv(ctx context.Context, additionalPFlags ...func(set *pflag.FlagSet)) (env.Environment, error) {
	set := env.EmptyFlagSet()
	AddPFlags(set)
	for _, addFlags := range additionalPFlags {
		addFlags(set)
	}

	environment, err := env.New(ctx, set)
	if err != nil {
		return nil, errors.Wrap(err, "error creating environment")
	}
	return environment, nil
}

// Validate validates that the configuration contains all mandatory properties
func (c *Settings) Validate() error {
	validatable := []validatable{c.Server, c.Log, c.Sapi, c.Browser}

	for _, item := range validatable {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}
