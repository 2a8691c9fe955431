package server

import (
	"time"

	"github.com/Peripli/service-manager/pkg/env"
	"github.com/pkg/errors"
)

// Settings type holds the HTTP server config properties
type Settings struct {
	Port            int
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	User            string
	Password        string
	WSPingPeriod    time.Duration `mapstructure:"ws_ping_period"`
	WSWriteTimeout  time.Duration `mapstructure:"ws_write_timeout"`
}

// DefaultSettings builds a default server Settings
func DefaultSettings() *Settings {
	return &Settings{
		Port:            8080,
		RequestTimeout:  time.Minute,
		ShutdownTimeout: 10 * time.Second,
		WSPingPeriod:    30 * time.Second,
		WSWriteTimeout:  10 * time.Second,
	}
}

// NewSettings builds a server Settings from the provided Environment
func NewSettings(env env.Environment) (*Settings, error) {
	config := struct {
		Server *Settings
	}{DefaultSettings()}

	if err := env.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling server configuration")
	}

	return config.Server, nil
}

// Validate validates the configuration and returns appropriate errors in case it is invalid
func (s *Settings) Validate() error {
	if s.Port <= 0 {
		return errors.New("server configuration Port must be positive")
	}
	if s.RequestTimeout <= 0 {
		return errors.New("server configuration RequestTimeout missing")
	}
	if s.ShutdownTimeout <= 0 {
		return errors.New("server configuration ShutdownTimeout missing")
	}
	if s.WSPingPeriod <= 0 {
		return errors.New("server configuration WSPingPeriod missing")
	}
	if s.WSWriteTimeout <= 0 {
		return errors.New("server configuration WSWriteTimeout missing")
	}
	if (s.User == "") != (s.Password == "") {
		return errors.New("server configuration requires both User and Password or neither")
	}
	return nil
}
