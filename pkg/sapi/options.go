/*
 * Copyright 2018 The Service Manager Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sapi

import (
	"net/http"
	"time"

	"github.com/Peripli/service-manager/pkg/env"
	"github.com/pkg/errors"
)

// Settings type holds the atlas API client config properties
type Settings struct {
	URL                string
	User               string
	Password           string
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	SkipSSLValidation  bool          `mapstructure:"skip_ssl_validation"`
	PageSize           int           `mapstructure:"page_size"`
	MaxRetryCount      int           `mapstructure:"max_retry_count"`
	TimeBetweenRetries time.Duration `mapstructure:"time_between_retries"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`
	Burst              int           `mapstructure:"burst"`
	Transport          http.RoundTripper
}

// DefaultSettings builds a default atlas API Settings
func DefaultSettings() *Settings {
	return &Settings{
		URL:                "https://siibra-api-stable.apps.hbp.eu/v3_0",
		RequestTimeout:     30 * time.Second,
		SkipSSLValidation:  false,
		PageSize:           50,
		MaxRetryCount:      1,
		TimeBetweenRetries: time.Second,
		RequestsPerSecond:  0,
		Burst:              1,
		Transport:          nil,
	}
}

// NewSettings builds an atlas API Settings from the provided Environment
func NewSettings(env env.Environment) (*Settings, error) {
	config := struct {
		Sapi *Settings
	}{DefaultSettings()}

	if err := env.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling atlas API configuration")
	}

	return config.Sapi, nil
}

// Validate validates the configuration and returns appropriate errors in case it is invalid
func (c *Settings) Validate() error {
	if len(c.URL) == 0 {
		return errors.New("atlas API configuration URL missing")
	}
	if c.RequestTimeout == 0 {
		return errors.New("atlas API configuration RequestTimeout missing")
	}
	if c.PageSize <= 0 {
		return errors.New("atlas API configuration PageSize must be positive")
	}
	if c.MaxRetryCount < 1 {
		return errors.New("atlas API configuration MaxRetryCount must be at least 1")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("atlas API configuration RequestsPerSecond must not be negative")
	}
	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		return errors.New("atlas API configuration Burst must be at least 1 when rate limiting")
	}
	if (c.User == "") != (c.Password == "") {
		return errors.New("atlas API configuration requires both User and Password or neither")
	}
	return nil
}
