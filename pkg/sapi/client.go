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

// Package sapi contains the client of the paginated atlas REST API
package sapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Peripli/feature-browser/pkg/httputils"
	"github.com/Peripli/feature-browser/pkg/paging"
	"github.com/Peripli/service-manager/pkg/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// APIFeatureTypes is the atlas API listing the known feature types
	APIFeatureTypes = "/feature/_types"

	// APIFeatures is the atlas API listing the features of one type
	APIFeatures = "/feature/%s"
)

// Client provides the logic for calling into the atlas API
type Client interface {
	// GetPage fetches the page at cursor of the listing at path. The empty cursor denotes the first page.
	GetPage(ctx context.Context, path string, query url.Values, cursor string) (*paging.Page, error)

	// ListFeatureTypes fetches all pages of the feature type listing
	ListFeatureTypes(ctx context.Context) ([]FeatureType, error)
}

type atlasClient struct {
	settings   *Settings
	httpClient *http.Client
}

var _ Client = &atlasClient{}

// NewClient builds a new atlas API Client from the provided settings
func NewClient(settings *Settings) (Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	transport := settings.Transport
	if transport == nil {
		transport = NewSkipSSLTransport(settings.SkipSSLValidation)
	}
	if settings.RequestsPerSecond > 0 {
		transport = &RateLimitedTransport{
			Limiter: rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), settings.Burst),
			Rt:      transport,
		}
	}
	transport = &RetryableTransport{
		Transport:          transport,
		MaxRetryCount:      settings.MaxRetryCount,
		TimeBetweenRetries: settings.TimeBetweenRetries,
	}
	if settings.User != "" && settings.Password != "" {
		transport = &BasicAuthTransport{
			Username: settings.User,
			Password: settings.Password,
			Rt:       transport,
		}
	}

	return &atlasClient{
		settings: settings,
		httpClient: &http.Client{
			Timeout:   settings.RequestTimeout,
			Transport: transport,
		},
	}, nil
}

// GetPage implements Client
func (c *atlasClient) GetPage(ctx context.Context, path string, query url.Values, cursor string) (*paging.Page, error) {
	URL, params := c.pageRequest(path, query, cursor)
	log.C(ctx).Debugf("Getting page %q of %s from atlas API at %s", cursor, path, c.settings.URL)

	response, err := httputils.SendRequest(ctx, c.httpClient, http.MethodGet, URL, params, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting page of %s from atlas API", path)
	}
	if response.StatusCode != http.StatusOK {
		return nil, errors.WithStack(httputils.HandleResponseError(ctx, response))
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading body of response with status %s", response.Status)
	}
	page, err := paging.ParsePage(body)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing page of %s", path)
	}

	return page, nil
}

// ListFeatureTypes implements Client
func (c *atlasClient) ListFeatureTypes(ctx context.Context) ([]FeatureType, error) {
	featureTypes := make([]FeatureType, 0)
	processor := &paging.PageProcessor{Pager: NewPager(c, APIFeatureTypes, nil)}
	err := processor.Process(ctx, func(page *paging.Page) error {
		items, err := DecodeItems[FeatureType](page)
		if err != nil {
			return err
		}
		featureTypes = append(featureTypes, items...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "error listing feature types")
	}

	log.C(ctx).Debugf("Listed %d feature types", len(featureTypes))
	return featureTypes, nil
}

// FeaturesPath returns the path of the listing of features of the given type
func FeaturesPath(featureType string) string {
	return fmt.Sprintf(APIFeatures, url.PathEscape(featureType))
}

func (c *atlasClient) pageRequest(path string, query url.Values, cursor string) (string, url.Values) {
	if strings.HasPrefix(cursor, "http://") || strings.HasPrefix(cursor, "https://") {
		return cursor, nil
	}

	params := url.Values{}
	for k, values := range query {
		params[k] = append([]string{}, values...)
	}
	page := cursor
	if page == "" {
		page = "1"
	}
	params.Set("page", page)
	params.Set("size", strconv.Itoa(c.settings.PageSize))

	return strings.TrimSuffix(c.settings.URL, "/") + path, params
}
