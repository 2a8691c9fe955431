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

// Package browser lets clients browse the features of an atlas selection page by page
package browser

import (
	"context"
	"sync"

	"github.com/Peripli/feature-browser/pkg/pullable"
	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/Peripli/service-manager/pkg/log"
	"github.com/pkg/errors"
)

// ErrUnknownFeatureType is returned for feature types that are not part of a session
var ErrUnknownFeatureType = errors.New("unknown feature type")

// FeatureSource is the data source of the features of one feature type
type FeatureSource = pullable.PulledDataSource[sapi.Feature]

// Session holds one data source per feature type available for a selection
type Session struct {
	ID        string
	Selection Selection

	ctx        context.Context
	cancel     context.CancelFunc
	settings   *Settings
	categories []Category
	sources    map[string]*FeatureSource

	pullAllMutex sync.Mutex
	pullAllDone  chan struct{}
}

// NewSession lists the feature types of the atlas API and prepares a data source for every type the
// selection provides the parameters for. The session lives until Close or until ctx is done.
func NewSession(ctx context.Context, id string, client sapi.Client, selection Selection, settings *Settings, opts ...pullable.Option) (*Session, error) {
	sessionCtx, cancel := context.WithCancel(ctx)
	sessionCtx = log.ContextWithLogger(sessionCtx, log.C(ctx).WithField("session_id", id))

	featureTypes, err := client.ListFeatureTypes(sessionCtx)
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, "could not create session %s", id)
	}
	categories := GroupByCategory(FilterFeatureTypes(featureTypes, selection))

	params := selection.Params()
	sources := make(map[string]*FeatureSource)
	for _, category := range categories {
		for _, featureType := range category.Types {
			fetch := sapi.NewFetchFunc[sapi.Feature](client, sapi.FeaturesPath(featureType.Name), params)
			sources[featureType.Name] = pullable.New(fetch, opts...)
		}
	}
	log.C(sessionCtx).Infof("Created session with %d feature types in %d categories", len(sources), len(categories))

	return &Session{
		ID:         id,
		Selection:  selection,
		ctx:        sessionCtx,
		cancel:     cancel,
		settings:   settings,
		categories: categories,
		sources:    sources,
	}, nil
}

// Context returns the context of the session. It is done once the session is closed.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Categories returns the feature types of the session grouped by category
func (s *Session) Categories() []Category {
	return s.categories
}

// DataSource returns the data source of the given feature type
func (s *Session) DataSource(featureType string) (*FeatureSource, error) {
	source, ok := s.sources[featureType]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFeatureType, "feature type %q", featureType)
	}
	return source, nil
}

// OnScroll pulls the next page of the given feature type when the viewer at scrollIndex gets close to
// the end of the loaded features. A non-positive threshold falls back to the configured one.
func (s *Session) OnScroll(ctx context.Context, featureType string, scrollIndex, threshold int) error {
	source, err := s.DataSource(featureType)
	if err != nil {
		return err
	}
	if threshold <= 0 {
		threshold = s.settings.ScrollThreshold
	}
	return source.OnScroll(ctx, scrollIndex, threshold)
}

// PullAll drains every data source of the session, running at most MaxParallelDrains drains at once
func (s *Session) PullAll(ctx context.Context) error {
	scheduler := NewScheduler(ctx, s.settings.MaxParallelDrains)
	for _, category := range s.categories {
		for _, featureType := range category.Types {
			source := s.sources[featureType.Name]
			if err := scheduler.Schedule(featureType.Name, source.Drain); err != nil {
				scheduler.Await()
				return err
			}
		}
	}
	return scheduler.Await()
}

// StartPullAll drains all data sources in the background under the session context. A drain started
// while another one is running is not repeated. The returned channel is closed once the drain ends.
func (s *Session) StartPullAll() <-chan struct{} {
	s.pullAllMutex.Lock()
	defer s.pullAllMutex.Unlock()
	if s.pullAllDone != nil {
		return s.pullAllDone
	}

	done := make(chan struct{})
	s.pullAllDone = done
	go func() {
		defer func() {
			s.pullAllMutex.Lock()
			s.pullAllDone = nil
			s.pullAllMutex.Unlock()
			close(done)
		}()
		if err := s.PullAll(s.ctx); err != nil {
			log.C(s.ctx).WithError(err).Error("Pulling all features failed")
			return
		}
		log.C(s.ctx).Info("Pulled all features")
	}()
	return done
}

// Features returns the features loaded so far in category and type order
func (s *Session) Features() []sapi.Feature {
	features := make([]sapi.Feature, 0)
	s.each(func(_ sapi.FeatureType, source *FeatureSource) {
		features = append(features, source.CurrentValue()...)
	})
	return features
}

// Totals returns the sum of the totals reported so far by the data sources
func (s *Session) Totals() int {
	tally := 0
	s.each(func(_ sapi.FeatureType, source *FeatureSource) {
		if total, ok := source.Total(); ok {
			tally += total
		}
	})
	return tally
}

// Busy reports whether any data source of the session is pulling
func (s *Session) Busy() bool {
	busy := false
	s.each(func(_ sapi.FeatureType, source *FeatureSource) {
		busy = busy || source.IsPulling()
	})
	return busy
}

// Close cancels all pending pulls and discards the data sources
func (s *Session) Close() {
	s.cancel()
	for _, source := range s.sources {
		source.Close()
	}
	log.C(s.ctx).Info("Closed session")
}

func (s *Session) each(f func(sapi.FeatureType, *FeatureSource)) {
	for _, category := range s.categories {
		for _, featureType := range category.Types {
			f(featureType, s.sources[featureType.Name])
		}
	}
}
