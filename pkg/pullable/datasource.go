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

// Package pullable contains a data source which accumulates the pages of a paginated
// backend one pull at a time.
package pullable

import (
	"context"
	"sync"
	"time"
)

// Cursor identifies the next page to fetch. Its format is owned by the FetchFunc.
// The zero value denotes the first page.
type Cursor = string

// UnknownTotal is reported by pages and data sources that do not know the total item count
const UnknownTotal = -1

// DefaultScrollThreshold is the distance from the end of the loaded items below which OnScroll pulls
const DefaultScrollThreshold = 30

// Page is one fetch-response unit of a paginated listing
type Page[T any] struct {
	// Items of the page in backend order
	Items []T
	// Next is the cursor of the following page
	Next Cursor
	// Last marks the final page
	Last bool
	// Total is the item count of the whole listing or UnknownTotal
	Total int
}

// FetchFunc fetches the page at the given cursor
type FetchFunc[T any] func(ctx context.Context, cursor Cursor) (*Page[T], error)

// Outcome of a single Pull attempt, as reported to an Observer
const (
	OutcomeSuccess        = "success"
	OutcomeError          = "error"
	OutcomeAlreadyPulling = "already_pulling"
	OutcomeExhausted      = "exhausted"
)

// Observer gets notified about every Pull attempt
type Observer interface {
	ObservePull(outcome string, items int, duration time.Duration)
}

// Option configures a PulledDataSource
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver attaches an Observer to the data source
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// PulledDataSource presents a growing, append-only sequence of items fetched incrementally from
// a paginated backend. At most one fetch is in flight at any time; overlapping pulls are rejected
// with ErrAlreadyPulling instead of being queued.
type PulledDataSource[T any] struct {
	fetch    FetchFunc[T]
	observer Observer

	mutex        sync.Mutex
	currentValue []T
	cursor       Cursor
	total        int
	exhausted    bool
	closed       bool

	// non-nil while a fetch is in flight; closed when it settles
	inFlight     chan struct{}
	cancelFetch  context.CancelFunc
	subscribers  map[int]chan []T
	subscriberID int
}

// New creates a data source that pulls its pages through fetch
func New[T any](fetch FetchFunc[T], opts ...Option) *PulledDataSource[T] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &PulledDataSource[T]{
		fetch:        fetch,
		observer:     o.observer,
		currentValue: []T{},
		total:        UnknownTotal,
		subscribers:  make(map[int]chan []T),
	}
}

// Pull fetches the next page and appends its items to the current value.
//
// It returns ErrAlreadyPulling if a fetch is in flight and ErrExhausted once the last page has been
// received. Errors of the FetchFunc are returned as they are and leave the cursor untouched so that
// the next Pull retries the same page.
func (ds *PulledDataSource[T]) Pull(ctx context.Context) error {
	start := time.Now()

	ds.mutex.Lock()
	if ds.closed {
		ds.mutex.Unlock()
		return ErrClosed
	}
	if ds.exhausted {
		ds.mutex.Unlock()
		ds.observe(OutcomeExhausted, 0, start)
		return ErrExhausted
	}
	if ds.inFlight != nil {
		ds.mutex.Unlock()
		ds.observe(OutcomeAlreadyPulling, 0, start)
		return ErrAlreadyPulling
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	inFlight := make(chan struct{})
	ds.inFlight = inFlight
	ds.cancelFetch = cancel
	cursor := ds.cursor
	ds.mutex.Unlock()

	page, err := ds.fetch(fetchCtx, cursor)
	cancel()

	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	ds.inFlight = nil
	ds.cancelFetch = nil
	defer close(inFlight)

	if err != nil {
		ds.observe(OutcomeError, 0, start)
		return err
	}
	if ds.closed {
		return ErrClosed
	}

	var items []T
	if page != nil {
		items = page.Items
	}
	ds.currentValue = append(ds.currentValue, items...)
	if page == nil || page.Last || len(items) == 0 {
		ds.exhausted = true
	} else {
		ds.cursor = page.Next
	}
	if page != nil && page.Total >= 0 {
		ds.total = page.Total
	}
	ds.publish()
	ds.observe(OutcomeSuccess, len(items), start)

	return nil
}

// CurrentValue returns a copy of all items accumulated so far
func (ds *PulledDataSource[T]) CurrentValue() []T {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	return ds.snapshot()
}

// Len returns the number of items accumulated so far
func (ds *PulledDataSource[T]) Len() int {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	return len(ds.currentValue)
}

// IsPulling reports whether a fetch is in flight
func (ds *PulledDataSource[T]) IsPulling() bool {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	return ds.inFlight != nil
}

// IsExhausted reports whether the last page has been received
func (ds *PulledDataSource[T]) IsExhausted() bool {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	return ds.exhausted
}

// Total returns the total item count reported by the backend, if any
func (ds *PulledDataSource[T]) Total() (int, bool) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	return ds.total, ds.total != UnknownTotal
}

// Subscribe returns a channel receiving snapshots of the current value. The latest snapshot is
// delivered right away, then one snapshot follows every successful pull. A subscriber that falls
// behind only ever sees the most recent snapshot. The returned func ends the subscription.
func (ds *PulledDataSource[T]) Subscribe() (<-chan []T, func()) {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	ch := make(chan []T, 1)
	if ds.closed {
		close(ch)
		return ch, func() {}
	}
	ds.subscriberID++
	id := ds.subscriberID
	ds.subscribers[id] = ch
	ch <- ds.snapshot()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			ds.mutex.Lock()
			defer ds.mutex.Unlock()
			if _, ok := ds.subscribers[id]; ok {
				delete(ds.subscribers, id)
				close(ch)
			}
		})
	}
}

// Close discards the data source: the in-flight fetch is cancelled, its result is ignored and
// all subscriptions are ended.
func (ds *PulledDataSource[T]) Close() {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	if ds.closed {
		return
	}
	ds.closed = true
	if ds.cancelFetch != nil {
		ds.cancelFetch()
	}
	for id, ch := range ds.subscribers {
		delete(ds.subscribers, id)
		close(ch)
	}
}

// settled returns a channel that is closed once no fetch is in flight
func (ds *PulledDataSource[T]) settled() <-chan struct{} {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	if ds.inFlight == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return ds.inFlight
}

// publish must be called with the mutex held
func (ds *PulledDataSource[T]) publish() {
	for _, ch := range ds.subscribers {
		value := ds.snapshot()
		select {
		case <-ch:
		default:
		}
		ch <- value
	}
}

// snapshot must be called with the mutex held
func (ds *PulledDataSource[T]) snapshot() []T {
	value := make([]T, len(ds.currentValue))
	copy(value, ds.currentValue)
	return value
}

func (ds *PulledDataSource[T]) observe(outcome string, items int, start time.Time) {
	if ds.observer != nil {
		ds.observer.ObservePull(outcome, items, time.Since(start))
	}
}
