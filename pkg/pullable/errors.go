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

package pullable

import "github.com/pkg/errors"

var (
	// ErrAlreadyPulling is returned by Pull while another fetch of the same data source is in flight
	ErrAlreadyPulling = errors.New("data source is already pulling")

	// ErrExhausted is returned by Pull once the backend reported that no more pages exist
	ErrExhausted = errors.New("data source is exhausted")

	// ErrClosed is returned by Pull after the data source has been closed
	ErrClosed = errors.New("data source is closed")
)

// IsAlreadyPulling reports whether err signals an overlapping pull
func IsAlreadyPulling(err error) bool {
	return errors.Is(err, ErrAlreadyPulling)
}

// IsExhausted reports whether err signals that the data source has no more data
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}
