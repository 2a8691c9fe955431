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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Peripli/feature-browser/pkg/browser"
	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/Peripli/service-manager/pkg/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/tidwall/sjson"
)

// StreamPath is the websocket endpoint publishing the features of one feature type
const StreamPath = TypePath + "/stream"

type streamer struct {
	controller *controller
	upgrader   websocket.Upgrader

	pingPeriod   time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration
}

func newStreamer(c *controller, settings *Settings) *streamer {
	return &streamer{
		controller:   c,
		pingPeriod:   settings.WSPingPeriod,
		pongTimeout:  (settings.WSPingPeriod * 13) / 10,
		writeTimeout: settings.WSWriteTimeout,
	}
}

func (s *streamer) routes(router *mux.Router) {
	router.HandleFunc(StreamPath, s.stream).Methods(http.MethodGet)
}

// stream sends the current features right after the upgrade and then once per pull of the data source
func (s *streamer) stream(w http.ResponseWriter, r *http.Request) {
	session, featureType, source, ok := s.controller.source(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.C(r.Context()).WithError(err).Error("Could not upgrade to websocket")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	snapshots, unsubscribe := source.Subscribe()
	defer unsubscribe()

	done := make(chan struct{}, 2)
	conn.SetReadDeadline(time.Now().Add(s.pingPeriod + s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		log.C(ctx).Debug("Received pong")
		conn.SetReadDeadline(time.Now().Add(s.pingPeriod + s.pongTimeout))
		return nil
	})
	go s.read(ctx, conn, done)

	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-session.Context().Done():
			s.close(ctx, conn, websocket.CloseGoingAway, "session closed")
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				s.close(ctx, conn, websocket.CloseGoingAway, "session closed")
				return
			}
			message, err := snapshotMessage(featureType, snapshot, source)
			if err != nil {
				log.C(ctx).WithError(err).Error("Could not build stream message")
				s.close(ctx, conn, websocket.CloseInternalServerErr, "")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.C(ctx).WithError(err).Error("Could not write message on the websocket")
				return
			}
		case <-ticker.C:
			log.C(ctx).Debug("Sending ping")
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(s.writeTimeout)); err != nil {
				log.C(ctx).WithError(err).Error("Could not write ping on the websocket")
				return
			}
		}
	}
}

// read consumes client frames so that pongs and close frames are processed
func (s *streamer) read(ctx context.Context, conn *websocket.Conn, done chan<- struct{}) {
	defer func() {
		log.C(ctx).Debug("Exiting stream reader")
		done <- struct{}{}
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.C(ctx).WithError(err).Debug("Stream reader stopped")
			}
			return
		}
	}
}

func (s *streamer) close(ctx context.Context, conn *websocket.Conn, code int, text string) {
	log.C(ctx).Debug("Closing websocket")
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(s.writeTimeout))
}

func snapshotMessage(featureType string, items []sapi.Feature, source *browser.FeatureSource) ([]byte, error) {
	rawItems, err := json.Marshal(items)
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal features")
	}
	message := []byte(`{}`)
	if message, err = sjson.SetBytes(message, "type", featureType); err != nil {
		return nil, err
	}
	if message, err = sjson.SetRawBytes(message, "items", rawItems); err != nil {
		return nil, err
	}
	var total interface{}
	if value, known := source.Total(); known {
		total = value
	}
	if message, err = sjson.SetBytes(message, "total", total); err != nil {
		return nil, err
	}
	return sjson.SetBytes(message, "exhausted", source.IsExhausted())
}
