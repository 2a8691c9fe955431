package sapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Peripli/service-manager/pkg/log"
)

// RetryableTransport resends requests that failed or returned a 5xx status. Requests with a body are
// never retried. A MaxRetryCount of 1 sends every request exactly once.
type RetryableTransport struct {
	Transport          http.RoundTripper
	MaxRetryCount      int
	TimeBetweenRetries time.Duration
}

// RoundTrip implements http.RoundTripper
func (rt *RetryableTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	maxTries := rt.MaxRetryCount
	if maxTries < 1 || req.Body != nil && req.Body != http.NoBody {
		maxTries = 1
	}

	currentTry := 1
	for {
		log.C(ctx).Debugf("Try request to %s for %d time", req.URL.String(), currentTry)
		res, err := rt.Transport.RoundTrip(req)
		if err != nil {
			log.C(ctx).Errorf("Request to %s failed with: %s", req.URL.String(), err)
		} else if res.StatusCode >= http.StatusInternalServerError {
			log.C(ctx).Errorf("Request to %s failed with status: %d", req.URL.String(), res.StatusCode)
		} else {
			return res, nil
		}

		if currentTry >= maxTries {
			return res, err
		}
		if res != nil {
			res.Body.Close()
		}

		currentTry++
		log.C(ctx).Infof("Will retry request in %s", rt.TimeBetweenRetries)
		select {
		case <-time.After(rt.TimeBetweenRetries):
		case <-ctx.Done():
			return nil, fmt.Errorf("request cancelled: %s", ctx.Err().Error())
		}
	}
}
