package sapi

import (
	"crypto/tls"
	"net/http"

	"golang.org/x/time/rate"
)

// BasicAuthTransport implements http.RoundTripper interface and intercepts that request that is being sent,
// adding basic authorization and delegates back to the wrapped transport.
type BasicAuthTransport struct {
	Username string
	Password string

	Rt http.RoundTripper
}

// RoundTrip implements http.RoundTrip and adds basic authorization header before delegating to the
// underlying RoundTripper
func (b *BasicAuthTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	if b.Username != "" && b.Password != "" {
		request = request.Clone(request.Context())
		request.SetBasicAuth(b.Username, b.Password)
	}

	return b.Rt.RoundTrip(request)
}

// NewSkipSSLTransport returns a copy of the default transport which optionally skips TLS verification
func NewSkipSSLTransport(skipSSLValidation bool) http.RoundTripper {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: skipSSLValidation,
	}
	return transport
}

// RateLimitedTransport delays requests so that no more than the configured rate reaches the API
type RateLimitedTransport struct {
	Limiter *rate.Limiter

	Rt http.RoundTripper
}

// RoundTrip waits for the limiter before delegating to the underlying RoundTripper
func (r *RateLimitedTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	if err := r.Limiter.Wait(request.Context()); err != nil {
		return nil, err
	}
	return r.Rt.RoundTrip(request)
}
