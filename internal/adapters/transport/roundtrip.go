package transport

import (
	"net/http"
	"time"

	"hotel_connect/internal/adapters/observability"
)

// instrumented records provider metrics for SDK clients (stripe, aws) that
// own their request building and only accept an *http.Client.
type instrumented struct {
	service string
	next    http.RoundTripper
}

func (t instrumented) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	observability.ObserveExternal(t.service, endpointLabel(r.URL.Path), status, time.Since(start))
	return resp, err
}

// InstrumentedHTTPClient wraps base (http.DefaultTransport when nil) so every
// call is counted under service.
func InstrumentedHTTPClient(service string, base *http.Client) *http.Client {
	out := &http.Client{Timeout: 30 * time.Second}
	next := http.DefaultTransport
	if base != nil {
		out.Timeout = base.Timeout
		out.Jar = base.Jar
		out.CheckRedirect = base.CheckRedirect
		if base.Transport != nil {
			next = base.Transport
		}
	}
	out.Transport = instrumented{service: service, next: next}
	return out
}
