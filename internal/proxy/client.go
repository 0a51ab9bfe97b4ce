package proxy

import (
	"net"
	"net/http"
	"time"
)

// Client timeouts so one hung request never holds a worker for long.
const (
	ConnectTimeout  = 10 * time.Second
	ResponseTimeout = 25 * time.Second
	TotalTimeout    = 30 * time.Second
)

// NewHTTPClient returns an http.Client routed through ep. A zero Endpoint
// yields a direct client.
func NewHTTPClient(ep Endpoint) *http.Client {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: ConnectTimeout}).DialContext,
		ResponseHeaderTimeout: ResponseTimeout,
	}
	if ep.Host != "" {
		transport.Proxy = http.ProxyURL(ep.URL())
	}
	return &http.Client{
		Transport: transport,
		Timeout:   TotalTimeout,
	}
}
