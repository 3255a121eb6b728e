package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewHttpClient returns a client tuned for fetching monitored pages. The
// overall deadline comes from the request context, not the client.
func NewHttpClient(maxPages int) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxIdleConns:        max(maxPages*4, 16),
		MaxIdleConnsPerHost: max(maxPages, 2),
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
