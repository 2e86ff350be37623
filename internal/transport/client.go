package transport

import (
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// NewClient builds the HTTP client shared by all API calls. Connection
// pooling and HTTP/2 matter here because every pipeline cycle issues three
// requests against the same hosts back to back.
func NewClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	_ = http2.ConfigureTransport(tr)

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
}
