// Package httpclient provides an HTTP client with optional circuit-breaker
// protection for calls to external rank/model APIs.
package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"finsight/pkg/circuitbreaker"
)

// Client wraps the standard http.Client and trips its breaker on transport
// errors and 5xx responses.
type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// New creates a Client. breaker may be nil, in which case requests pass
// straight through to the underlying client.
func New(timeout time.Duration, breaker *circuitbreaker.Breaker) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

// Do executes the request. Server-side errors (status >= 500) count as
// failures for the breaker; 4xx responses do not.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	var resp *http.Response
	err := c.breaker.Do(func() error {
		var doErr error
		resp, doErr = c.httpClient.Do(req)
		if doErr != nil {
			return doErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return fmt.Errorf("server error: status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
