package status

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/itohio/hidroroll/pkg/config"
)

// MaxResponseSize bounds how much of a response body is kept.
const MaxResponseSize = 2048

// Request is a single call against the collector.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Response is what the publisher needs from a completed call.
type Response struct {
	StatusCode    int
	ContentLength int64
	Body          []byte // At most MaxResponseSize bytes
}

// Client performs requests against one fixed collector.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Close() error
}

var _ Client = (*HTTPClient)(nil)

// HTTPClient is a Client over a dedicated keep-alive transport. Redirects are
// not followed.
type HTTPClient struct {
	base      string
	client    *http.Client
	transport *http.Transport
}

// NewHTTPClient creates a client for the collector in cfg.
func NewHTTPClient(cfg config.CollectorConfig) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        1,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     cfg.KeepAlive,
	}

	return &HTTPClient{
		base:      cfg.BaseURL(),
		transport: transport,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Do sends req and reads up to MaxResponseSize bytes of the response body.
func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	url := c.base + req.Path
	if req.Query != "" {
		url += "?" + req.Query
	}

	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	// Drain the rest so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return &Response{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		Body:          data,
	}, nil
}

// Close drops idle connections.
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
