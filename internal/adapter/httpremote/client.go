package httpremote

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vertextoedge/getfile/internal/domain"
	"github.com/vertextoedge/getfile/internal/port"
)

// Client is the HTTP(S) client used for probing and transferring resources
type Client struct {
	httpClient     *http.Client
	downloadClient *http.Client
	userAgent      string
}

// Ensure Client implements port.RemoteClient
var _ port.RemoteClient = (*Client)(nil)

// ClientConfig contains optional client configuration
type ClientConfig struct {
	// ProbeTimeout bounds a whole HEAD request (default: 30s)
	ProbeTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers of a
	// transfer; the body itself has no deadline (default: 30s)
	ResponseHeaderTimeout time.Duration

	SkipTLSVerify bool
	UserAgent     string

	// BufferSizeKB sets the transport read/write buffers (default: 64)
	BufferSizeKB int
}

// NewClient creates a new client with default configuration
func NewClient() *Client {
	return NewClientWithConfig(nil)
}

// NewClientWithConfig creates a new client with custom configuration
func NewClientWithConfig(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 30 * time.Second
	}
	headerTimeout := cfg.ResponseHeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = 30 * time.Second
	}
	bufferSize := 64 * 1024
	if cfg.BufferSizeKB > 0 {
		bufferSize = cfg.BufferSizeKB * 1024
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.SkipTLSVerify,
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,

		WriteBufferSize: bufferSize,
		ReadBufferSize:  bufferSize,

		// Raw bytes are required for byte ranges and length checks
		DisableCompression: true,

		// Response header timeout (not total download timeout)
		ResponseHeaderTimeout: headerTimeout,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   probeTimeout,
		},
		downloadClient: &http.Client{
			Transport: transport,
			Timeout:   0, // No timeout for downloads
		},
		userAgent: cfg.UserAgent,
	}
}

// Head issues a HEAD request and returns the response headers
func (c *Client) Head(ctx context.Context, url string) (*port.ResponseHead, error) {
	resp, err := c.do(ctx, c.httpClient, http.MethodHead, url, -1)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	return &port.ResponseHead{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		Header:        resp.Header,
	}, nil
}

// Get issues a GET request, with a range header when offset > 0.
// The caller must close the returned body.
func (c *Client) Get(ctx context.Context, url string, offset int64) (*port.Response, error) {
	rangeStart := int64(-1)
	if offset > 0 {
		rangeStart = offset
	}

	resp, err := c.do(ctx, c.downloadClient, http.MethodGet, url, rangeStart)
	if err != nil {
		return nil, err
	}

	return &port.Response{
		ResponseHead: port.ResponseHead{
			StatusCode:    resp.StatusCode,
			ContentLength: resp.ContentLength,
			Header:        resp.Header,
		},
		Body: resp.Body,
	}, nil
}

// do performs an HTTP request with an optional Range header and converts
// failures into domain errors
func (c *Client) do(ctx context.Context, client *http.Client, method, url string, rangeStart int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", req.URL.Scheme)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if rangeStart >= 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", rangeStart))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: method, URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		io.CopyN(io.Discard, resp.Body, 4096)
		resp.Body.Close()
		return nil, &domain.ProtocolError{Op: method, URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}
