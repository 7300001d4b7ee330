package port

import (
	"context"
	"io"
	"net/http"
)

// ResponseHead carries the parts of an HTTP response the downloader inspects
type ResponseHead struct {
	StatusCode int

	// ContentLength is the declared body length, -1 if unknown
	ContentLength int64

	Header http.Header
}

// Response is a ResponseHead with a streaming body
type Response struct {
	ResponseHead
	Body io.ReadCloser
}

// RemoteClient defines the interface for talking to the HTTP(S) origin.
// Network failures are returned as *domain.TransportError and unsuccessful
// statuses as *domain.ProtocolError.
type RemoteClient interface {
	// Head issues a metadata-only request
	Head(ctx context.Context, url string) (*ResponseHead, error)

	// Get requests the resource body starting at offset.
	// An offset greater than zero adds a "bytes={offset}-" range header.
	Get(ctx context.Context, url string, offset int64) (*Response, error)
}
