package httpremote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vertextoedge/getfile/internal/domain"
)

func TestClient_Head(t *testing.T) {
	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	data := bytes.Repeat([]byte("x"), 1000)

	var gotMethod, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAgent = r.Header.Get("User-Agent")
		http.ServeContent(w, r, "file.bin", mod, bytes.NewReader(data))
	}))
	defer server.Close()

	c := NewClientWithConfig(&ClientConfig{UserAgent: "getfile-test"})
	head, err := c.Head(context.Background(), server.URL+"/file.bin")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}

	if gotMethod != http.MethodHead {
		t.Errorf("method = %s, want HEAD", gotMethod)
	}
	if gotAgent != "getfile-test" {
		t.Errorf("User-Agent = %q, want getfile-test", gotAgent)
	}
	if head.ContentLength != 1000 {
		t.Errorf("ContentLength = %d, want 1000", head.ContentLength)
	}
	if head.Header.Get("Accept-Ranges") != "bytes" {
		t.Errorf("Accept-Ranges = %q, want bytes", head.Header.Get("Accept-Ranges"))
	}
	if head.Header.Get("Last-Modified") != mod.Format(http.TimeFormat) {
		t.Errorf("Last-Modified = %q", head.Header.Get("Last-Modified"))
	}
}

func TestClient_GetRange(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i)
	}

	var gotRange []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = append(gotRange, r.Header.Get("Range"))
		http.ServeContent(w, r, "file.bin", time.Unix(1700000000, 0), bytes.NewReader(data))
	}))
	defer server.Close()

	c := NewClient()

	resp, err := c.Get(context.Background(), server.URL, 0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.ContentLength != 1000 {
		t.Errorf("Get(offset 0) = %d, length %d", resp.StatusCode, resp.ContentLength)
	}

	resp, err = c.Get(context.Background(), server.URL, 400)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}

	if resp.StatusCode != http.StatusPartialContent {
		t.Errorf("StatusCode = %d, want 206", resp.StatusCode)
	}
	if resp.Header.Get("Content-Range") != "bytes 400-999/1000" {
		t.Errorf("Content-Range = %q", resp.Header.Get("Content-Range"))
	}
	if resp.ContentLength != 600 || !bytes.Equal(body, data[400:]) {
		t.Errorf("ranged body length %d, declared %d", len(body), resp.ContentLength)
	}

	if len(gotRange) != 2 || gotRange[0] != "" || gotRange[1] != "bytes=400-" {
		t.Errorf("Range headers = %q, want [\"\" \"bytes=400-\"]", gotRange)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"forbidden", http.StatusForbidden},
		{"unavailable", http.StatusServiceUnavailable},
		{"range not satisfiable", http.StatusRequestedRangeNotSatisfiable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := NewClient()
			_, err := c.Head(context.Background(), server.URL)
			if code, ok := domain.StatusCode(err); !ok || code != tt.status {
				t.Errorf("Head() error = %v, want ProtocolError %d", err, tt.status)
			}

			_, err = c.Get(context.Background(), server.URL, 10)
			if code, ok := domain.StatusCode(err); !ok || code != tt.status {
				t.Errorf("Get() error = %v, want ProtocolError %d", err, tt.status)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	// Reserve a port and close it so the connection is refused
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := NewClient()
	_, err = c.Head(context.Background(), "http://"+addr+"/file")
	if !domain.IsTransport(err) {
		t.Errorf("Head() error = %v, want TransportError", err)
	}
}

func TestClient_ProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c := NewClientWithConfig(&ClientConfig{ProbeTimeout: 50 * time.Millisecond})
	_, err := c.Head(context.Background(), server.URL)
	if !domain.IsTransport(err) {
		t.Fatalf("Head() error = %v, want TransportError", err)
	}

	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Errorf("Head() error = %v, want a timeout", err)
	}
}

func TestClient_UnsupportedScheme(t *testing.T) {
	c := NewClient()
	_, err := c.Head(context.Background(), "ftp://example.com/file")
	if err == nil || domain.IsTransport(err) {
		t.Errorf("Head() error = %v, want a non-transport error", err)
	}
}
