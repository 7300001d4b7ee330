package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestTransportError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *TransportError
		want string
	}{
		{
			name: "with url",
			err:  &TransportError{Op: "HEAD", URL: "http://example.com/a", Err: errors.New("connection refused")},
			want: "HEAD http://example.com/a: connection refused",
		},
		{
			name: "without url",
			err:  &TransportError{Op: "read body", Err: errors.New("unexpected EOF")},
			want: "read body: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProtocolError_Error(t *testing.T) {
	err := &ProtocolError{Op: "GET", URL: "http://example.com/a", StatusCode: http.StatusNotFound}
	want := "GET http://example.com/a: HTTP status 404 (Not Found)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %v, want %v", got, want)
	}
}

func TestConsistencyError_Error(t *testing.T) {
	err := &ConsistencyError{Check: "content-range start", Expected: "400", Actual: "0"}
	want := "content-range start: expected 400, got 0"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %v, want %v", got, want)
	}
}

func TestFormatError_Unwrap(t *testing.T) {
	underlying := errors.New("bad digit")
	err := &FormatError{Kind: "content-range", Input: "bytes x-1/2", Err: underlying}

	if !errors.Is(err, underlying) {
		t.Error("errors.Is() = false, want true")
	}
	want := `malformed content-range "bytes x-1/2": bad digit`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %v, want %v", got, want)
	}

	bare := &FormatError{Kind: "partial file name", Input: "a.gf#"}
	if got := bare.Error(); got != `malformed partial file name "a.gf#"` {
		t.Errorf("Error() = %v", got)
	}
}

func TestFilesystemError_Unwrap(t *testing.T) {
	err := &FilesystemError{Op: "rename", Path: "/tmp/x", Err: ErrInsufficientSpace}
	if !errors.Is(err, ErrInsufficientSpace) {
		t.Error("errors.Is() = false, want true")
	}
}

func TestErrorHelpers(t *testing.T) {
	transport := fmt.Errorf("probe: %w", &TransportError{Op: "HEAD", Err: errors.New("timeout")})
	protocol := fmt.Errorf("probe: %w", &ProtocolError{Op: "HEAD", StatusCode: 503})
	consistency := fmt.Errorf("transfer: %w", &ConsistencyError{Check: "length"})
	format := fmt.Errorf("transfer: %w", &FormatError{Kind: "content-range"})

	if !IsTransport(transport) || IsTransport(protocol) {
		t.Error("IsTransport() mismatch")
	}
	if code, ok := StatusCode(protocol); !ok || code != 503 {
		t.Errorf("StatusCode() = %d, %v, want 503, true", code, ok)
	}
	if _, ok := StatusCode(transport); ok {
		t.Error("StatusCode() on transport error should be false")
	}
	if !IsConsistency(consistency) || IsConsistency(format) {
		t.Error("IsConsistency() mismatch")
	}
	if !IsFormat(format) || IsFormat(nil) {
		t.Error("IsFormat() mismatch")
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
		retry   bool
	}{
		{Success, "success", false},
		{Failure, "failure", false},
		{TemporaryUnavailable, "temporary_unavailable", true},
		{Outcome(42), "unknown", false},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("String() = %v, want %v", got, tt.want)
		}
		if got := tt.outcome.ShouldRetry(); got != tt.retry {
			t.Errorf("%v.ShouldRetry() = %v, want %v", tt.outcome, got, tt.retry)
		}
	}
}

func TestLocalFileState_Matches(t *testing.T) {
	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	remote := ResourceMetadata{Length: 1000, LastModified: mod, AcceptsRanges: true}

	tests := []struct {
		name   string
		local  LocalFileState
		remote ResourceMetadata
		want   bool
	}{
		{"identical", LocalFileState{Exists: true, Length: 1000, LastModified: mod.Local()}, remote, true},
		{"missing", LocalFileState{}, remote, false},
		{"length differs", LocalFileState{Exists: true, Length: 999, LastModified: mod}, remote, false},
		{"time differs", LocalFileState{Exists: true, Length: 1000, LastModified: mod.Add(time.Second)}, remote, false},
		{"remote length unknown", LocalFileState{Exists: true, Length: 1000, LastModified: mod}, ResourceMetadata{Length: -1, LastModified: mod}, false},
		{"remote time unknown", LocalFileState{Exists: true, Length: 1000, LastModified: mod}, ResourceMetadata{Length: 1000}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.local.Matches(tt.remote); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
