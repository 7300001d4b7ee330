// Package headers parses the HTTP response headers a resumable download
// depends on.
package headers

import (
	"net/http"
	"strings"
	"time"
)

// RangeSupport is the resume capability advertised by Accept-Ranges
type RangeSupport int

const (
	// RangesUnspecified means the header is absent
	RangesUnspecified RangeSupport = iota

	// RangesNone means the server declared "none"
	RangesNone

	// RangesSupported means the server declared a range unit
	RangesSupported
)

// ParseAcceptRanges reads the Accept-Ranges header
func ParseAcceptRanges(h http.Header) RangeSupport {
	v := strings.TrimSpace(h.Get("Accept-Ranges"))
	switch {
	case v == "":
		return RangesUnspecified
	case strings.EqualFold(v, "none"):
		return RangesNone
	default:
		return RangesSupported
	}
}

// ParseLastModified reads the Last-Modified header in local time.
// It returns false if the header is absent or not a valid HTTP date.
func ParseLastModified(h http.Header) (time.Time, bool) {
	v := h.Get("Last-Modified")
	if v == "" {
		return time.Time{}, false
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return time.Time{}, false
	}
	return t.Local(), true
}
