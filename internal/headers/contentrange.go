package headers

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/vertextoedge/getfile/internal/domain"
)

// ContentRange is a parsed "bytes first-last/total" header value
type ContentRange struct {
	First int64
	Last  int64
	Total int64
}

var contentRangePattern = regexp.MustCompile(`^bytes\s+(?:\*|(\d+)-(\d+))/(?:\*|(\d+))$`)

// ParseContentRange parses a Content-Range header value. The unsatisfied
// and unknown-length forms ("bytes */1000", "bytes 0-9/*") are recognised
// but rejected, since a resume needs all three numbers.
func ParseContentRange(header string) (ContentRange, error) {
	m := contentRangePattern.FindStringSubmatch(header)
	if m == nil {
		return ContentRange{}, rangeError(header, errors.New("expected bytes first-last/total"))
	}
	if m[1] == "" || m[3] == "" {
		return ContentRange{}, rangeError(header, errors.New("wildcard ranges are not supported"))
	}

	var cr ContentRange
	var err error
	if cr.First, err = strconv.ParseInt(m[1], 10, 64); err != nil {
		return ContentRange{}, rangeError(header, err)
	}
	if cr.Last, err = strconv.ParseInt(m[2], 10, 64); err != nil {
		return ContentRange{}, rangeError(header, err)
	}
	if cr.Total, err = strconv.ParseInt(m[3], 10, 64); err != nil {
		return ContentRange{}, rangeError(header, err)
	}
	if cr.Last < cr.First {
		return ContentRange{}, rangeError(header, errors.New("last byte before first byte"))
	}

	return cr, nil
}

func rangeError(header string, err error) error {
	return &domain.FormatError{Kind: "content-range", Input: header, Err: err}
}
