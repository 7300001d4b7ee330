package fetcher

import (
	"errors"
	"net/http"

	"github.com/vertextoedge/getfile/internal/domain"
)

// retryableStatus lists the statuses worth retrying later
var retryableStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
	http.StatusRequestTimeout:      true,
}

// Classify decides whether a failed attempt should be retried later.
// Transport errors are always temporary; protocol errors only for
// server-side and timeout statuses; everything else is permanent.
func Classify(err error) domain.Outcome {
	var pe *domain.ProtocolError
	if errors.As(err, &pe) {
		if retryableStatus[pe.StatusCode] {
			return domain.TemporaryUnavailable
		}
		return domain.Failure
	}

	var te *domain.TransportError
	if errors.As(err, &te) {
		return domain.TemporaryUnavailable
	}

	return domain.Failure
}
