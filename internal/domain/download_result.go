package domain

// Outcome is the tri-state result of a download attempt
type Outcome int

const (
	// Failure is permanent: retrying will not help
	Failure Outcome = iota

	// Success means the target file is present and complete
	Success

	// TemporaryUnavailable means the caller should try again later
	TemporaryUnavailable
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case TemporaryUnavailable:
		return "temporary_unavailable"
	default:
		return "unknown"
	}
}

// ShouldRetry reports whether a caller should attempt the download again
func (o Outcome) ShouldRetry() bool {
	return o == TemporaryUnavailable
}

// DownloadResult represents the result of a DownloadFile call
type DownloadResult struct {
	// Outcome is the tri-state verdict of the attempt
	Outcome Outcome

	// Reason explains a non-success outcome: which check failed and the
	// expected and actual values
	Reason string

	// Path is the target path of the download
	Path string

	// BytesWritten is the size of the partial file when the attempt ended
	BytesWritten int64

	// Resumed indicates whether the download continued a previous partial file
	Resumed bool

	// ResumedFrom is the byte position from which the download was resumed
	ResumedFrom int64

	// UpToDate is set when the target already matched the remote resource
	UpToDate bool

	// Short is set when the stream ended before the expected length
	Short bool
}
