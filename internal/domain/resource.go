package domain

import "time"

// ResourceMetadata describes a remote resource as reported by a probe
type ResourceMetadata struct {
	// Length is the content length, -1 if the server omitted it
	Length int64

	// LastModified is the remote modification time, zero if omitted
	LastModified time.Time

	// AcceptsRanges reports whether the transfer may be resumed.
	// It is false whenever Length or LastModified is unknown.
	AcceptsRanges bool
}

// HasLength returns true if the server reported a content length
func (m ResourceMetadata) HasLength() bool {
	return m.Length >= 0
}

// HasLastModified returns true if the server reported a modification time
func (m ResourceMetadata) HasLastModified() bool {
	return !m.LastModified.IsZero()
}

// LocalFileState describes a file on the local filesystem
type LocalFileState struct {
	Exists       bool
	Length       int64
	LastModified time.Time
}

// Matches returns true if the local file has the exact identity of the
// remote resource. An unknown remote length or time never matches.
func (s LocalFileState) Matches(m ResourceMetadata) bool {
	if !s.Exists || !m.HasLength() || !m.HasLastModified() {
		return false
	}
	return s.Length == m.Length && s.LastModified.Equal(m.LastModified)
}

// PartialFileIdentity binds a partial file to one remote (length, modtime) pair
type PartialFileIdentity struct {
	TargetPath string
	Length     int64
	ModTime    time.Time
}
