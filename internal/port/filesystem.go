package port

import (
	"io"
	"time"

	"github.com/vertextoedge/getfile/internal/domain"
)

// DiskUsage represents disk usage statistics
type DiskUsage struct {
	Total   uint64  // Total disk space in bytes
	Used    uint64  // Used disk space in bytes
	Free    uint64  // Free disk space in bytes
	UsedPct float64 // Used percentage (0-100)
}

// PartialFile is a partial download found on disk
type PartialFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// FileSystem defines the interface for filesystem operations.
// Errors are returned as *domain.FilesystemError.
type FileSystem interface {
	// Inspect returns the state of the file at path.
	// A missing file is reported with Exists=false and no error.
	Inspect(path string) (domain.LocalFileState, error)

	// OpenAppend opens path for appending, creating it and its parent
	// directory if needed
	OpenAppend(path string) (io.WriteCloser, error)

	// SetModTime sets the modification time of path
	SetModTime(path string, modTime time.Time) error

	// Publish atomically renames a finished partial file to its target path
	Publish(partialPath, targetPath string) error

	// Remove deletes path; a missing file is not an error
	Remove(path string) error

	// GetDiskUsage returns disk usage statistics for the filesystem holding dir
	GetDiskUsage(dir string) (*DiskUsage, error)

	// ListPartials returns the partial files directly inside dir
	ListPartials(dir string) ([]PartialFile, error)
}
