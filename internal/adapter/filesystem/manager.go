package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vertextoedge/getfile/internal/domain"
	"github.com/vertextoedge/getfile/internal/partname"
	"github.com/vertextoedge/getfile/internal/port"
)

// Manager handles local filesystem operations
type Manager struct {
	dirMode  os.FileMode
	fileMode os.FileMode
}

// Ensure Manager implements port.FileSystem
var _ port.FileSystem = (*Manager)(nil)

// NewManager creates a new filesystem manager
func NewManager() *Manager {
	return &Manager{
		dirMode:  0755,
		fileMode: 0644,
	}
}

// Inspect returns length and modification time of the file at path
func (m *Manager) Inspect(path string) (domain.LocalFileState, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.LocalFileState{}, nil
	}
	if err != nil {
		return domain.LocalFileState{}, &domain.FilesystemError{Op: "stat", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return domain.LocalFileState{}, &domain.FilesystemError{Op: "stat", Path: path, Err: domain.ErrNotRegularFile}
	}

	return domain.LocalFileState{
		Exists:       true,
		Length:       info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

// OpenAppend opens a partial file in append mode
func (m *Manager) OpenAppend(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), m.dirMode); err != nil {
		return nil, &domain.FilesystemError{Op: "create parent dir", Path: path, Err: err}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, m.fileMode)
	if err != nil {
		return nil, &domain.FilesystemError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}

// SetModTime sets the modification time, leaving the access time at now
func (m *Manager) SetModTime(path string, modTime time.Time) error {
	if err := os.Chtimes(path, time.Now(), modTime); err != nil {
		return &domain.FilesystemError{Op: "set modification time", Path: path, Err: err}
	}
	return nil
}

// Publish renames the partial file to the target path
func (m *Manager) Publish(partialPath, targetPath string) error {
	if err := os.Rename(partialPath, targetPath); err != nil {
		return &domain.FilesystemError{Op: "rename", Path: partialPath, Err: err}
	}
	return nil
}

// Remove deletes a file
func (m *Manager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.FilesystemError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// ListPartials returns partial files in dir sorted by name
func (m *Manager) ListPartials(dir string) ([]port.PartialFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.FilesystemError{Op: "read dir", Path: dir, Err: err}
	}

	var partials []port.PartialFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !partname.IsPartial(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &domain.FilesystemError{Op: "stat", Path: filepath.Join(dir, entry.Name()), Err: err}
		}
		partials = append(partials, port.PartialFile{
			Path:    filepath.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(partials, func(i, j int) bool { return partials[i].Path < partials[j].Path })
	return partials, nil
}

func diskUsageError(dir string, err error) error {
	return &domain.FilesystemError{Op: "statfs", Path: dir, Err: fmt.Errorf("failed to get disk stats: %w", err)}
}
