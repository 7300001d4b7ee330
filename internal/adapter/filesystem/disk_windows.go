//go:build windows

package filesystem

import (
	"golang.org/x/sys/windows"

	"github.com/vertextoedge/getfile/internal/port"
)

// GetDiskUsage returns disk usage for the volume holding dir
func (m *Manager) GetDiskUsage(dir string) (*port.DiskUsage, error) {
	path, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return nil, diskUsageError(dir, err)
	}

	var freeAvailable, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(path, &freeAvailable, &total, &totalFree); err != nil {
		return nil, diskUsageError(dir, err)
	}

	used := total - totalFree
	usage := &port.DiskUsage{
		Total: total,
		Used:  used,
		Free:  freeAvailable,
	}
	if total > 0 {
		usage.UsedPct = float64(used) / float64(total) * 100
	}
	return usage, nil
}
