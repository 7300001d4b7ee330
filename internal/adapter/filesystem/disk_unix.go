//go:build !windows

package filesystem

import (
	"golang.org/x/sys/unix"

	"github.com/vertextoedge/getfile/internal/port"
)

// GetDiskUsage returns disk usage for the filesystem holding dir
func (m *Manager) GetDiskUsage(dir string) (*port.DiskUsage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return nil, diskUsageError(dir, err)
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	used := total - free

	usage := &port.DiskUsage{
		Total: total,
		Used:  used,
		Free:  free,
	}
	if total > 0 {
		usage.UsedPct = float64(used) / float64(total) * 100
	}
	return usage, nil
}
