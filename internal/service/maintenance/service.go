package maintenance

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/getfile/internal/domain"
	"github.com/vertextoedge/getfile/internal/partname"
	"github.com/vertextoedge/getfile/internal/port"
)

// Config contains maintenance service configuration
type Config struct {
	// PartialMaxAge is the age after which an untouched partial file is
	// considered abandoned
	PartialMaxAge time.Duration
}

// DefaultConfig returns default maintenance configuration
func DefaultConfig() *Config {
	return &Config{
		PartialMaxAge: 7 * 24 * time.Hour,
	}
}

// Partial describes a partial file found on disk
type Partial struct {
	Path    string    `yaml:"path"`
	Size    int64     `yaml:"size"`
	ModTime time.Time `yaml:"modified"`

	// Target is the file the partial download is meant to become
	Target string `yaml:"target"`

	// Resumable is set when the name carries the remote identity
	Resumable bool `yaml:"resumable"`

	// RemoteLength is the expected length, -1 for generic partial files
	RemoteLength int64 `yaml:"remote_length"`

	// RemoteModTime is zero for generic partial files
	RemoteModTime time.Time `yaml:"remote_modified,omitempty"`

	// TargetExists means a later download can never resume this partial file
	TargetExists bool `yaml:"target_exists"`

	// Ambiguous is set when the name decodes as an identity but may also be
	// the generic partial of AltTarget. A generic name such as
	// "photo.raw.jpg.gf#" decodes as target "photo".
	Ambiguous bool   `yaml:"ambiguous"`
	AltTarget string `yaml:"alt_target,omitempty"`
}

// Percent returns how much of the remote file is saved, or -1 if unknown
func (p Partial) Percent() float64 {
	if p.RemoteLength <= 0 {
		return -1
	}
	return float64(p.Size) / float64(p.RemoteLength) * 100
}

// CleanReport summarizes a Clean run
type CleanReport struct {
	Removed    []Partial
	Kept       []Partial
	FreedBytes int64
}

// Service inspects and cleans up partial files left by interrupted downloads
type Service struct {
	config *Config
	fs     port.FileSystem
	logger *zap.Logger
	now    func() time.Time
}

// New creates a new maintenance Service
func New(cfg *Config, fs port.FileSystem, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.PartialMaxAge == 0 {
		cfg.PartialMaxAge = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		config: cfg,
		fs:     fs,
		logger: logger,
		now:    time.Now,
	}
}

// Scan returns the partial files directly inside dir with their decoded identity
func (s *Service) Scan(dir string) ([]Partial, error) {
	files, err := s.fs.ListPartials(dir)
	if err != nil {
		return nil, err
	}

	partials := make([]Partial, 0, len(files))
	for _, f := range files {
		p := Partial{
			Path:         f.Path,
			Size:         f.Size,
			ModTime:      f.ModTime,
			RemoteLength: -1,
		}

		generic := strings.TrimSuffix(f.Path, "."+partname.Extension)
		id, err := partname.Decode(f.Path)
		if err != nil {
			// Any other name is the generic form of some target
			p.Target = generic
			p.TargetExists = s.targetExists(p.Path, generic)
			partials = append(partials, p)
			continue
		}

		p.Target = id.TargetPath
		p.Resumable = true
		p.RemoteLength = id.Length
		p.RemoteModTime = id.ModTime

		target, err := s.inspectTarget(p.Path, id.TargetPath)
		p.TargetExists = err != nil || target.Exists

		// Only a completed download of this exact identity proves the name
		// was written by Encode
		completed := err == nil && target.Matches(domain.ResourceMetadata{Length: id.Length, LastModified: id.ModTime})
		if !completed && (p.TargetExists || s.targetExists(p.Path, generic)) {
			p.Ambiguous = true
			p.AltTarget = generic
		}

		partials = append(partials, p)
	}

	s.logger.Debug("scanned partial files", zap.String("dir", dir), zap.Int("count", len(partials)))
	return partials, nil
}

func (s *Service) inspectTarget(partial, target string) (domain.LocalFileState, error) {
	state, err := s.fs.Inspect(target)
	if err != nil {
		s.logger.Debug("failed to inspect target of partial file",
			zap.String("partial", partial),
			zap.String("target", target),
			zap.Error(err))
	}
	return state, err
}

// targetExists reports whether anything sits at target. Something other
// than a regular file counts as existing.
func (s *Service) targetExists(partial, target string) bool {
	state, err := s.inspectTarget(partial, target)
	return err != nil || state.Exists
}

// Clean removes partial files in dir that are older than olderThan or whose
// target already exists. Ambiguous names are only removed by age. A
// non-positive olderThan uses the configured maximum age. With dryRun set
// nothing is deleted.
func (s *Service) Clean(dir string, olderThan time.Duration, dryRun bool) (*CleanReport, error) {
	if olderThan <= 0 {
		olderThan = s.config.PartialMaxAge
	}

	partials, err := s.Scan(dir)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-olderThan)
	report := &CleanReport{}
	for _, p := range partials {
		reason := ""
		switch {
		case p.TargetExists && !p.Ambiguous:
			reason = "target exists"
		case p.ModTime.Before(cutoff):
			reason = "abandoned"
		default:
			report.Kept = append(report.Kept, p)
			continue
		}

		if !dryRun {
			if err := s.fs.Remove(p.Path); err != nil {
				s.logger.Error("failed to remove partial file", zap.String("partial", p.Path), zap.Error(err))
				return report, err
			}
		}
		s.logger.Info("removed partial file",
			zap.String("partial", p.Path),
			zap.String("reason", reason),
			zap.Int64("size", p.Size),
			zap.Bool("dry_run", dryRun))
		report.Removed = append(report.Removed, p)
		report.FreedBytes += p.Size
	}

	if len(report.Removed) > 0 {
		s.logger.Info("cleaned up partial files",
			zap.String("dir", dir),
			zap.Int("count", len(report.Removed)),
			zap.Int64("freed_bytes", report.FreedBytes))
	}
	return report, nil
}
