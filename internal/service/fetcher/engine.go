package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/vertextoedge/getfile/internal/domain"
	"github.com/vertextoedge/getfile/internal/partname"
	"github.com/vertextoedge/getfile/internal/port"
)

// Config contains engine configuration
type Config struct {
	// BufferSize is the size of the buffer used to stream the body to disk
	BufferSize int

	// RequireAcceptRanges disables resuming when the server does not send
	// an Accept-Ranges header. By default a silent server is trusted.
	RequireAcceptRanges bool

	// CheckFreeSpace refuses to start a transfer that cannot fit on disk
	CheckFreeSpace bool

	// ProgressInterval is the minimum time between two progress callbacks
	ProgressInterval time.Duration

	// OnProgress is called while bytes are written; may be nil
	OnProgress ProgressFunc
}

// DefaultConfig returns default engine configuration
func DefaultConfig() *Config {
	return &Config{
		BufferSize:       64 * 1024,
		CheckFreeSpace:   true,
		ProgressInterval: 500 * time.Millisecond,
	}
}

// Engine resumes interrupted HTTP(S) downloads.
//
// It keeps no state between calls: everything it needs to resume lives in
// the name and content of the partial file next to the target. A single
// engine must not run two downloads to the same path at the same time.
type Engine struct {
	config *Config
	remote port.RemoteClient
	fs     port.FileSystem
	logger *zap.Logger
}

// New creates a new Engine
func New(cfg *Config, remote port.RemoteClient, fs port.FileSystem, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64 * 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		config: cfg,
		remote: remote,
		fs:     fs,
		logger: logger,
	}
}

// DownloadFile downloads url to path, resuming a previous partial download
// when the remote resource is unchanged. Errors never escape: the returned
// result carries the outcome and, for anything but success, the reason.
func (e *Engine) DownloadFile(ctx context.Context, url, path string) domain.DownloadResult {
	log := e.logger.With(zap.String("url", url), zap.String("path", path))
	log.Info("downloading file")

	meta, err := e.probe(ctx, url, log)
	if err != nil {
		log.Warn("failed to probe remote resource", zap.Error(err))
		return e.errorResult(path, err, nil)
	}

	local, err := e.fs.Inspect(path)
	if err != nil {
		log.Error("failed to inspect target file", zap.Error(err))
		return e.errorResult(path, err, nil)
	}

	if local.Exists {
		if local.Matches(meta) {
			log.Info("file already exists and has not changed",
				zap.Int64("size", local.Length),
				zap.Time("modified", local.LastModified))
			return domain.DownloadResult{
				Outcome:      domain.Success,
				Path:         path,
				BytesWritten: local.Length,
				UpToDate:     true,
			}
		}

		reason := divergedReason(path, local, meta)
		log.Error("file already exists but remote file has changed or lacks identity info, delete it manually",
			zap.Int64("local_size", local.Length),
			zap.Int64("remote_size", meta.Length),
			zap.Time("local_modified", local.LastModified),
			zap.Time("remote_modified", meta.LastModified))
		return domain.DownloadResult{Outcome: domain.Failure, Reason: reason, Path: path}
	}

	session, err := e.prepare(url, path, meta, log)
	if err != nil {
		log.Error("failed to prepare partial file", zap.Error(err))
		return e.errorResult(path, err, nil)
	}

	return e.transfer(ctx, session, log)
}

// prepare picks the partial file and how many bytes of it can be reused
func (e *Engine) prepare(url, path string, meta domain.ResourceMetadata, log *zap.Logger) (*transferSession, error) {
	s := &transferSession{
		url:             url,
		targetPath:      path,
		expectedLength:  meta.Length,
		expectedModTime: meta.LastModified,
		resumable:       meta.AcceptsRanges,
	}

	if meta.AcceptsRanges {
		s.partialPath = partname.EncodeIdentity(domain.PartialFileIdentity{
			TargetPath: path,
			Length:     meta.Length,
			ModTime:    meta.LastModified,
		})
		partial, err := e.fs.Inspect(s.partialPath)
		if err != nil {
			return nil, err
		}
		if partial.Exists {
			s.written = partial.Length
			s.resumedFrom = partial.Length
		}
		return s, nil
	}

	// Without an identity in the name, old bytes cannot be trusted
	s.partialPath = partname.Generic(path)
	log.Info("resuming download is not supported")
	stale, err := e.fs.Inspect(s.partialPath)
	if err != nil {
		return nil, err
	}
	if stale.Exists {
		log.Info("removing stale partial file",
			zap.String("partial", s.partialPath),
			zap.Int64("size", stale.Length))
		if err := e.fs.Remove(s.partialPath); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// errorResult converts an error into a result using Classify
func (e *Engine) errorResult(path string, err error, s *transferSession) domain.DownloadResult {
	r := domain.DownloadResult{
		Outcome: Classify(err),
		Reason:  err.Error(),
		Path:    path,
	}
	if s != nil {
		r.BytesWritten = s.written
		r.Resumed = s.resumedFrom > 0
		r.ResumedFrom = s.resumedFrom
		if s.resumedFrom > 0 && (domain.IsConsistency(err) || domain.IsFormat(err)) {
			r.Reason += fmt.Sprintf("; delete %s to restart the download", s.partialPath)
		}
	}
	return r
}

func divergedReason(path string, local domain.LocalFileState, meta domain.ResourceMetadata) string {
	remoteSize := "unknown (no Content-Length)"
	if meta.HasLength() {
		remoteSize = fmt.Sprintf("%d bytes", meta.Length)
	}
	remoteTime := "unknown (no Last-Modified)"
	if meta.HasLastModified() {
		remoteTime = meta.LastModified.Format(time.RFC3339)
	}

	return fmt.Sprintf("%s already exists but remote file has changed or lacks identity info: "+
		"local size %d bytes, remote size %s; local date %s, remote date %s; delete the local file manually",
		path, local.Length, remoteSize, local.LastModified.Format(time.RFC3339), remoteTime)
}

func sizeString(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(n))
}
