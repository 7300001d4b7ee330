package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/getfile/internal/domain"
	"github.com/vertextoedge/getfile/internal/headers"
	"github.com/vertextoedge/getfile/internal/port"
)

// transferSession is the state of one transfer. Only the partial file's
// bytes and name outlive it.
type transferSession struct {
	url             string
	targetPath      string
	partialPath     string
	written         int64
	resumedFrom     int64
	expectedLength  int64
	expectedModTime time.Time
	resumable       bool
}

// transfer fetches the missing bytes into the partial file and publishes it
func (e *Engine) transfer(ctx context.Context, s *transferSession, log *zap.Logger) domain.DownloadResult {
	log = log.With(zap.String("partial", s.partialPath))

	if s.expectedLength >= 0 && s.written > s.expectedLength {
		err := &domain.ConsistencyError{
			Check:    "partial file size",
			Expected: fmt.Sprintf("at most %d bytes", s.expectedLength),
			Actual:   fmt.Sprintf("%d bytes", s.written),
		}
		log.Error("partial file is larger than the remote resource", zap.Error(err))
		return e.errorResult(s.targetPath, err, s)
	}

	if s.written > 0 && s.written == s.expectedLength {
		log.Info("partial file already complete", zap.Int64("size", s.written))
		return e.finalize(s, log)
	}

	if s.written > 0 {
		log.Info("resuming download",
			zap.Int64("from_byte", s.written),
			zap.String("from", sizeString(s.written)))
	} else {
		log.Info("starting download")
	}

	if err := e.checkFreeSpace(s, log); err != nil {
		log.Error("not enough free space for download", zap.Error(err))
		return e.errorResult(s.targetPath, err, s)
	}

	resp, err := e.remote.Get(ctx, s.url, s.written)
	if err != nil {
		log.Warn("download request failed", zap.Error(err))
		return e.errorResult(s.targetPath, err, s)
	}
	defer resp.Body.Close()

	if s.resumable && headers.ParseAcceptRanges(resp.Header) == headers.RangesNone {
		log.Warn("server accepted ranges in HEAD but not in GET")
	}

	if err := s.validate(&resp.ResponseHead); err != nil {
		log.Error("response does not match the probed resource", zap.Error(err))
		return e.errorResult(s.targetPath, err, s)
	}

	if s.expectedLength > 0 {
		left := s.expectedLength - s.written
		log.Info("left to get",
			zap.Int64("bytes", left),
			zap.String("size", sizeString(left)),
			zap.String("percent", fmt.Sprintf("%.2f%%", float64(left)/float64(s.expectedLength)*100)))
	}

	if err := e.stream(s, resp.Body); err != nil {
		log.Warn("download interrupted",
			zap.Int64("saved", s.written),
			zap.Int64("total", s.expectedLength),
			zap.Error(err))
		return e.errorResult(s.targetPath, err, s)
	}

	return e.finalize(s, log)
}

// validate checks a transfer response against the probed identity
func (s *transferSession) validate(head *port.ResponseHead) error {
	if s.written > 0 {
		if head.StatusCode != http.StatusPartialContent {
			return &domain.ConsistencyError{
				Check:    "resume response status",
				Expected: "206 Partial Content",
				Actual:   fmt.Sprintf("%d %s", head.StatusCode, http.StatusText(head.StatusCode)),
			}
		}

		cr, err := headers.ParseContentRange(head.Header.Get("Content-Range"))
		if err != nil {
			return err
		}
		if cr.First != s.written {
			return &domain.ConsistencyError{
				Check:    "content-range first byte",
				Expected: strconv.FormatInt(s.written, 10),
				Actual:   strconv.FormatInt(cr.First, 10),
			}
		}
		if cr.Last+1 != cr.Total {
			return &domain.ConsistencyError{
				Check:    "content-range last byte",
				Expected: strconv.FormatInt(cr.Total-1, 10),
				Actual:   strconv.FormatInt(cr.Last, 10),
			}
		}
		if cr.Total != s.expectedLength {
			return &domain.ConsistencyError{
				Check:    "content-range total length",
				Expected: strconv.FormatInt(s.expectedLength, 10),
				Actual:   strconv.FormatInt(cr.Total, 10),
			}
		}
	}

	if s.expectedLength >= 0 {
		if head.ContentLength < 0 {
			return &domain.ConsistencyError{
				Check:    "remote file length",
				Expected: fmt.Sprintf("%d bytes", s.expectedLength),
				Actual:   "undefined",
			}
		}
		if s.written+head.ContentLength != s.expectedLength {
			return &domain.ConsistencyError{
				Check:    "remote file length",
				Expected: fmt.Sprintf("%d bytes", s.expectedLength),
				Actual:   fmt.Sprintf("%d bytes", s.written+head.ContentLength),
			}
		}
	}

	if !s.expectedModTime.IsZero() {
		if lastMod, ok := headers.ParseLastModified(head.Header); ok && !lastMod.Equal(s.expectedModTime) {
			return &domain.ConsistencyError{
				Check:    "remote file date",
				Expected: s.expectedModTime.Format(time.RFC3339),
				Actual:   lastMod.Format(time.RFC3339),
			}
		}
	}

	return nil
}

// stream appends body to the partial file through a fixed-size buffer
func (e *Engine) stream(s *transferSession, body io.Reader) error {
	w, err := e.fs.OpenAppend(s.partialPath)
	if err != nil {
		return err
	}

	progress := e.newProgressReporter(s)
	progress.update(s.written)

	buf := make([]byte, e.config.BufferSize)
	for {
		nr, rerr := body.Read(buf)
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			s.written += int64(nw)
			if werr == nil && nw != nr {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				w.Close()
				return &domain.FilesystemError{Op: "write", Path: s.partialPath, Err: werr}
			}
			progress.update(s.written)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			w.Close()
			return &domain.TransportError{Op: "read body", URL: s.url, Err: rerr}
		}
	}

	if err := w.Close(); err != nil {
		return &domain.FilesystemError{Op: "close", Path: s.partialPath, Err: err}
	}
	progress.finish(s.written)
	return nil
}

// finalize stamps the remote modification time on the partial file and
// renames it to the target path. The rename is the publish point.
func (e *Engine) finalize(s *transferSession, log *zap.Logger) domain.DownloadResult {
	if !s.expectedModTime.IsZero() {
		if err := e.fs.SetModTime(s.partialPath, s.expectedModTime); err != nil {
			log.Error("failed to set modification time", zap.Error(err))
			return e.errorResult(s.targetPath, err, s)
		}
	}

	if err := e.fs.Publish(s.partialPath, s.targetPath); err != nil {
		log.Error("failed to publish downloaded file", zap.Error(err))
		return e.errorResult(s.targetPath, err, s)
	}

	result := domain.DownloadResult{
		Outcome:      domain.Success,
		Path:         s.targetPath,
		BytesWritten: s.written,
		Resumed:      s.resumedFrom > 0,
		ResumedFrom:  s.resumedFrom,
	}

	if s.expectedLength >= 0 && s.written != s.expectedLength {
		result.Short = s.written < s.expectedLength
		log.Warn("saved size differs from remote length",
			zap.Int64("saved", s.written),
			zap.Int64("total", s.expectedLength),
			zap.Int64("missing", s.expectedLength-s.written))
		return result
	}

	log.Info("download complete",
		zap.Int64("size", s.written),
		zap.String("saved", sizeString(s.written)))
	return result
}

// checkFreeSpace fails the transfer early when the remaining bytes cannot fit
func (e *Engine) checkFreeSpace(s *transferSession, log *zap.Logger) error {
	if !e.config.CheckFreeSpace || s.expectedLength < 0 {
		return nil
	}
	needed := s.expectedLength - s.written
	if needed <= 0 {
		return nil
	}

	dir := filepath.Dir(s.targetPath)
	usage, err := e.fs.GetDiskUsage(dir)
	if err != nil {
		// The directory may not exist yet; the write itself will tell
		log.Debug("skipping free space check", zap.Error(err))
		return nil
	}
	if usage.Free < uint64(needed) {
		err := fmt.Errorf("%w: need %s, %s free (%.1f%% used)",
			domain.ErrInsufficientSpace, sizeString(needed), sizeString(int64(usage.Free)), usage.UsedPct)
		return &domain.FilesystemError{Op: "check free space", Path: dir, Err: err}
	}
	return nil
}
