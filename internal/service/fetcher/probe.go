package fetcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/vertextoedge/getfile/internal/domain"
	"github.com/vertextoedge/getfile/internal/headers"
	"github.com/vertextoedge/getfile/internal/port"
)

// probe learns length, modification time and resume support of url
// without transferring its body
func (e *Engine) probe(ctx context.Context, url string, log *zap.Logger) (domain.ResourceMetadata, error) {
	head, err := e.remote.Head(ctx, url)
	if err != nil {
		return domain.ResourceMetadata{Length: -1}, err
	}
	return e.interpret(head, log), nil
}

// interpret turns probe response headers into resource metadata
func (e *Engine) interpret(head *port.ResponseHead, log *zap.Logger) domain.ResourceMetadata {
	meta := domain.ResourceMetadata{Length: head.ContentLength}
	if meta.Length < 0 {
		meta.Length = -1
	}

	switch headers.ParseAcceptRanges(head.Header) {
	case headers.RangesSupported:
		meta.AcceptsRanges = true
	case headers.RangesNone:
		meta.AcceptsRanges = false
	case headers.RangesUnspecified:
		if e.config.RequireAcceptRanges {
			log.Warn("Accept-Ranges header is absent, resuming disabled")
		} else {
			log.Warn("Accept-Ranges header is absent, assuming bytes")
			meta.AcceptsRanges = true
		}
	}

	if lastMod, ok := headers.ParseLastModified(head.Header); ok {
		meta.LastModified = lastMod
	}

	if !meta.HasLength() || !meta.HasLastModified() {
		if meta.AcceptsRanges {
			log.Warn("resuming is disabled because the Content-Length or Last-Modified header is absent",
				zap.Bool("has_length", meta.HasLength()),
				zap.Bool("has_last_modified", meta.HasLastModified()))
		}
		meta.AcceptsRanges = false
	}

	log.Debug("probed remote resource",
		zap.Int64("length", meta.Length),
		zap.Time("last_modified", meta.LastModified),
		zap.Bool("accepts_ranges", meta.AcceptsRanges))

	return meta
}
