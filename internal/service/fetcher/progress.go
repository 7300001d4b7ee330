package fetcher

import "time"

// Progress is a snapshot of a running transfer
type Progress struct {
	URL  string
	Path string

	// Written is the number of bytes in the partial file
	Written int64

	// Total is the expected length, -1 if unknown
	Total int64

	// ResumedFrom is the number of bytes already on disk before this attempt
	ResumedFrom int64

	// Done is set on the last report of a completed stream
	Done bool
}

// ProgressFunc receives progress snapshots
type ProgressFunc func(Progress)

// progressReporter forwards snapshots to a ProgressFunc, at most one per
// interval. The first update and the final one always pass.
type progressReporter struct {
	fn       ProgressFunc
	interval time.Duration
	next     time.Time
	now      func() time.Time
	base     Progress
}

func (e *Engine) newProgressReporter(s *transferSession) *progressReporter {
	return &progressReporter{
		fn:       e.config.OnProgress,
		interval: e.config.ProgressInterval,
		now:      time.Now,
		base: Progress{
			URL:         s.url,
			Path:        s.targetPath,
			Total:       s.expectedLength,
			ResumedFrom: s.resumedFrom,
		},
	}
}

func (r *progressReporter) update(written int64) {
	if r.fn == nil {
		return
	}
	now := r.now()
	if now.Before(r.next) {
		return
	}
	r.next = now.Add(r.interval)

	p := r.base
	p.Written = written
	r.fn(p)
}

func (r *progressReporter) finish(written int64) {
	if r.fn == nil {
		return
	}
	p := r.base
	p.Written = written
	p.Done = true
	r.fn(p)
}
