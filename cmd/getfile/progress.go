package main

import (
	"io"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/vertextoedge/getfile/internal/service/fetcher"
)

// progressBar renders fetcher progress on a terminal. Every attempt gets
// a fresh bar.
type progressBar struct {
	w    io.Writer
	bar  *progressbar.ProgressBar
	last int64
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w}
}

func (p *progressBar) update(pr fetcher.Progress) {
	if p.bar == nil || pr.Written < p.last {
		p.close()
		p.bar = progressbar.NewOptions64(pr.Total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(filepath.Base(pr.Path)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}

	p.last = pr.Written
	_ = p.bar.Set64(pr.Written)
	if pr.Done {
		_ = p.bar.Finish()
		p.bar = nil
		p.last = 0
	}
}

func (p *progressBar) close() {
	if p.bar != nil {
		_ = p.bar.Clear()
		p.bar = nil
	}
}
