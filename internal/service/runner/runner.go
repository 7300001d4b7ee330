package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vertextoedge/getfile/internal/domain"
)

// Downloader performs a single download attempt
type Downloader interface {
	DownloadFile(ctx context.Context, url, path string) domain.DownloadResult
}

// Config contains runner configuration
type Config struct {
	// MaxRetries is how many extra attempts follow a temporary failure
	MaxRetries int

	// RetryDelay is the wait between two attempts
	RetryDelay time.Duration
}

// DefaultConfig returns default runner configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// Runner repeats download attempts while the remote end is temporarily
// unavailable. Each attempt resumes from what the previous one saved.
type Runner struct {
	config     *Config
	downloader Downloader
	logger     *zap.Logger

	// sleep waits for d or until ctx is done
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a new Runner
func New(cfg *Config, downloader Downloader, logger *zap.Logger) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		config:     cfg,
		downloader: downloader,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Run downloads url to path. Only TemporaryUnavailable outcomes are
// retried; the result of the last attempt is returned.
func (r *Runner) Run(ctx context.Context, url, path string) domain.DownloadResult {
	log := r.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("url", url),
		zap.String("path", path))

	maxAttempts := r.config.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		log.Debug("starting attempt", zap.Int("attempt", attempt), zap.Int("max_attempts", maxAttempts))

		result := r.downloader.DownloadFile(ctx, url, path)
		if !result.Outcome.ShouldRetry() {
			log.Debug("attempt finished",
				zap.Int("attempt", attempt),
				zap.Stringer("outcome", result.Outcome))
			return result
		}

		if attempt >= maxAttempts {
			log.Warn("remote end still unavailable, giving up for now",
				zap.Int("attempts", attempt),
				zap.String("reason", result.Reason))
			return result
		}

		log.Info("remote end temporarily unavailable, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", r.config.RetryDelay),
			zap.String("reason", result.Reason))

		if err := r.sleep(ctx, r.config.RetryDelay); err != nil {
			log.Info("retry canceled", zap.Error(err))
			return result
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
