package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vertextoedge/getfile/internal/adapter/filesystem"
	"github.com/vertextoedge/getfile/internal/adapter/httpremote"
	"github.com/vertextoedge/getfile/internal/config"
	"github.com/vertextoedge/getfile/internal/domain"
	"github.com/vertextoedge/getfile/internal/logger"
	"github.com/vertextoedge/getfile/internal/service/fetcher"
	"github.com/vertextoedge/getfile/internal/service/runner"
	"github.com/vertextoedge/getfile/internal/target"
)

// Exit codes; 75 is EX_TEMPFAIL from sysexits.h
const (
	exitOK        = 0
	exitFailure   = 1
	exitTemporary = 75
)

// exitError carries a process exit code through cobra
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var (
	configPath string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "getfile [flags] <url> [file|directory]",
	Short: "Download a file over HTTP(S), resuming interrupted transfers",
	Long: `Download a file over HTTP(S).

Bytes are saved to a partial file next to the target whose name records the
remote length and modification time. Running the same command again after an
interruption continues where the previous run stopped, as long as the remote
file has not changed.

Exit status is 0 on success, 1 on permanent failure and 75 when the server is
temporarily unavailable and the download should be tried again later.`,
	Example: `  getfile https://example.com/image.iso
  getfile https://example.com/image.iso ~/Downloads/
  getfile --retries 10 --retry-delay 30s https://example.com/image.iso image.iso`,
	Args:              cobra.RangeArgs(1, 2),
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	RunE:              runDownload,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file (default: ./getfile.yaml or ~/.config/getfile/getfile.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")
	pf.BoolP("verbose", "v", false, "log at debug level")

	f := rootCmd.Flags()
	f.BoolVarP(&quiet, "quiet", "q", false, "do not show a progress bar")
	f.Int("retries", 3, "extra attempts while the server is temporarily unavailable")
	f.Duration("retry-delay", 2*time.Second, "wait between attempts")
	f.Duration("probe-timeout", 30*time.Second, "timeout of the initial HEAD request")
	f.String("user-agent", config.DefaultUserAgent, "User-Agent header")
	f.Bool("insecure", false, "skip TLS certificate verification")
	f.Int("buffer-size", 64, "copy buffer size in KiB")
	f.Bool("require-accept-ranges", false, "only resume when the server sends Accept-Ranges: bytes")

	rootCmd.AddCommand(partialsCmd)
}

// execute runs the root command and returns the process exit code
func execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return exitFailure
}

// setup loads the configuration and builds the logger for cmd
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Logging.EffectiveLevel(), cfg.Logging.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	var dest string
	if len(args) > 1 {
		dest = args[1]
	}

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	path, err := target.Resolve(rawURL, dest)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug("starting getfile",
		zap.String("version", version),
		zap.String("url", rawURL),
		zap.String("path", path))

	remote := httpremote.NewClientWithConfig(&httpremote.ClientConfig{
		ProbeTimeout:          cfg.HTTP.GetProbeTimeout(),
		ResponseHeaderTimeout: cfg.HTTP.GetResponseHeaderTimeout(),
		SkipTLSVerify:         cfg.HTTP.SkipTLSVerify,
		UserAgent:             cfg.HTTP.UserAgent,
		BufferSizeKB:          cfg.Download.BufferSizeKB,
	})

	engineCfg := &fetcher.Config{
		BufferSize:          cfg.Download.GetBufferSize(),
		RequireAcceptRanges: cfg.Download.RequireAcceptRanges,
		CheckFreeSpace:      cfg.Download.CheckFreeSpace,
		ProgressInterval:    cfg.Download.GetProgressInterval(),
	}
	var bar *progressBar
	if !quiet {
		bar = newProgressBar(cmd.ErrOrStderr())
		engineCfg.OnProgress = bar.update
	}

	engine := fetcher.New(engineCfg, remote, filesystem.NewManager(), log)
	r := runner.New(&runner.Config{
		MaxRetries: cfg.Download.MaxRetries,
		RetryDelay: cfg.Download.GetRetryDelay(),
	}, engine, log)

	result := r.Run(ctx, rawURL, path)
	if bar != nil {
		bar.close()
	}

	printResult(cmd.OutOrStdout(), result)
	if code := exitCode(result.Outcome); code != exitOK {
		return &exitError{code: code}
	}
	return nil
}

func exitCode(o domain.Outcome) int {
	switch o {
	case domain.Success:
		return exitOK
	case domain.TemporaryUnavailable:
		return exitTemporary
	default:
		return exitFailure
	}
}

// printResult writes the final status line
func printResult(w io.Writer, r domain.DownloadResult) {
	switch r.Outcome {
	case domain.Success:
		switch {
		case r.UpToDate:
			fmt.Fprintf(w, "Success: %s is up to date (%s)\n", r.Path, humanize.IBytes(uint64(r.BytesWritten)))
		case r.Short:
			fmt.Fprintf(w, "Success: saved %s (%s, shorter than announced)\n", r.Path, humanize.IBytes(uint64(r.BytesWritten)))
		case r.Resumed:
			fmt.Fprintf(w, "Success: saved %s (%s, resumed at %s)\n", r.Path,
				humanize.IBytes(uint64(r.BytesWritten)), humanize.IBytes(uint64(r.ResumedFrom)))
		default:
			fmt.Fprintf(w, "Success: saved %s (%s)\n", r.Path, humanize.IBytes(uint64(r.BytesWritten)))
		}
	case domain.TemporaryUnavailable:
		fmt.Fprintf(w, "Warning, will try again later: %s\n", r.Reason)
	default:
		fmt.Fprintf(w, "Error: %s\n", r.Reason)
	}
}
