package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/yuya-takeyama/s3-to-b2/internal/checksum"
	"github.com/yuya-takeyama/s3-to-b2/internal/transfer"
)

// Setup builds the process logger: a console writer on stdout plus,
// when file is non-empty, an append-only JSON sink. The returned closer
// owns the file handle.
func Setup(level string, quiet bool, file string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	if quiet && lvl < zerolog.WarnLevel {
		lvl = zerolog.WarnLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}}
	closer := func() {}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file %s: %w", file, err)
		}
		writers = append(writers, f)
		closer = func() { _ = f.Close() }
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().Timestamp().
		Logger()

	return logger, closer, nil
}

// Reporter forwards transfer events to a zerolog logger. It is the
// transfer.Observer used by the command.
type Reporter struct {
	log   zerolog.Logger
	quiet bool
}

// NewReporter creates a Reporter on top of log.
func NewReporter(log zerolog.Logger, quiet bool) *Reporter {
	return &Reporter{log: log, quiet: quiet}
}

func (r *Reporter) TransferStarted(key string, size int64) {
	r.log.Debug().Str("key", key).Int64("size", size).Msg("transferring")
}

func (r *Reporter) Transferred(key string, size int64) {
	r.log.Info().Str("key", key).Str("size", formatBytes(size)).Msg("transferred")
}

func (r *Reporter) Skipped(key string) {
	r.log.Info().Str("key", key).Msg("already in destination, skipped")
}

func (r *Reporter) Failed(key string, err error) {
	r.log.Error().Str("key", key).Err(err).Msg("transfer failed")
}

func (r *Reporter) IntegrityMismatch(key, etag, digest string) {
	r.log.Warn().
		Str("key", key).
		Str("etag", etag).
		Str("md5", digest).
		Bool("multipart_etag", checksum.IsMultipartETag(etag)).
		Msg("checksum mismatch, object transferred anyway")
}

func (r *Reporter) ExistsCheckFailed(key string, err error) {
	r.log.Warn().Str("key", key).Err(err).Msg("existence check failed, transferring anyway")
}

// PrintSummary writes the closing summary block to stdout and mirrors
// it as a structured event so the log file carries it too. In quiet
// mode the block only appears when something failed.
func (r *Reporter) PrintSummary(s transfer.Summary) {
	r.log.Info().
		Int("total", s.Total).
		Int("transferred", s.Transferred).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Int64("bytes", s.Bytes).
		Str("action", string(s.Action)).
		Dur("duration", s.Duration).
		Msg("run complete")

	if r.quiet && s.Failed == 0 {
		return
	}

	fmt.Println()
	fmt.Println("=== Transfer Summary ===")
	fmt.Printf("Total:       %d objects\n", s.Total)
	fmt.Printf("Transferred: %d (%s)\n", s.Transferred, formatBytes(s.Bytes))
	fmt.Printf("Skipped:     %d\n", s.Skipped)
	if s.Failed > 0 {
		fmt.Printf("Failed:      %d\n", s.Failed)
	}
	fmt.Printf("Action:      %s\n", actionLabel(s.Action))
	fmt.Printf("Duration:    %s\n", s.Duration.Round(time.Millisecond))
}

func actionLabel(a transfer.Action) string {
	if a == transfer.ActionMove {
		return "move (source objects deleted)"
	}
	return "copy (source objects retained)"
}

// formatBytes formats bytes in human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
