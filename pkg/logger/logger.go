package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	slogzerolog "github.com/samber/slog-zerolog/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName   = "tweet-fetcher.log"
	maxLogSizeMB  = 5
	maxLogBackups = 5
	timeFormat    = "2006-01-02 15:04:05"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithComponent(name string) Logger
}

type Opts struct {
	Env       string
	Level     string
	LogDir    string // empty disables the rotating file
	SentryUrl string
	Output    io.Writer // console output, os.Stdout when nil
}

type Impl struct {
	*slog.Logger
	closers []io.Closer
	sentry  bool
}

var _ Logger = (*Impl)(nil)

func New(opts Opts) *Impl {
	level := parseLevel(opts.Level)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	console := zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    opts.Env == "production",
		TimeFormat: timeFormat,
	}).With().Timestamp().Logger()

	handlers := []slog.Handler{
		slogzerolog.Option{Level: level, Logger: &console}.NewZerologHandler(),
	}

	impl := &Impl{}

	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory %s: %v\n", opts.LogDir, err)
		} else {
			rotator := &lumberjack.Logger{
				Filename:   filepath.Join(opts.LogDir, logFileName),
				MaxSize:    maxLogSizeMB,
				MaxBackups: maxLogBackups,
			}
			file := zerolog.New(rotator).With().Timestamp().Logger()
			handlers = append(handlers, slogzerolog.Option{Level: level, Logger: &file}.NewZerologHandler())
			impl.closers = append(impl.closers, rotator)
		}
	}

	if opts.SentryUrl != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryUrl,
			Environment: opts.Env,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to init sentry: %v\n", err)
		} else {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
			impl.sentry = true
		}
	}

	impl.Logger = slog.New(slogmulti.Fanout(handlers...))
	return impl
}

// NewNop returns a logger that discards everything. Meant for tests.
func NewNop() *Impl {
	return &Impl{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Impl) WithComponent(name string) Logger {
	return &Impl{Logger: l.Logger.With("component", name)}
}

// Printf lets fx route its own events through the application logger.
func (l *Impl) Printf(format string, args ...interface{}) {
	l.Logger.Debug(fmt.Sprintf(format, args...))
}

// Close flushes sentry and closes the rotating log file.
func (l *Impl) Close() error {
	if l.sentry {
		sentry.Flush(2 * time.Second)
	}
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
