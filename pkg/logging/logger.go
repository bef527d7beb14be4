package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"objmap/pkg/config"
)

// RequestLogger is the logger instance for HTTP requests. It discards until
// Init runs.
var RequestLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init sets up the server logger (file, stdout and UI capture) as the slog
// default, and the file-only RequestLogger. It returns a cleanup function
// that closes the log files.
func Init(cfg *config.LogConfig) (func(), error) {
	rotatePaths(cfg.Server.Path, cfg.Requests.Path)

	var closers []io.Closer

	serverFile, err := openLogFile(cfg.Server.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to setup server logger: %w", err)
	}
	closers = append(closers, serverFile)
	slog.SetDefault(slog.New(serverHandler(serverFile, ParseLevel(cfg.Server.Level), os.Stdout)))

	requestFile, err := openLogFile(cfg.Requests.Path)
	if err != nil {
		serverFile.Close()
		return nil, fmt.Errorf("failed to setup requests logger: %w", err)
	}
	closers = append(closers, requestFile)
	RequestLogger = slog.New(slog.NewTextHandler(requestFile, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Requests.Level),
	}))

	return func() {
		for _, c := range closers {
			c.Close()
		}
	}, nil
}

// InitConsole installs a stderr-only default logger for one-shot CLI commands
// that should not touch the server log files.
func InitConsole(levelStr string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	})))
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR (any case) to a slog level.
// Anything else is INFO.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// Append mode; rotation happens in Init
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// serverHandler fans out to the file at level, the console at INFO or above,
// and the last-line capture shown by the UI.
func serverHandler(file io.Writer, level slog.Level, console io.Writer) slog.Handler {
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: max(level, slog.LevelInfo),
	})
	captureHandler := slog.NewTextHandler(GlobalLogCapture, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &multiHandler{handlers: []slog.Handler{fileHandler, consoleHandler, captureHandler}}
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler
// nolint:gocritic // r must be passed by value to implement slog.Handler
func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}

// rotatePaths renames existing log files to .old so each run starts fresh
// while the previous run stays inspectable.
func rotatePaths(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			oldPath := p + ".old"
			_ = os.Remove(oldPath)
			_ = os.Rename(p, oldPath)
		}
	}
}
