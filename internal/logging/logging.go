// Package logging builds the slog logger used by the REPL host and handed
// to the pager.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogLevel represents logging verbosity
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config holds logger configuration
type Config struct {
	Level      LogLevel
	OutputPath string // Empty for stderr, or file path
	Format     string // "json" or "text"
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger from config. The returned closer releases the log
// file, if one was opened, and must be called once logging is finished.
//
// Example:
//
//	log, closer, err := logging.New(logging.Config{
//	    Level: logging.LevelDebug,
//	    OutputPath: "logs/sqlpage.log",
//	    Format: "json",
//	})
func New(config Config) (*slog.Logger, io.Closer, error) {
	var (
		writer io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)

	if config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750); err != nil {
			return nil, nil, err
		}
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, err
		}
		writer = file
		closer = file
	}

	return NewWriter(writer, config), closer, nil
}

// NewWriter builds a logger that writes to w, ignoring config.OutputPath.
func NewWriter(w io.Writer, config Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(string(config.Level))}
	if strings.EqualFold(config.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to its slog level. Unknown names are INFO.
func ParseLevel(name string) slog.Level {
	switch LogLevel(strings.ToUpper(name)) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithStatement returns a logger carrying the statement text.
//
// Example:
//
//	log := logging.WithStatement(logger, sqlText)
//	log.Debug("parsed", "tokens", info.Len())
func WithStatement(logger *slog.Logger, sqlText string) *slog.Logger {
	return logger.With("statement", sqlText)
}

// WithEngine returns a logger carrying the database engine name.
func WithEngine(logger *slog.Logger, engine string) *slog.Logger {
	return logger.With("engine", engine)
}
