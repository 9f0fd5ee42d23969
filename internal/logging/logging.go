// Package logging builds the zerolog logger shared by the CLI and the TUI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Builder assembles a logger from a file path or a writer.
type Builder struct {
	writer  io.Writer
	path    string
	level   zerolog.Level
	console bool
}

// Logger is a built logger and the file it owns, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New starts a builder logging at info level to stderr.
func New() *Builder {
	return &Builder{writer: os.Stderr, level: zerolog.InfoLevel}
}

// FromPath logs to a file, appending. It takes precedence over FromWriter.
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

// FromWriter logs to w.
func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

// Level sets the minimum level by name ("debug", "info", "warn"...). An
// unknown name keeps the current level.
func (b *Builder) Level(name string) *Builder {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name))); err == nil && name != "" {
		b.level = lvl
	}
	return b
}

// Console renders human-readable lines instead of JSON.
func (b *Builder) Console(on bool) *Builder {
	b.console = on
	return b
}

// Make builds the logger.
func (b *Builder) Make() (*Logger, error) {
	out := &Logger{}
	w := b.writer
	if b.path != "" {
		if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	}
	if b.console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: b.path != ""}
	}
	out.Logger = zerolog.New(w).Level(b.level).With().Timestamp().Logger()
	return out, nil
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
