// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Options configures a FileSink.
type Options struct {
	// Console receives every message as a "[LEVEL] msg"
	// line. Nil means os.Stdout.
	Console io.Writer

	// Stderr receives the sink's own warnings.
	// Nil means os.Stderr.
	Stderr io.Writer

	// NoColor disables colored console output.
	NoColor bool

	// MinLevel drops messages below this level.
	MinLevel Level

	// Append keeps the previous contents of the log file.
	// By default the file is truncated.
	Append bool
}

// FileSink writes messages to the console and to a log
// file. It is safe for concurrent use.
//
// A FileSink never fails: if the log file cannot be
// opened or written, a warning is printed to Options.Stderr
// and messages keep going to the console.
type FileSink struct {
	mu      sync.Mutex
	file    *os.File
	handler slog.Handler
	console io.Writer
	stderr  io.Writer
	colors  map[Level]*color.Color
	min     Level
	session string
	n       int
	warned  bool
	closed  bool
}

// NewFileSink creates a sink writing to the named log file.
// An empty path disables the file.
func NewFileSink(path string, opts *Options) *FileSink {
	if opts == nil {
		opts = &Options{}
	}
	s := &FileSink{
		console: opts.Console,
		stderr:  opts.Stderr,
		min:     opts.MinLevel,
		session: uuid.NewString(),
	}
	if s.console == nil {
		s.console = os.Stdout
	}
	if s.stderr == nil {
		s.stderr = os.Stderr
	}
	s.colors = map[Level]*color.Color{
		LevelVerbose: color.New(color.FgHiBlack),
		LevelInfo:    color.New(color.FgCyan),
		LevelWarning: color.New(color.FgYellow),
		LevelError:   color.New(color.FgRed, color.Bold),
	}
	if opts.NoColor {
		for _, c := range s.colors {
			c.DisableColor()
		}
	}
	if path == "" {
		return s
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if opts.Append {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		fmt.Fprintf(s.stderr, "WARNING: could not open %s for writing: %v\n", path, err)
		return s
	}
	s.file = f
	s.handler = slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug - 4})
	s.write(slog.LevelInfo, "log opened", slog.String("session", s.session))
	return s
}

// Log implements Sink.
func (s *FileSink) Log(level Level, msg string) {
	if level < s.min {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if c := s.colors[level]; c != nil {
		c.Fprintf(s.console, "[%s] %s\n", level, msg)
	} else {
		fmt.Fprintf(s.console, "[%s] %s\n", level, msg)
	}
	if s.handler == nil {
		return
	}
	if s.write(level.slogLevel(), msg, slog.String("level_name", level.String())) {
		s.n++
	}
}

// write writes a record to the log file.
// It reports whether the record was written.
// s.mu must be held, except during construction.
func (s *FileSink) write(level slog.Level, msg string, attrs ...slog.Attr) bool {
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(attrs...)
	if err := s.handler.Handle(context.Background(), r); err != nil {
		if !s.warned {
			fmt.Fprintf(s.stderr, "WARNING: log file is not writable, messages lost: %v\n", err)
			s.warned = true
		}
		return false
	}
	return true
}

// Session returns the identifier stamped in the log file
// header.
func (s *FileSink) Session() string { return s.session }

// Count returns the number of messages written to the
// log file.
func (s *FileSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Close flushes and closes the log file.
// It is safe to call Close multiple times.
// After Close is called, subsequent Log calls are silently
// ignored.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.file == nil {
		return nil
	}
	s.file.Sync()
	return s.file.Close()
}

var _ Sink = (*FileSink)(nil)
