// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package diag implements diagnostic sinks: ordered,
// append-only destinations for leveled text messages.
//
// Sinks are created explicitly by the application and
// passed to whatever needs to report. There is no
// package-level sink.
package diag

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Level is the severity of a diagnostic message.
type Level int

// Levels, in increasing order of severity.
const (
	LevelVerbose Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "VERBOSE"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	}
	return "Level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel parses a level name, ignoring case.
// It accepts the names String returns and "warn".
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "VERBOSE":
		return LevelVerbose, nil
	case "INFO":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	}
	return 0, errors.New("diag: invalid level " + strconv.Quote(s))
}

// slogLevel converts l to a slog.Level.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelVerbose:
		return slog.LevelDebug - 4
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarning:
		return slog.LevelWarn
	}
	return slog.LevelError
}

// Sink is the interface that accepts diagnostic messages.
// Implementations must be safe for concurrent use and must
// not propagate their own failures to the caller.
type Sink interface {
	Log(level Level, msg string)
}

// Discard is a Sink that drops every message.
var Discard Sink = discard{}

type discard struct{}

func (discard) Log(Level, string) {}

// exit is called by Fatal. Tests replace it.
var exit = os.Exit

// Fatal logs msg to s as an error, closes s if it is an
// io.Closer and terminates the process.
func Fatal(s Sink, msg string) {
	if s == nil {
		s = Discard
	}
	s.Log(LevelError, msg)
	if c, ok := s.(io.Closer); ok {
		c.Close()
	}
	exit(1)
}

// Entry is a message stored by a Recorder.
type Entry struct {
	Level Level
	Msg   string
}

// Recorder is a Sink that keeps every message in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Log implements Sink.
func (r *Recorder) Log(level Level, msg string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{level, msg})
	r.mu.Unlock()
}

// Entries returns a copy of the recorded messages.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Reset discards the recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// SlogSink adapts a slog.Logger to the Sink interface.
type SlogSink struct {
	Logger *slog.Logger
}

// Log implements Sink.
func (s SlogSink) Log(level Level, msg string) {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Log(context.Background(), level.slogLevel(), msg)
}

// Multi returns a Sink that forwards every message to each
// of sinks, in order.
func Multi(sinks ...Sink) Sink {
	return multi(append([]Sink(nil), sinks...))
}

type multi []Sink

func (m multi) Log(level Level, msg string) {
	for _, s := range m {
		s.Log(level, msg)
	}
}

// Close closes every sink that is an io.Closer.
func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Compile-time interface satisfaction checks.
var (
	_ Sink = (*Recorder)(nil)
	_ Sink = SlogSink{}
	_ Sink      = multi(nil)
	_ io.Closer = multi(nil)
)
