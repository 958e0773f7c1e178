package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Options controls how the package-level loggers are built.
type Options struct {
	// Level is the minimum severity emitted to stderr.
	Level hclog.Level
	// LogFile, when non-empty, enables a plain-text file sink that
	// receives everything at debug level and above regardless of the
	// stderr level. The file is truncated on startup.
	LogFile string
}

var (
	mu     sync.RWMutex
	stderr hclog.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "jukebox",
		Level:  hclog.Warn,
		Output: os.Stderr,
		Color:  hclog.AutoColor,
	})
	file     hclog.Logger
	fileSink *os.File
)

// Init replaces the default loggers according to opts. Call it once
// at startup, before anything logs concurrently.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	level := opts.Level
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	stderr = hclog.New(&hclog.LoggerOptions{
		Name:   "jukebox",
		Level:  level,
		Output: os.Stderr,
		Color:  hclog.AutoColor,
	})

	if opts.LogFile == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.Create(opts.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	fileSink = f
	file = hclog.New(&hclog.LoggerOptions{
		Name:   "jukebox",
		Level:  hclog.Debug,
		Output: f,
	})

	return nil
}

// Close flushes and closes the file sink, if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if fileSink != nil {
		_ = fileSink.Close()
		fileSink = nil
		file = nil
	}
}

// ParseLevel maps verbosity flags to an hclog level: debug wins over
// verbose, verbose over the quiet default.
func ParseLevel(debug bool, verbose int) hclog.Level {
	switch {
	case debug:
		return hclog.Debug
	case verbose > 0:
		return hclog.Info
	default:
		return hclog.Warn
	}
}

// LevelFromString parses a level name, defaulting to warn.
func LevelFromString(s string) hclog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "info":
		return hclog.Info
	case "error":
		return hclog.Error
	default:
		return hclog.Warn
	}
}

func sinks() []hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if file == nil {
		return []hclog.Logger{stderr}
	}
	return []hclog.Logger{stderr, file}
}

// Debug logs a message with optional key/value pairs at debug level.
func Debug(msg string, args ...interface{}) {
	for _, l := range sinks() {
		l.Debug(msg, args...)
	}
}

// Info logs a message with optional key/value pairs at info level.
func Info(msg string, args ...interface{}) {
	for _, l := range sinks() {
		l.Info(msg, args...)
	}
}

// Warn logs a message with optional key/value pairs at warn level.
func Warn(msg string, args ...interface{}) {
	for _, l := range sinks() {
		l.Warn(msg, args...)
	}
}

// Error logs a message with optional key/value pairs at error level.
func Error(msg string, args ...interface{}) {
	for _, l := range sinks() {
		l.Error(msg, args...)
	}
}

// IsDebugEnabled reports whether the stderr sink emits debug lines.
func IsDebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return stderr.IsDebug()
}
