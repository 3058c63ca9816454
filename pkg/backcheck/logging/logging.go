// Package logging provides a small unified logging layer for
// backcheck, built on charmbracelet/log with per-component loggers.
//
// Basic usage:
//
//	cfg := logging.Config{Level: "info", Path: logging.DefaultLogPath()}
//	if err := logging.Init(cfg); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("scanner")
//	logger.Info("scan started", "root", "/data")
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// toCharmLevel converts our Level to a charmbracelet/log level.
func (l Level) toCharmLevel() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelInfo:
		return log.InfoLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// ConsoleLevel enables console output at the specified level.
	// Empty string disables console output (default). When set, logs at
	// this level and above also go to stderr.
	ConsoleLevel string
}

// Logger identifies a component and optional bound context. It holds no
// output state of its own: every log call resolves the currently
// initialized backend, so loggers obtained at package init pick up a
// later Init (and a re-Init) transparently. Before Init, log calls are
// discarded.
type Logger struct {
	component string
	ctx       []interface{}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) { l.log(LevelInfo, msg, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) { l.log(LevelWarn, msg, args...) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

// With returns a new logger with additional context.
func (l *Logger) With(args ...interface{}) *Logger {
	ctx := make([]interface{}, 0, len(l.ctx)+len(args))
	ctx = append(ctx, l.ctx...)
	ctx = append(ctx, args...)
	return &Logger{component: l.component, ctx: ctx}
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	b := currentBackend(l.component)
	if b == nil {
		return
	}

	if len(l.ctx) > 0 {
		merged := make([]interface{}, 0, len(l.ctx)+len(args))
		merged = append(merged, l.ctx...)
		merged = append(merged, args...)
		args = merged
	}

	logTo(b.file, level, msg, args...)
	if b.console != nil {
		logTo(b.console, level, msg, args...)
	}
}

func logTo(logger *log.Logger, level Level, msg string, args ...interface{}) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	}
}

// backend is the realized output side of a component logger.
type backend struct {
	file    *log.Logger // writes to the log file
	console *log.Logger // optional, writes to stderr
}

// state holds the global logging state.
type state struct {
	mu          sync.RWMutex
	initialized bool
	file        *os.File
	level       Level
	backends    map[string]*backend

	consoleEnabled bool
	consoleLevel   Level
}

var globalState = &state{
	backends: make(map[string]*backend),
}

// Init initializes the logging system with the given configuration.
// Before Init is called, all loggers discard their output. Init may be
// called again to re-point existing loggers at a new file or level.
func Init(cfg Config) error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if globalState.initialized && globalState.file != nil {
		if err := globalState.file.Close(); err != nil {
			return fmt.Errorf("closing existing log file: %w", err)
		}
		globalState.file = nil
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	globalState.level = level

	globalState.consoleEnabled = false
	if cfg.ConsoleLevel != "" {
		consoleLevel, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		globalState.consoleLevel = consoleLevel
		globalState.consoleEnabled = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	globalState.file = f

	globalState.initialized = true

	// Drop backends built against the previous file.
	globalState.backends = make(map[string]*backend)

	return nil
}

// Get returns a logger for the given component. The logger is a stable
// handle: it may be stored in a package-level variable before Init and
// will route to the initialized backend once Init runs.
func Get(component string) *Logger {
	return &Logger{component: component}
}

// currentBackend returns the realized backend for a component, creating
// it on first use. Returns nil before Init.
func currentBackend(component string) *backend {
	globalState.mu.RLock()
	if !globalState.initialized {
		globalState.mu.RUnlock()
		return nil
	}
	if b, ok := globalState.backends[component]; ok {
		globalState.mu.RUnlock()
		return b
	}
	globalState.mu.RUnlock()

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}
	if b, ok := globalState.backends[component]; ok {
		return b
	}

	b := &backend{
		file: log.NewWithOptions(globalState.file, log.Options{
			Level:           globalState.level.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}

	if globalState.consoleEnabled {
		b.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           globalState.consoleLevel.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}

	globalState.backends[component] = b
	return b
}

// Close flushes and closes the log file. It should be called when the
// application exits.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}

	if globalState.file != nil {
		if err := globalState.file.Close(); err != nil {
			return fmt.Errorf("closing log file: %w", err)
		}
		globalState.file = nil
	}

	globalState.initialized = false
	globalState.backends = make(map[string]*backend)

	return nil
}

// DefaultLogPath returns the default log file path under
// $XDG_STATE_HOME/backcheck/.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "backcheck", "backcheck.log")
}
