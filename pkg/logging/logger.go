// Package logging provides the structured logger used across rapidgui.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures a Logger.
type Options struct {
	Level     slog.Level
	Format    Format
	Component string
}

// Logger is a structured logger for runtime components
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) *Logger {
	if w == nil {
		w = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{
		Level: opts.Level,
	}

	var handler slog.Handler
	if opts.Format == FormatText {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	logger := slog.New(handler).With(slog.String("system", "rapidgui"))
	if opts.Component != "" {
		logger = logger.With(slog.String("component", opts.Component))
	}
	return &Logger{Logger: logger}
}

// NewLogger creates a JSON logger on stderr for the given component.
func NewLogger(component string, level slog.Level) *Logger {
	return New(os.Stderr, Options{Level: level, Format: FormatJSON, Component: component})
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// ParseLevel maps a config level name onto slog.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("component", component))}
}

// WithScene returns a logger with scene-specific fields
func (l *Logger) WithScene(scene string) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			slog.String("scene", scene),
		),
	}
}

// WithWidget returns a logger with widget-specific fields
func (l *Logger) WithWidget(identifier, widgetType string) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			slog.String("widget", identifier),
			slog.String("widget_type", widgetType),
		),
	}
}

// SceneLoaded logs a successful scene construction
func (l *Logger) SceneLoaded(source string, widgets int) {
	l.Info("scene loaded",
		slog.String("source", source),
		slog.Int("widgets", widgets),
	)
}

// WindowOpened logs the backend opening its window
func (l *Logger) WindowOpened(backend string, width, height int) {
	l.Info("window opened",
		slog.String("backend", backend),
		slog.Int("width", width),
		slog.Int("height", height),
	)
}

// CommandApplied logs a command drained by the render loop
func (l *Logger) CommandApplied(kind, widget, property string) {
	l.Debug("command applied",
		slog.String("kind", kind),
		slog.String("widget", widget),
		slog.String("property", property),
	)
}

// CommandFailed logs a command the render loop could not apply
func (l *Logger) CommandFailed(kind, widget string, err error) {
	l.Warn("command failed",
		slog.String("kind", kind),
		slog.String("widget", widget),
		slog.String("error", err.Error()),
	)
}

// SignalFired logs a signal dispatched to subscribers
func (l *Logger) SignalFired(widget, signal string, subscribers int) {
	l.Debug("signal fired",
		slog.String("widget", widget),
		slog.String("signal", signal),
		slog.Int("subscribers", subscribers),
	)
}

// CallbackPanicked logs a recovered panic from a signal callback
func (l *Logger) CallbackPanicked(widget, signal string, recovered any) {
	l.Error("signal callback panicked",
		slog.String("widget", widget),
		slog.String("signal", signal),
		slog.String("panic", fmt.Sprint(recovered)),
	)
}

// FrameOverrun logs a frame that took longer than its budget
func (l *Logger) FrameOverrun(frame uint64, took, budget time.Duration) {
	l.Debug("frame overrun",
		slog.Uint64("frame", frame),
		slog.Duration("took", took),
		slog.Duration("budget", budget),
	)
}

// LoopStopped logs the render loop exiting
func (l *Logger) LoopStopped(reason string, frames uint64, pending int) {
	l.Info("render loop stopped",
		slog.String("reason", reason),
		slog.Uint64("frames", frames),
		slog.Int("pending_commands", pending),
	)
}

// RelayFailed logs a signal event that could not be published
func (l *Logger) RelayFailed(subject string, err error) {
	l.Warn("relay publish failed",
		slog.String("subject", subject),
		slog.String("error", err.Error()),
	)
}

// RelayDropped logs a signal event dropped because the relay backlog was full
func (l *Logger) RelayDropped(subject string, backlog int) {
	l.Warn("relay backlog full, event dropped",
		slog.String("subject", subject),
		slog.Int("backlog", backlog),
	)
}

// ServerListening logs an HTTP listener coming up
func (l *Logger) ServerListening(addr string) {
	l.Info("inspect server listening", slog.String("addr", addr))
}

// DocumentChanged logs a watched document being rewritten
func (l *Logger) DocumentChanged(path, op string) {
	l.Info("document changed",
		slog.String("path", path),
		slog.String("op", op),
	)
}
