// Package log keeps the most recent log records for the log view and
// forwards them to a running tea.Program.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultCapacity is how many records a TUIHandler retains.
const DefaultCapacity = 100

// buffer is shared by a handler and the handlers derived from it.
type buffer struct {
	mu       sync.Mutex
	ch       chan<- tea.Msg
	logs     []slog.Record
	capacity int
}

// TUIHandler is a slog.Handler that records messages and sends them to a
// tea.Program.
type TUIHandler struct {
	slog.Handler
	buf *buffer
}

// NewTUIHandler creates a new TUIHandler.
func NewTUIHandler(handler slog.Handler, ch chan<- tea.Msg) *TUIHandler {
	return &TUIHandler{
		Handler: handler,
		buf:     &buffer{ch: ch, capacity: DefaultCapacity},
	}
}

// Handle stores the record and forwards it without blocking the caller.
func (h *TUIHandler) Handle(ctx context.Context, r slog.Record) error {
	h.buf.mu.Lock()
	h.buf.logs = append(h.buf.logs, r.Clone())
	if len(h.buf.logs) > h.buf.capacity {
		h.buf.logs = h.buf.logs[len(h.buf.logs)-h.buf.capacity:]
	}
	ch := h.buf.ch
	h.buf.mu.Unlock()

	if ch != nil {
		select {
		case ch <- LogMsg(r):
		default:
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *TUIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TUIHandler{Handler: h.Handler.WithAttrs(attrs), buf: h.buf}
}

func (h *TUIHandler) WithGroup(name string) slog.Handler {
	return &TUIHandler{Handler: h.Handler.WithGroup(name), buf: h.buf}
}

// Logs returns a copy of the stored records, oldest first.
func (h *TUIHandler) Logs() []slog.Record {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return append([]slog.Record(nil), h.buf.logs...)
}

// LogMsg is a tea.Msg that represents a log message.
type LogMsg slog.Record

// SetOutput sets the output channel for the handler.
func (h *TUIHandler) SetOutput(ch chan<- tea.Msg) {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	h.buf.ch = ch
}

var defaultHandler = NewTUIHandler(slog.NewTextHandler(io.Discard, nil), nil)

// Init installs a TUIHandler wrapping handler as the default logger and
// returns that logger.
func Init(handler slog.Handler) *slog.Logger {
	defaultHandler = NewTUIHandler(handler, nil)
	logger := slog.New(defaultHandler)
	slog.SetDefault(logger)
	return logger
}

// Open builds the base handler. Records go to path when set, and are
// discarded otherwise since the terminal belongs to the TUI. The returned
// closer releases the file.
func Open(path string, debug bool) (slog.Handler, io.Closer, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if path == "" {
		return slog.NewTextHandler(io.Discard, opts), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.NewTextHandler(f, opts), f, nil
}

// SetOutput sets the output channel for the default logger.
func SetOutput(ch chan<- tea.Msg) {
	defaultHandler.SetOutput(ch)
}

// Logs returns the stored log messages from the default logger.
func Logs() []slog.Record {
	return defaultHandler.Logs()
}
