// Package notify delivers transient user-facing messages.
package notify

import (
	"log/slog"
	"sync"
)

// Level is the severity of a notification
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notification is one message for the user
type Notification struct {
	Level   Level
	Message string
	Err     error
}

// Notifier shows notifications to the user
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier
type Func func(Notification)

// Notify calls f(n)
func (f Func) Notify(n Notification) {
	f(n)
}

// LogNotifier writes notifications to the default slog logger
type LogNotifier struct{}

// Notify logs n at a level matching its severity
func (LogNotifier) Notify(n Notification) {
	attrs := []any{"notification", true}
	if n.Err != nil {
		attrs = append(attrs, "error", n.Err)
	}

	switch n.Level {
	case Error:
		slog.Error(n.Message, attrs...)
	case Warning:
		slog.Warn(n.Message, attrs...)
	default:
		slog.Info(n.Message, attrs...)
	}
}

// Discard drops every notification
var Discard Notifier = Func(func(Notification) {})

// Recorder keeps every notification it receives
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// Notify records n
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Notifications returns a copy of everything recorded
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}
