package inbox

import "log/slog"

// Level is the severity of a Notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a user-facing message raised by the inbox.
type Notification struct {
	Level   Level
	Message string
	Err     error
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use; Notify is called from background goroutines.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if n.Level == LevelError {
		logger.Error(n.Message, "error", n.Err)
		return
	}
	logger.Info(n.Message)
}
