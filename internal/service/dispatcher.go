package service

import "github.com/folio/backend/internal/background"

// TaskDispatcher runs work after the request has been answered.
// *background.Dispatcher satisfies it.
type TaskDispatcher interface {
	Dispatch(name string, fn background.Func, attrs ...any) bool
}
