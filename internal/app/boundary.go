package app

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/mrcode/diabetes-dashboard/internal/api"
)

// Recovery options offered with app:error
const (
	OptionRetry  = "retry"
	OptionReload = "reload"
)

// AppError is the payload of the app:error event
type AppError struct {
	Call    string   `json:"call"`
	Message string   `json:"message"`
	Options []string `json:"options"`
}

// protect runs fn and turns a panic into an unknown error. The panic is
// logged and announced through app:error so the window can offer a retry.
func protect[T any](d *DashboardService, call string, fn func() (T, error)) (out T, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		d.logger.Error("bound call panicked",
			zap.String("call", call),
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()),
		)
		msg := api.FallbackMessage(api.KindUnknown)
		d.emit(EventAppError, AppError{
			Call:    call,
			Message: msg,
			Options: []string{OptionRetry, OptionReload},
		})
		var zero T
		out = zero
		err = &api.Error{Kind: api.KindUnknown, Message: msg, Err: fmt.Errorf("panic in %s: %v", call, r)}
	}()
	return fn()
}

// protectErr is protect for calls without a result
func protectErr(d *DashboardService, call string, fn func() error) error {
	_, err := protect(d, call, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
