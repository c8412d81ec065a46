package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"
	"sync/atomic"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

// settleOnce guards a message against double ack/nack.
type settleOnce struct {
	responded atomic.Bool
}

func (s *settleOnce) claim() bool { return !s.responded.Swap(true) }

func (s *settleOnce) hasResponded() bool { return s.responded.Load() }

type settledMessage interface {
	Message
	hasResponded() bool
}

// dispatch runs handler with panic recovery and settles msg when autoAck is on.
func dispatch(ctx context.Context, kind string, msg settledMessage, handler Handler, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error {
		return handler(ctx, msg)
	})

	if msg.hasResponded() || !autoAck {
		return nil
	}

	if herr == nil {
		return msg.Ack(ctx)
	}
	return msg.Nack(ctx)
}

func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			paths := stacktrace.InternalPaths(stack)
			if len(paths) == 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", paths)
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}

func headerValue(h map[string]string, key string) string {
	if h == nil {
		return ""
	}
	return h[key]
}

func cloneHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	return maps.Clone(h)
}
