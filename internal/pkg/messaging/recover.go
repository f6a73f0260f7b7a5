package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/goshen/internal/pkg/stacktrace"
)

// dispatch runs handler with panic recovery and applies auto ack.
func dispatch(ctx context.Context, driver string, handler Handler, msg Message, autoAck bool) {
	err := func() (err error) {
		defer func() {
			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
					slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
				} else {
					slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(stack))
				}
				err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
			}
		}()
		return handler(ctx, msg)
	}()

	if !autoAck {
		return
	}

	settle := msg.Ack
	if err != nil {
		settle = msg.Nack
	}
	if ackErr := settle(ctx); ackErr != nil {
		slog.WarnContext(ctx, "failed to settle message", "driver", driver, "source", msg.Source(), "error", ackErr)
	}
}
