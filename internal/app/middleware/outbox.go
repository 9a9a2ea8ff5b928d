package middleware

import (
	"context"
	"fmt"

	"rentme-pricing/internal/app/commands"
	"rentme-pricing/internal/app/outbox"
)

// OutboxFlush hands events recorded by a successful write to the outbox.
// Read-only commands record nothing and are not flushed.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if readOnly(cmd) {
				return res, nil
			}
			if err := box.Flush(ctx); err != nil {
				return nil, fmt.Errorf("outbox flush after %s: %w", cmd.Key(), err)
			}
			return res, nil
		})
	}
}
