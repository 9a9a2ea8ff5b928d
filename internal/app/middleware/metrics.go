package middleware

import (
	"context"
	"time"

	"rentme-pricing/internal/app/commands"
	"rentme-pricing/internal/app/queries"
)

// Observer receives the outcome of every bus message.
type Observer interface {
	ObserveMessage(kind, key string, elapsed time.Duration, err error)
}

func CommandMetrics(o Observer) CommandMiddleware {
	if o == nil {
		panic("middleware: observer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			o.ObserveMessage("command", cmd.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func QueryMetrics(o Observer) QueryMiddleware {
	if o == nil {
		panic("middleware: observer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			o.ObserveMessage("query", q.Key(), time.Since(start), err)
			return res, err
		})
	}
}
