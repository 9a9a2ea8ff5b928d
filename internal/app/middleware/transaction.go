package middleware

import (
	"context"

	"rentme-pricing/internal/app/commands"
	"rentme-pricing/internal/app/uow"
)

// ReadOnlyCommand is implemented by commands that can ask to run without
// writing, such as a dry-run period reconcile.
type ReadOnlyCommand interface {
	ReadOnly() bool
}

func readOnly(cmd commands.Command) bool {
	ro, ok := cmd.(ReadOnlyCommand)
	return ok && ro.ReadOnly()
}

// Transaction binds a unit of work to every command. Successful writes
// commit; failures and read-only commands roll back.
func Transaction(factory uow.UoWFactory) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ro := readOnly(cmd)
			unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: ro})
			if err != nil {
				return nil, err
			}
			execCtx := uow.Bind(ctx, unit)
			settled := false
			defer func() {
				if !settled {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			settled = true
			if ro {
				if err := unit.Rollback(execCtx); err != nil {
					return nil, err
				}
				return res, nil
			}
			if err := unit.Commit(execCtx); err != nil {
				_ = unit.Rollback(execCtx)
				return nil, err
			}
			return res, nil
		})
	}
}
