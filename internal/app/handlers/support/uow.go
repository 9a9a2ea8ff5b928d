package support

import (
	"context"

	"rentme-pricing/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already bound to ctx or opens a
// read-only one. cleanup is nil when the unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// UnitFromContext returns the unit bound by the transaction middleware.
func UnitFromContext(ctx context.Context) (uow.UnitOfWork, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	return unit, nil
}
