package support

import (
	"context"

	"rigrent/internal/app/outbox"
	"rigrent/internal/app/uow"
	"rigrent/internal/domain/shared/events"
)

func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := inject(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// WithinUnit runs fn inside the ambient unit of work, or inside a new one that
// is committed when fn succeeds. Commit hooks of a new unit run after commit.
func WithinUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	if unit, ok := uow.FromContext(ctx); ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx, runHooks := uow.WithCommitHooks(inject(ctx, unit))
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()
	if err := fn(execCtx, unit); err != nil {
		return err
	}
	if err := unit.Commit(execCtx); err != nil {
		return err
	}
	committed = true
	runHooks(ctx)
	return nil
}

// DrainEvents moves an aggregate's pending events into the unit's outbox.
func DrainEvents(ctx context.Context, unit uow.UnitOfWork, encoder outbox.EventEncoder, recorder interface{ DrainEvents() []events.DomainEvent }) error {
	return outbox.RecordDomainEvents(ctx, unit.Outbox(), encoder, recorder.DrainEvents())
}

func inject(ctx context.Context, unit uow.UnitOfWork) context.Context {
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	return uow.ContextWithUnitOfWork(execCtx, unit)
}
