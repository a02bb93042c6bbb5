package middleware

import (
	"context"
	"strings"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/queries"
	"rigrent/internal/domain/shared/errs"
)

var ErrUnauthenticated = errs.Forbidden("unauthenticated", "authentication required")

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// Acting is implemented by messages issued on behalf of a user.
type Acting interface {
	ActorID() string
}

// RequireActor rejects Acting messages that carry no actor. Ownership is
// checked by the handlers against the loaded aggregates.
type RequireActor struct{}

func (RequireActor) Authorize(_ context.Context, message any) error {
	if m, ok := message.(Acting); ok && strings.TrimSpace(m.ActorID()) == "" {
		return ErrUnauthenticated
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
