package middleware

import (
	"context"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
	"secret-santa-service/request"
)

type SessionLoader interface {
	Load(ctx context.Context, id string) (*domain.Session, error)
}

// Session attaches the session from the cookie. A store failure is kept on the
// request context and left to the next middlewares to handle.
func Session(loader SessionLoader, cookie request.SessionCookie) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			session, err := loader.Load(ctx.Context(), cookie.Read(ctx.Request()))
			if err != nil {
				ctx.SetSessionError(errors.WithMessage(err, "load session"))
			} else {
				ctx.SetSession(session)
			}
			return next.Handle(ctx)
		})
	}
}
