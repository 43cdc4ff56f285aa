package middleware

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
	"secret-santa-service/httperrors"
	"secret-santa-service/request"
)

type CsrfValidator interface {
	Required(r *http.Request) bool
	Validate(ctx context.Context, r *http.Request, session *domain.Session) error
}

// Csrf rejects state-changing requests without a matching token. It fails closed.
func Csrf(validator CsrfValidator) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			r := ctx.Request()
			if !validator.Required(r) {
				return next.Handle(ctx)
			}

			if sessionErr := ctx.SessionError(); sessionErr != nil {
				return httperrors.CsrfValidationError(errors.WithMessage(sessionErr, "csrf"))
			}

			err := validator.Validate(ctx.Context(), r, ctx.Session())
			switch {
			case err == nil:
				return next.Handle(ctx)
			case errors.Is(err, domain.ErrCsrfTokenMissing), errors.Is(err, domain.ErrCsrfTokenMismatch):
				return httperrors.InvalidCsrfToken(errors.WithMessagef(err, "csrf: %s %s", r.Method, ctx.Endpoint()))
			default:
				return httperrors.CsrfValidationError(errors.WithMessage(err, "csrf"))
			}
		})
	}
}
