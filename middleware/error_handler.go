package middleware

import (
	"net/http"

	"github.com/txix-open/isp-kit/log"
	"secret-santa-service/httperrors"
	"secret-santa-service/request"
)

type HttpError interface {
	WriteError(w http.ResponseWriter) error
	StatusCode() int
}

func ErrorHandler(logger log.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			err := next.Handle(ctx)
			if err == nil {
				return nil
			}

			httpErr, ok := err.(HttpError)
			if ok {
				if httpErr.StatusCode() < http.StatusInternalServerError {
					logger.Warn(ctx.Context(), err, log.Int("statusCode", httpErr.StatusCode()))
				} else {
					logger.Error(ctx.Context(), err)
				}
				return httpErr.WriteError(ctx.ResponseWriter())
			}

			logger.Error(ctx.Context(), err)
			return httperrors.
				New(http.StatusInternalServerError, "internal service error", err).
				WriteError(ctx.ResponseWriter())
		})
	}
}
