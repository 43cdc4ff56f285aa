package middleware

import (
	"net/http"

	"github.com/txix-open/isp-kit/log"
	"secret-santa-service/request"
)

type writerWrapper struct {
	http.ResponseWriter

	statusCode int
}

func (w *writerWrapper) StatusCode() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *writerWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Logger writes one line per request. Bodies are never logged, they carry codes and tokens.
func Logger(logger log.Logger, enableRequestLogging bool) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			if !enableRequestLogging {
				return next.Handle(ctx)
			}

			r := ctx.Request()
			writer := &writerWrapper{ResponseWriter: ctx.ResponseWriter()}
			ctx.SetResponseWriter(writer)

			err := next.Handle(ctx)

			logger.Debug(ctx.Context(), "log request",
				log.String("httpMethod", r.Method),
				log.String("remoteAddr", r.RemoteAddr),
				log.String("xForwardedFor", r.Header.Get("X-Forwarded-For")),
				log.Int("statusCode", writer.StatusCode()),
				log.String("path", r.URL.Path),
				log.String("endpoint", ctx.Endpoint()),
			)

			return err
		})
	}
}
