package middleware

import (
	"strings"

	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/requestid"
	"secret-santa-service/request"
)

const (
	requestIdHeader = "x-request-id"
)

func RequestId() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			requestId := requestid.Next()
			clientRequestId := strings.TrimSpace(ctx.Request().Header.Get(requestIdHeader))

			logFields := make([]log.Field, 0)
			if clientRequestId != "" {
				logFields = append(logFields, log.String("clientRequestId", clientRequestId))
			}
			logFields = append(logFields, log.String("requestId", requestId))

			context := requestid.ToContext(ctx.Context(), requestId)
			context = log.ToContext(context, logFields...)

			ctx.SetContext(context)
			ctx.ResponseWriter().Header().Set(requestIdHeader, requestId)
			return next.Handle(ctx)
		})
	}
}
