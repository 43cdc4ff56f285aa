package middleware

import (
	"context"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
	"secret-santa-service/httperrors"
	"secret-santa-service/ratelimit"
	"secret-santa-service/request"
)

type Limiter interface {
	CheckAll(ctx context.Context, endpoint string, req ratelimit.Request, policies ...ratelimit.Policy) domain.RateLimitResult
}

// RateLimit checks the policies in order, the first denial answers 429.
func RateLimit(limiter Limiter, policies ...ratelimit.Policy) Middleware {
	return func(next Handler) Handler {
		if len(policies) == 0 {
			return next
		}
		return HandlerFunc(func(ctx *request.Context) error {
			result := limiter.CheckAll(ctx.Context(), ctx.Endpoint(), ctx, policies...)
			if !result.Allow {
				return httperrors.TooManyRequests(
					result,
					errors.Errorf("rate limit: limit of %d requests has been reached for '%s'", result.Limit, ctx.Endpoint()),
				)
			}
			return next.Handle(ctx)
		})
	}
}
