// Package ratelimit implements fixed-window request limiting on top of a keyed counter store.
//
// The limiter never blocks traffic because of its own failures: an undeterminable key,
// a store error or a panic inside a policy callback lets the request through and is
// reported at warn level.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"secret-santa-service/domain"
)

type Store interface {
	UpsertAndCheck(ctx context.Context, key string, now time.Time, window time.Duration, max int) (bool, domain.CounterEntry, error)
}

// Request is the view of an incoming request the key and skip functions work with.
type Request interface {
	Request() *http.Request
	Body() ([]byte, error)
	Session() *domain.Session
}

// KeyFunc derives a limiting key. ok == false means the key is unknown for this request.
type KeyFunc func(req Request) (key string, ok bool, err error)

type SkipFunc func(req Request) bool

type Policy struct {
	Name   string
	Max    int
	Window time.Duration
	Key    KeyFunc
	Skip   SkipFunc
}

type Option func(l *Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

type Limiter struct {
	store  Store
	logger log.Logger
	now    func() time.Time
}

func NewLimiter(store Store, logger log.Logger, opts ...Option) Limiter {
	l := Limiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

func (l Limiter) Check(ctx context.Context, endpoint string, req Request, policy Policy) (result domain.RateLimitResult) {
	defer func() {
		r := recover()
		if r != nil {
			l.logger.Warn(ctx, "rate limit: recovered panic, request allowed",
				log.String("policy", policy.Name),
				log.String("panic", fmt.Sprintf("%v", r)),
			)
			result = allowed(policy)
		}
	}()

	if policy.Max <= 0 || policy.Window <= 0 {
		l.logger.Warn(ctx, "rate limit: invalid policy, request allowed", log.String("policy", policy.Name))
		return allowed(policy)
	}

	if policy.Skip != nil && policy.Skip(req) {
		return allowed(policy)
	}

	key, err := l.key(req, policy)
	if err != nil {
		l.logger.Warn(ctx, errors.WithMessage(err, "rate limit: request allowed"), log.String("policy", policy.Name))
		return allowed(policy)
	}

	now := l.now()
	ok, entry, err := l.store.UpsertAndCheck(ctx, fmt.Sprintf("%s:%s", endpoint, key), now, policy.Window, policy.Max)
	if err != nil {
		l.logger.Warn(ctx, errors.WithMessage(err, "rate limit: upsert and check, request allowed"), log.String("policy", policy.Name))
		return allowed(policy)
	}

	if ok {
		return domain.RateLimitResult{
			Allow:     true,
			Limit:     policy.Max,
			Remaining: max(policy.Max-entry.Count, 0),
			ResetAt:   entry.ResetAt,
		}
	}

	return domain.RateLimitResult{
		Allow:      false,
		Limit:      policy.Max,
		Remaining:  0,
		ResetAt:    entry.ResetAt,
		RetryAfter: max(entry.ResetAt.Sub(now), 0),
	}
}

// CheckAll evaluates policies in order and stops at the first denial.
func (l Limiter) CheckAll(ctx context.Context, endpoint string, req Request, policies ...Policy) domain.RateLimitResult {
	result := domain.RateLimitResult{Allow: true, Remaining: -1}
	for _, policy := range policies {
		current := l.Check(ctx, endpoint, req, policy)
		if !current.Allow {
			return current
		}
		if result.Remaining < 0 || current.Remaining < result.Remaining {
			result = current
		}
	}
	return result
}

func (l Limiter) key(req Request, policy Policy) (string, error) {
	keyFunc := policy.Key
	if keyFunc == nil {
		keyFunc = Ip
	}
	key, ok, err := keyFunc(req)
	if err != nil {
		return "", errors.WithMessage(err, "derive key")
	}
	if !ok || key == "" {
		return "", errors.New("unable to determine key")
	}
	return key, nil
}

func allowed(policy Policy) domain.RateLimitResult {
	return domain.RateLimitResult{
		Allow:     true,
		Limit:     policy.Max,
		Remaining: -1,
	}
}
