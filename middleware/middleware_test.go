package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/test"
	"secret-santa-service/cache"
	"secret-santa-service/domain"
	"secret-santa-service/middleware"
	"secret-santa-service/ratelimit"
	"secret-santa-service/repository"
	"secret-santa-service/request"
	"secret-santa-service/service"
)

const (
	endpoint = "/api/verify"
)

type failingLoader struct{}

func (failingLoader) Load(context.Context, string) (*domain.Session, error) {
	return nil, errors.New("redis: connection refused")
}

type fixture struct {
	logger   log.Logger
	sessions service.Sessions
	cookie   request.SessionCookie
	limiter  ratelimit.Limiter
}

func newFixture(t *testing.T) (fixture, *require.Assertions) {
	t.Helper()
	test, require := test.New(t)
	return fixture{
		logger:   test.Logger(),
		sessions: service.NewSessions(repository.NewSessionCache(), time.Hour),
		cookie:   request.SessionCookie{Name: request.DefaultSessionCookieName, Lifetime: time.Hour},
		limiter:  ratelimit.NewLimiter(cache.NewCounters(), test.Logger()),
	}, require
}

func (f fixture) handler(loader middleware.SessionLoader, policies ...ratelimit.Policy) http.Handler {
	ok := middleware.HandlerFunc(func(ctx *request.Context) error {
		ctx.ResponseWriter().WriteHeader(http.StatusOK)
		return nil
	})
	chain := middleware.Chain(
		ok,
		middleware.RequestId(),
		middleware.Logger(f.logger, true),
		middleware.ErrorHandler(f.logger),
		middleware.Session(loader, f.cookie),
		middleware.Csrf(service.NewCsrf(nil)),
		middleware.RateLimit(f.limiter, policies...),
	)
	return middleware.Entrypoint(1024*1024, endpoint, chain, f.logger)
}

func (f fixture) session(t *testing.T) *domain.Session {
	t.Helper()
	session := &domain.Session{}
	_, _, err := service.NewCsrf(nil).Issue(session)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Save(context.Background(), session))
	return session
}

func (f fixture) post(handler http.Handler, session *domain.Session, token string, ip string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, endpoint, strings.NewReader(`{}`))
	if session != nil {
		r.AddCookie(&http.Cookie{Name: f.cookie.Name, Value: session.Id})
	}
	if token != "" {
		r.Header.Set("X-CSRF-Token", token)
	}
	if ip != "" {
		r.Header.Set("X-Forwarded-For", ip)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestCsrfMiddleware(t *testing.T) {
	t.Parallel()
	f, require := newFixture(t)
	handler := f.handler(f.sessions)

	session := f.session(t)
	w := f.post(handler, session, session.CsrfToken, "")
	require.Equal(http.StatusOK, w.Code)
	require.NotEmpty(w.Header().Get("x-request-id"))

	w = f.post(handler, session, "", "")
	require.Equal(http.StatusForbidden, w.Code)
	require.JSONEq(`{"error":"Invalid CSRF token","code":"CSRF_VALIDATION_FAILED"}`, w.Body.String())

	other := f.session(t)
	w = f.post(handler, other, session.CsrfToken, "")
	require.Equal(http.StatusForbidden, w.Code)

	w = f.post(handler, nil, session.CsrfToken, "")
	require.Equal(http.StatusForbidden, w.Code)

	r := httptest.NewRequest(http.MethodGet, endpoint, nil)
	get := httptest.NewRecorder()
	handler.ServeHTTP(get, r)
	require.Equal(http.StatusOK, get.Code)
}

func TestCsrfMiddlewareFailsClosed(t *testing.T) {
	t.Parallel()
	f, require := newFixture(t)
	handler := f.handler(failingLoader{})

	w := f.post(handler, &domain.Session{Id: "id"}, "token", "")
	require.Equal(http.StatusInternalServerError, w.Code)
	require.JSONEq(`{"error":"CSRF validation failed","code":"CSRF_VALIDATION_ERROR"}`, w.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()
	f, require := newFixture(t)
	handler := f.handler(f.sessions, ratelimit.Policy{Name: "ip", Max: 5, Window: 15 * time.Minute})

	session := f.session(t)
	for i := 0; i < 5; i++ {
		w := f.post(handler, session, session.CsrfToken, "192.168.1.2")
		require.Equal(http.StatusOK, w.Code)
	}

	w := f.post(handler, session, session.CsrfToken, "192.168.1.2")
	require.Equal(http.StatusTooManyRequests, w.Code)
	require.Equal("5", w.Header().Get("X-RateLimit-Limit"))
	require.Equal("0", w.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(w.Header().Get("X-RateLimit-Reset"))
	retryAfter := w.Header().Get("Retry-After")
	require.Contains([]string{"899", "900"}, retryAfter)
	require.Contains(w.Body.String(), `"code":"RATE_LIMIT_EXCEEDED"`)

	w = f.post(handler, session, session.CsrfToken, "192.168.1.3")
	require.Equal(http.StatusOK, w.Code)

	for i := 0; i < 10; i++ {
		w = f.post(handler, session, session.CsrfToken, "")
		require.Equal(http.StatusOK, w.Code)
	}
}

func TestCsrfRunsBeforeRateLimit(t *testing.T) {
	t.Parallel()
	f, require := newFixture(t)
	handler := f.handler(f.sessions, ratelimit.Policy{Max: 1, Window: time.Minute})

	for i := 0; i < 3; i++ {
		w := f.post(handler, nil, "", "10.1.1.1")
		require.Equal(http.StatusForbidden, w.Code)
	}

	session := f.session(t)
	w := f.post(handler, session, session.CsrfToken, "10.1.1.1")
	require.Equal(http.StatusOK, w.Code)
}
