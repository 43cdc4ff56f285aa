package ratelimit_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/txix-open/isp-kit/test"
	"secret-santa-service/cache"
	"secret-santa-service/domain"
	"secret-santa-service/ratelimit"
)

type testRequest struct {
	request *http.Request
	body    []byte
	session *domain.Session
}

func newTestRequest(ip string, body string) testRequest {
	r := httptest.NewRequest(http.MethodPost, "/api/verify", bytes.NewBufferString(body))
	if ip != "" {
		r.Header.Set("X-Forwarded-For", ip)
	}
	return testRequest{request: r, body: []byte(body)}
}

func (r testRequest) Request() *http.Request {
	return r.request
}

func (r testRequest) Body() ([]byte, error) {
	return r.body, nil
}

func (r testRequest) Session() *domain.Session {
	return r.session
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

type failingStore struct{}

func (failingStore) UpsertAndCheck(context.Context, string, time.Time, time.Duration, int) (bool, domain.CounterEntry, error) {
	return false, domain.CounterEntry{}, errors.New("connection refused")
}

func newLimiter(t *testing.T, store ratelimit.Store) (ratelimit.Limiter, *clock, *require.Assertions) {
	t.Helper()
	test, require := test.New(t)
	c := &clock{now: time.Date(2024, time.December, 1, 12, 0, 0, 0, time.UTC)}
	return ratelimit.NewLimiter(store, test.Logger(), ratelimit.WithClock(c.Now)), c, require
}

func TestLimiterBoundary(t *testing.T) {
	t.Parallel()
	limiter, clock, require := newLimiter(t, cache.NewCounters())

	ctx := context.Background()
	policy := ratelimit.Policy{Name: "verify", Max: 5, Window: 15 * time.Minute}
	req := newTestRequest("192.168.1.2", "")

	for i := 0; i < 5; i++ {
		result := limiter.Check(ctx, "/api/verify", req, policy)
		require.True(result.Allow)
		require.EqualValues(4-i, result.Remaining)
		clock.now = clock.now.Add(time.Second)
	}

	result := limiter.Check(ctx, "/api/verify", req, policy)
	require.False(result.Allow)
	require.EqualValues(5, result.Limit)
	require.EqualValues(0, result.Remaining)
	require.Equal(15*time.Minute-5*time.Second, result.RetryAfter)
	require.EqualValues(895, result.RetryAfterSeconds())
}

func TestLimiterRollover(t *testing.T) {
	t.Parallel()
	limiter, clock, require := newLimiter(t, cache.NewCounters())

	ctx := context.Background()
	policy := ratelimit.Policy{Max: 2, Window: time.Minute}
	req := newTestRequest("10.0.0.1", "")

	require.True(limiter.Check(ctx, "/api/resend-code", req, policy).Allow)
	require.True(limiter.Check(ctx, "/api/resend-code", req, policy).Allow)
	denied := limiter.Check(ctx, "/api/resend-code", req, policy)
	require.False(denied.Allow)

	clock.now = denied.ResetAt
	result := limiter.Check(ctx, "/api/resend-code", req, policy)
	require.True(result.Allow)
	require.EqualValues(1, result.Remaining)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()
	limiter, _, require := newLimiter(t, cache.NewCounters())

	ctx := context.Background()
	policy := ratelimit.Policy{Max: 1, Window: time.Minute}

	require.True(limiter.Check(ctx, "/api/verify", newTestRequest("10.0.0.1", ""), policy).Allow)
	require.False(limiter.Check(ctx, "/api/verify", newTestRequest("10.0.0.1", ""), policy).Allow)
	require.True(limiter.Check(ctx, "/api/verify", newTestRequest("10.0.0.2", ""), policy).Allow)
	require.True(limiter.Check(ctx, "/api/group/join", newTestRequest("10.0.0.1", ""), policy).Allow)
}

func TestLimiterFailsOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	keyErr := func(ratelimit.Request) (string, bool, error) {
		return "", false, errors.New("broken body")
	}
	keyPanic := func(ratelimit.Request) (string, bool, error) {
		panic("unexpected")
	}
	keyUnknown := func(ratelimit.Request) (string, bool, error) {
		return "", false, nil
	}

	tests := []struct {
		name   string
		store  ratelimit.Store
		policy ratelimit.Policy
		req    testRequest
	}{
		{"no client ip", cache.NewCounters(), ratelimit.Policy{Max: 1, Window: time.Minute}, newTestRequest("", "")},
		{"key error", cache.NewCounters(), ratelimit.Policy{Max: 1, Window: time.Minute, Key: keyErr}, newTestRequest("1.1.1.1", "")},
		{"key panic", cache.NewCounters(), ratelimit.Policy{Max: 1, Window: time.Minute, Key: keyPanic}, newTestRequest("1.1.1.1", "")},
		{"unknown key", cache.NewCounters(), ratelimit.Policy{Max: 1, Window: time.Minute, Key: keyUnknown}, newTestRequest("1.1.1.1", "")},
		{"store error", failingStore{}, ratelimit.Policy{Max: 1, Window: time.Minute}, newTestRequest("1.1.1.1", "")},
		{"invalid policy", cache.NewCounters(), ratelimit.Policy{Max: 0, Window: time.Minute}, newTestRequest("1.1.1.1", "")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			limiter, _, require := newLimiter(t, tc.store)
			for i := 0; i < 3; i++ {
				require.True(limiter.Check(ctx, "/api/verify", tc.req, tc.policy).Allow)
			}
		})
	}
}

func TestLimiterSkip(t *testing.T) {
	t.Parallel()
	limiter, _, require := newLimiter(t, cache.NewCounters())

	skip, err := ratelimit.SkipExpression(`Ip == "127.0.0.1" || Headers["x-load-test"] == "true"`)
	require.NoError(err)

	ctx := context.Background()
	policy := ratelimit.Policy{Max: 1, Window: time.Minute, Skip: skip}

	for i := 0; i < 3; i++ {
		require.True(limiter.Check(ctx, "/api/verify", newTestRequest("127.0.0.1", ""), policy).Allow)
	}

	loadTest := newTestRequest("10.0.0.5", "")
	loadTest.request.Header.Set("X-Load-Test", "true")
	require.True(limiter.Check(ctx, "/api/verify", loadTest, policy).Allow)
	require.True(limiter.Check(ctx, "/api/verify", loadTest, policy).Allow)

	require.True(limiter.Check(ctx, "/api/verify", newTestRequest("10.0.0.1", ""), policy).Allow)
	require.False(limiter.Check(ctx, "/api/verify", newTestRequest("10.0.0.1", ""), policy).Allow)
}

func TestSkipExpressionCompileError(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	_, err := ratelimit.SkipExpression(`Method + `)
	require.Error(err)

	_, err = ratelimit.SkipExpression(`Method`)
	require.Error(err)
}

func TestLimiterCheckAllReturnsFirstDenial(t *testing.T) {
	t.Parallel()
	limiter, _, require := newLimiter(t, cache.NewCounters())

	ctx := context.Background()
	byIp := ratelimit.Policy{Name: "ip", Max: 10, Window: 15 * time.Minute}
	byEmail := ratelimit.Policy{Name: "email", Max: 2, Window: 15 * time.Minute, Key: ratelimit.Email("email")}

	body := `{"email":"Santa@North.Pole","code":"123456"}`
	for i := 0; i < 2; i++ {
		result := limiter.CheckAll(ctx, "/api/verify", newTestRequest("10.0.0.1", body), byIp, byEmail)
		require.True(result.Allow)
	}

	result := limiter.CheckAll(ctx, "/api/verify", newTestRequest("10.0.0.9", `{"email":"santa@north.pole"}`), byIp, byEmail)
	require.False(result.Allow)
	require.EqualValues(2, result.Limit)
}
