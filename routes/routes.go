package routes

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"secret-santa-service/conf"
	"secret-santa-service/ratelimit"
)

const (
	DefaultPrefix = "/api"

	CsrfToken            = "/csrf/token"
	CreateGroup          = "/group/create"
	JoinGroup            = "/group/join"
	UpdateGroup          = "/group/update"
	RemoveParticipant    = "/group/remove-participant"
	SendInvitation       = "/group/send-invitation"
	CheckEmail           = "/check-email"
	Verify               = "/verify"
	ResendCode           = "/resend-code"
	SignOut              = "/auth/signout"
	RunLottery           = "/lottery/run"
	VoidLottery          = "/lottery/void"
	ResendAssignment     = "/lottery/resend-assignment"
	WebhookNotifications = "/webhooks/notifications"
	WebhooksPrefix       = "/webhooks/"
)

type Limit struct {
	Key            string
	Max            int
	Window         time.Duration
	SkipExpression string
}

type Route struct {
	Method string
	Path   string
	Limits []Limit
}

type Routes struct {
	prefix string
	routes []Route
}

func NewRoutes(prefix string) Routes {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Routes{
		prefix: prefix,
		routes: defaults(),
	}
}

func (r Routes) Prefix() string {
	return r.prefix
}

func (r Routes) Endpoint(path string) string {
	return r.prefix + path
}

func (r Routes) All() []Route {
	return r.routes
}

// WithOverrides replaces the limits of every endpoint mentioned in policies.
func (r Routes) WithOverrides(policies []conf.RateLimitPolicy) Routes {
	overrides := make(map[string][]Limit)
	for _, policy := range policies {
		overrides[policy.Endpoint] = append(overrides[policy.Endpoint], Limit{
			Key:            policy.Key,
			Max:            policy.Max,
			Window:         time.Duration(policy.WindowInSec) * time.Second,
			SkipExpression: policy.SkipExpression,
		})
	}

	routes := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		limits, ok := overrides[r.Endpoint(route.Path)]
		if ok {
			route.Limits = limits
		}
		routes = append(routes, route)
	}
	r.routes = routes
	return r
}

// Policies compiles route limits into limiter policies.
func Policies(endpoint string, limits []Limit) ([]ratelimit.Policy, error) {
	policies := make([]ratelimit.Policy, 0, len(limits))
	for _, limit := range limits {
		key, err := keyFunc(limit.Key)
		if err != nil {
			return nil, errors.WithMessagef(err, "endpoint '%s'", endpoint)
		}
		policy := ratelimit.Policy{
			Name:   endpoint + ":" + keyName(limit.Key),
			Max:    limit.Max,
			Window: limit.Window,
			Key:    key,
		}
		if limit.SkipExpression != "" {
			policy.Skip, err = ratelimit.SkipExpression(limit.SkipExpression)
			if err != nil {
				return nil, errors.WithMessagef(err, "endpoint '%s'", endpoint)
			}
		}
		policies = append(policies, policy)
	}
	return policies, nil
}

func keyFunc(key string) (ratelimit.KeyFunc, error) {
	switch key {
	case "", conf.KeyIp:
		return ratelimit.Ip, nil
	case conf.KeyEmail:
		return ratelimit.Email("email"), nil
	case conf.KeySession:
		return ratelimit.SessionParticipant, nil
	case conf.KeyGroup:
		return ratelimit.BodyField("group", "groupId"), nil
	default:
		return nil, errors.Errorf("unknown rate limit key '%s'", key)
	}
}

func keyName(key string) string {
	if key == "" {
		return conf.KeyIp
	}
	return key
}

func defaults() []Route {
	const (
		fifteenMinutes = 15 * time.Minute
	)
	return []Route{
		{Method: http.MethodGet, Path: CsrfToken},
		{Method: http.MethodPost, Path: CreateGroup, Limits: []Limit{
			{Key: conf.KeyIp, Max: 5, Window: fifteenMinutes},
		}},
		{Method: http.MethodPost, Path: JoinGroup, Limits: []Limit{
			{Key: conf.KeyIp, Max: 10, Window: fifteenMinutes},
			{Key: conf.KeyEmail, Max: 5, Window: fifteenMinutes},
		}},
		{Method: http.MethodPut, Path: UpdateGroup, Limits: []Limit{
			{Key: conf.KeyGroup, Max: 10, Window: time.Minute},
		}},
		{Method: http.MethodPost, Path: RemoveParticipant, Limits: []Limit{
			{Key: conf.KeyGroup, Max: 10, Window: time.Minute},
		}},
		{Method: http.MethodPost, Path: SendInvitation, Limits: []Limit{
			{Key: conf.KeySession, Max: 20, Window: time.Hour},
		}},
		{Method: http.MethodGet, Path: CheckEmail, Limits: []Limit{
			{Key: conf.KeyIp, Max: 20, Window: time.Minute},
		}},
		{Method: http.MethodPost, Path: Verify, Limits: []Limit{
			{Key: conf.KeyIp, Max: 10, Window: fifteenMinutes},
			{Key: conf.KeyEmail, Max: 5, Window: fifteenMinutes},
		}},
		{Method: http.MethodPost, Path: ResendCode, Limits: []Limit{
			{Key: conf.KeyIp, Max: 5, Window: fifteenMinutes},
		}},
		{Method: http.MethodPost, Path: SignOut},
		{Method: http.MethodPost, Path: RunLottery, Limits: []Limit{
			{Key: conf.KeyGroup, Max: 3, Window: time.Minute},
		}},
		{Method: http.MethodPost, Path: VoidLottery, Limits: []Limit{
			{Key: conf.KeyGroup, Max: 3, Window: time.Minute},
		}},
		{Method: http.MethodPost, Path: ResendAssignment, Limits: []Limit{
			{Key: conf.KeySession, Max: 10, Window: time.Hour},
		}},
		{Method: http.MethodPost, Path: WebhookNotifications, Limits: []Limit{
			{Key: conf.KeyIp, Max: 60, Window: time.Minute},
		}},
	}
}
