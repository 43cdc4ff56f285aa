package conf

import (
	"reflect"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/rc/schema"
	"github.com/txix-open/jsonschema"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	KeyIp      = "ip"
	KeyEmail   = "email"
	KeySession = "session"
	KeyGroup   = "group"
)

// nolint:gochecknoinits
func init() {
	schema.CustomGenerators.Register("logLevel", logLevelSchema)
}

func logLevelSchema(field reflect.StructField, s *jsonschema.Schema) {
	s.Type = "string"
	s.Enum = []any{"debug", "info", "warn", "error", "fatal"}
}

type Remote struct {
	Redis        *Redis       `schema:"Redis settings,required if any store is redis"`
	Http         Http         `schema:"HTTP settings"`
	Logging      Logging      `schema:"Logging settings"`
	Session      Session      `schema:"Session settings"`
	Csrf         Csrf         `schema:"CSRF protection settings"`
	RateLimiting RateLimiting `schema:"Rate limiting settings"`
	Lottery      Lottery      `schema:"Lottery settings"`
	Verification Verification `schema:"Email verification settings"`
	Webhook      Webhook      `schema:"Delivery webhook settings"`
	Invitation   Invitation   `schema:"Invitation email settings"`
}

type Http struct {
	MaxRequestBodySizeInMb int64 `validate:"required" schema:"Max request body size,in megabytes"`
}

type Logging struct {
	LogLevel         log.Level `schemaGen:"logLevel" schema:"Log level,requests are logged at debug level"`
	RequestLogEnable bool      `schema:"Enable request logging"`
}

type Session struct {
	CookieName    string `schema:"Cookie name,default secret-santa-session"`
	LifetimeInSec int    `schema:"Session lifetime,in seconds, default 7 days"`
	Secure        bool   `schema:"Set the Secure cookie attribute"`
	Store         string `validate:"omitempty,oneof=memory redis" schema:"Session store,memory or redis"`
}

type Csrf struct {
	ExemptPathPrefixes []string `schema:"Path prefixes excluded from CSRF checks,default /api/webhooks/"`
	RotateOnLogin      bool     `schema:"Issue a new CSRF token after a successful login"`
}

type RateLimiting struct {
	Store              string            `validate:"omitempty,oneof=memory redis" schema:"Counter store,memory or redis"`
	SweepIntervalInSec int               `schema:"Expired counters sweep interval,in seconds, default 600"`
	Policies           []RateLimitPolicy `schema:"Policy overrides,replace the defaults of the endpoint"`
}

type RateLimitPolicy struct {
	Endpoint       string `validate:"required" schema:"Endpoint path,e.g. /api/verify"`
	Key            string `validate:"omitempty,oneof=ip email session group" schema:"Key dimension,ip (default), email, session or group"`
	Max            int    `validate:"required,min=1" schema:"Max requests per window"`
	WindowInSec    int    `validate:"required,min=1" schema:"Window,in seconds"`
	SkipExpression string `schema:"Skip expression,e.g. Ip == \"127.0.0.1\""`
}

type Lottery struct {
	MaxAttempts int `schema:"Max draw attempts,default 100"`
}

type Verification struct {
	CodeLifetimeInSec   int `schema:"Verification code lifetime,in seconds, default 1800"`
	ResendCooldownInSec int `schema:"Resend cooldown,in seconds, default 30"`
}

type Webhook struct {
	Secret string `schema:"Bearer secret of the delivery webhook,webhook is disabled if empty"`
}

type Invitation struct {
	JoinUrl string `schema:"Join page URL,the invite id is added as the inviteId query parameter"`
}

type Redis struct {
	Address  string         `schema:"Address,required if sentinel is not set"`
	Username string         `schema:"Username"`
	Password string         `schema:"Password"`
	Sentinel *RedisSentinel `schema:"Sentinel settings,required if address is not set"`
}

type RedisSentinel struct {
	Addresses  []string `validate:"required" schema:"Node addresses"`
	MasterName string   `validate:"required" schema:"Master name"`
	Username   string   `schema:"Sentinel username"`
	Password   string   `schema:"Sentinel password"`
}

func (r Remote) Validate() error {
	if (r.Session.Store == StoreRedis || r.RateLimiting.Store == StoreRedis) && r.Redis == nil {
		return errors.New("redis is required if session or rate limiting store is redis")
	}
	if r.Redis != nil && r.Redis.Sentinel == nil && r.Redis.Address == "" {
		return errors.New("invalid redis config. sentinel or address are required")
	}
	keys := []string{"", KeyIp, KeyEmail, KeySession, KeyGroup}
	for _, policy := range r.RateLimiting.Policies {
		if !strings.HasPrefix(policy.Endpoint, "/") {
			return errors.Errorf("invalid rate limit policy endpoint '%s'", policy.Endpoint)
		}
		if policy.Max <= 0 || policy.WindowInSec <= 0 {
			return errors.Errorf("rate limit policy for '%s' requires positive max and window", policy.Endpoint)
		}
		if !slices.Contains(keys, policy.Key) {
			return errors.Errorf("unknown rate limit policy key '%s'", policy.Key)
		}
	}
	return nil
}
