package assembly

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/txix-open/isp-kit/log"
	"secret-santa-service/cache"
	"secret-santa-service/conf"
	"secret-santa-service/controller"
	"secret-santa-service/httperrors"
	"secret-santa-service/lottery"
	"secret-santa-service/middleware"
	"secret-santa-service/ratelimit"
	"secret-santa-service/repository"
	"secret-santa-service/request"
	"secret-santa-service/routes"
	"secret-santa-service/service"
)

const (
	defaultMaxRequestBodySizeInMb = 1
)

// State is kept between remote config upgrades.
type State struct {
	Groups   repository.Groups
	Counters *cache.Counters
	Sessions repository.SessionCache
	Outbox   *service.Outbox
	Locks    service.KeyedMutex
}

func NewState() State {
	return State{
		Groups:   repository.NewGroups(),
		Counters: cache.NewCounters(),
		Sessions: repository.NewSessionCache(),
		Outbox:   service.NewOutbox(),
		Locks:    service.NewKeyedMutex(),
	}
}

type Locator struct {
	logger    log.Logger
	state     State
	apiPrefix string
}

func NewLocator(logger log.Logger, state State, apiPrefix string) Locator {
	return Locator{
		logger:    logger,
		state:     state,
		apiPrefix: apiPrefix,
	}
}

func (l Locator) Handler(config conf.Remote, redisCli redis.UniversalClient) (http.Handler, error) {
	var counterStore ratelimit.Store = l.state.Counters
	if config.RateLimiting.Store == conf.StoreRedis {
		counterStore = repository.NewRedisCounters(redisCli)
	}
	var sessionRepo service.SessionRepo = l.state.Sessions
	if config.Session.Store == conf.StoreRedis {
		sessionRepo = repository.NewRedisSessions(redisCli)
	}

	cookie := request.SessionCookie{
		Name:     config.Session.CookieName,
		Secure:   config.Session.Secure,
		Lifetime: time.Duration(config.Session.LifetimeInSec) * time.Second,
	}
	if cookie.Name == "" {
		cookie.Name = request.DefaultSessionCookieName
	}
	if cookie.Lifetime <= 0 {
		cookie.Lifetime = request.DefaultSessionLifetime
	}

	routeTable := routes.NewRoutes(l.apiPrefix).WithOverrides(config.RateLimiting.Policies)
	exemptPrefixes := config.Csrf.ExemptPathPrefixes
	if len(exemptPrefixes) == 0 {
		exemptPrefixes = []string{routeTable.Endpoint(routes.WebhooksPrefix)}
	}

	sessions := service.NewSessions(sessionRepo, cookie.Lifetime)
	csrfService := service.NewCsrf(exemptPrefixes)
	notifications := service.NewNotifications(l.state.Outbox, l.logger)
	verification := service.NewVerification(
		l.state.Groups,
		notifications,
		secondsOrDefault(config.Verification.CodeLifetimeInSec, service.DefaultCodeLifetime),
		secondsOrDefault(config.Verification.ResendCooldownInSec, service.DefaultResendCooldown),
	)
	groupsService := service.NewGroups(l.state.Groups, verification, notifications, l.state.Locks, config.Invitation.JoinUrl)
	engine := lottery.NewEngine(lottery.WithMaxAttempts(config.Lottery.MaxAttempts))
	lotteryService := service.NewLottery(l.state.Groups, engine, notifications, l.state.Locks, l.logger)
	deliveries := service.NewDeliveries(l.state.Groups, config.Webhook.Secret, l.logger)
	limiter := ratelimit.NewLimiter(counterStore, l.logger)

	csrfController := controller.NewCsrf(csrfService, sessions, cookie)
	groupsController := controller.NewGroups(groupsService)
	authController := controller.NewAuth(verification, sessions, csrfService, cookie, config.Csrf.RotateOnLogin)
	lotteryController := controller.NewLottery(lotteryService)
	webhookController := controller.NewWebhook(deliveries)

	handlers := map[string]middleware.HandlerFunc{
		routes.CsrfToken:            csrfController.Token,
		routes.CreateGroup:          groupsController.Create,
		routes.JoinGroup:            groupsController.Join,
		routes.UpdateGroup:          groupsController.Update,
		routes.RemoveParticipant:    groupsController.RemoveParticipant,
		routes.SendInvitation:       groupsController.SendInvitation,
		routes.CheckEmail:           groupsController.CheckEmail,
		routes.Verify:               authController.Verify,
		routes.ResendCode:           authController.ResendCode,
		routes.SignOut:              authController.SignOut,
		routes.RunLottery:           lotteryController.Run,
		routes.VoidLottery:          lotteryController.Void,
		routes.ResendAssignment:     lotteryController.ResendAssignment,
		routes.WebhookNotifications: webhookController.Notifications,
	}

	maxBodySizeInMb := config.Http.MaxRequestBodySizeInMb
	if maxBodySizeInMb <= 0 {
		maxBodySizeInMb = defaultMaxRequestBodySizeInMb
	}

	router := mux.NewRouter()
	router.NotFoundHandler = errorHandler(httperrors.New(http.StatusNotFound, "Not found", nil))
	router.MethodNotAllowedHandler = errorHandler(httperrors.New(http.StatusMethodNotAllowed, "Method not allowed", nil))
	for _, route := range routeTable.All() {
		endpoint := routeTable.Endpoint(route.Path)
		handler, ok := handlers[route.Path]
		if !ok {
			return nil, errors.Errorf("no handler for route '%s'", endpoint)
		}
		policies, err := routes.Policies(endpoint, route.Limits)
		if err != nil {
			return nil, errors.WithMessage(err, "rate limit policies")
		}

		chain := middleware.Chain(
			handler,
			middleware.RequestId(),
			middleware.Logger(l.logger, config.Logging.RequestLogEnable),
			middleware.ErrorHandler(l.logger),
			middleware.Session(sessions, cookie),
			middleware.Csrf(csrfService),
			middleware.RateLimit(limiter, policies...),
		)
		entrypoint := middleware.Entrypoint(
			maxBodySizeInMb*1024*1024, //nolint:mnd
			endpoint,
			chain,
			l.logger,
		)
		router.Handle(endpoint, entrypoint).Methods(route.Method)
	}

	return router, nil
}

func errorHandler(err httperrors.HttpError) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = err.WriteError(w)
	})
}

func secondsOrDefault(seconds int, defaultValue time.Duration) time.Duration {
	if seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}

func (s State) SweepTargets() map[string]service.SweepFunc {
	return map[string]service.SweepFunc{
		"rateLimitCounters": func(_ context.Context, now time.Time) (int, error) {
			return s.Counters.Sweep(now), nil
		},
		"sessions": func(ctx context.Context, _ time.Time) (int, error) {
			return s.Sessions.Sweep(ctx)
		},
	}
}
