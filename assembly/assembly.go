package assembly

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/txix-open/isp-kit/app"
	"github.com/txix-open/isp-kit/bootstrap"
	"github.com/txix-open/isp-kit/cluster"
	"github.com/txix-open/isp-kit/http"
	"github.com/txix-open/isp-kit/log"
	"secret-santa-service/conf"
	"secret-santa-service/service"
)

type Assembly struct {
	boot     *bootstrap.Bootstrap
	server   *http.Server
	logger   *log.Adapter
	state    State
	local    conf.Local
	redisCli redis.UniversalClient

	lock        sync.Mutex
	stopSweeper context.CancelFunc
}

func New(boot *bootstrap.Bootstrap) (*Assembly, error) {
	localConfig := conf.Local{}
	err := boot.App.Config().Read(&localConfig)
	if err != nil {
		return nil, errors.WithMessage(err, "read local config")
	}

	return &Assembly{
		boot:   boot,
		server: http.NewServer(boot.App.Logger()),
		logger: boot.App.Logger(),
		state:  NewState(),
		local:  localConfig,
	}, nil
}

func (a *Assembly) ReceiveConfig(ctx context.Context, remoteConfig []byte) error {
	var (
		newCfg  conf.Remote
		prevCfg conf.Remote
	)
	err := a.boot.RemoteConfig.Upgrade(remoteConfig, &newCfg, &prevCfg)
	if err != nil {
		a.logger.Fatal(ctx, errors.WithMessage(err, "upgrade remote config"))
	}
	err = newCfg.Validate()
	if err != nil {
		a.logger.Fatal(ctx, errors.WithMessage(err, "invalid remote config"))
	}

	a.logger.SetLevel(newCfg.Logging.LogLevel)

	var newRedisCli redis.UniversalClient
	if newCfg.Redis != nil {
		newRedisCli = redisClient(*newCfg.Redis)
	}

	locator := NewLocator(a.logger, a.state, a.local.ApiPrefix)
	handler, err := locator.Handler(newCfg, newRedisCli)
	if err != nil {
		if newRedisCli != nil {
			_ = newRedisCli.Close()
		}
		return errors.WithMessage(err, "locator handler")
	}

	a.server.Upgrade(handler)

	a.lock.Lock()
	defer a.lock.Unlock()

	if a.redisCli != nil {
		_ = a.redisCli.Close()
	}
	a.redisCli = newRedisCli
	a.restartSweeper(time.Duration(newCfg.RateLimiting.SweepIntervalInSec) * time.Second)

	return nil
}

func (a *Assembly) Runners() []app.Runner {
	eventHandler := cluster.NewEventHandler().
		RemoteConfigReceiver(a)

	return []app.Runner{
		app.RunnerFunc(func(ctx context.Context) error {
			return a.server.ListenAndServe(a.boot.BindingAddress)
		}),
		app.RunnerFunc(func(ctx context.Context) error {
			return a.boot.ClusterCli.Run(ctx, eventHandler)
		}),
	}
}

func (a *Assembly) Closers() []app.Closer {
	return []app.Closer{
		a.boot.ClusterCli,
		app.CloserFunc(func() error {
			return a.server.Shutdown(context.Background())
		}),
		app.CloserFunc(func() error {
			a.lock.Lock()
			defer a.lock.Unlock()

			if a.stopSweeper != nil {
				a.stopSweeper()
			}
			if a.redisCli != nil {
				return a.redisCli.Close()
			}
			return nil
		}),
	}
}

// restartSweeper must be called with a.lock held.
func (a *Assembly) restartSweeper(interval time.Duration) {
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	ctx, cancel := context.WithCancel(a.boot.App.Context())
	a.stopSweeper = cancel

	sweeper := service.NewSweeper(interval, a.state.SweepTargets(), a.logger)
	go func() {
		_ = sweeper.Run(ctx)
	}()
}

func redisClient(config conf.Redis) redis.UniversalClient {
	if config.Sentinel != nil {
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       config.Sentinel.MasterName,
			SentinelAddrs:    config.Sentinel.Addresses,
			SentinelUsername: config.Sentinel.Username,
			SentinelPassword: config.Sentinel.Password,
			Username:         config.Username,
			Password:         config.Password,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Username: config.Username,
		Password: config.Password,
	})
}
