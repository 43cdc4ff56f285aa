package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/txix-open/isp-kit/json"
	"secret-santa-service/domain"
)

const (
	sessionKeyPrefix = "session:"
)

type RedisSessions struct {
	cli redis.UniversalClient
}

func NewRedisSessions(cli redis.UniversalClient) RedisSessions {
	return RedisSessions{
		cli: cli,
	}
}

func (r RedisSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.cli.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.WithMessage(err, "get")
	}

	result := domain.Session{}
	err = json.Unmarshal(data, &result)
	if err != nil {
		return nil, errors.WithMessage(err, "json unmarshal session")
	}

	return &result, nil
}

func (r RedisSessions) Set(ctx context.Context, session domain.Session, lifetime time.Duration) error {
	value, err := json.Marshal(session)
	if err != nil {
		return errors.WithMessage(err, "json marshal session")
	}

	err = r.cli.Set(ctx, r.key(session.Id), value, lifetime).Err()
	if err != nil {
		return errors.WithMessage(err, "set")
	}

	return nil
}

func (r RedisSessions) Delete(ctx context.Context, id string) error {
	err := r.cli.Del(ctx, r.key(id)).Err()
	if err != nil {
		return errors.WithMessage(err, "del")
	}
	return nil
}

// Sweep is a no-op, keys expire in Redis.
func (r RedisSessions) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}

func (r RedisSessions) key(id string) string {
	return sessionKeyPrefix + id
}
