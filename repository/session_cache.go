package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/json"
	"secret-santa-service/cache"
	"secret-santa-service/domain"
)

type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache() SessionCache {
	return SessionCache{
		cache: cache.New(),
	}
}

func (r SessionCache) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, ok := r.cache.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	result := domain.Session{}
	err := json.Unmarshal(data, &result)
	if err != nil {
		return nil, errors.WithMessage(err, "json unmarshal session")
	}

	return &result, nil
}

func (r SessionCache) Set(ctx context.Context, session domain.Session, lifetime time.Duration) error {
	value, err := json.Marshal(session)
	if err != nil {
		return errors.WithMessage(err, "json marshal session")
	}

	r.cache.Set(session.Id, value, lifetime)

	return nil
}

func (r SessionCache) Delete(ctx context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

func (r SessionCache) Sweep(ctx context.Context) (int, error) {
	return r.cache.Sweep(), nil
}
