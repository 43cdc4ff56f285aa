package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"secret-santa-service/domain"
)

const (
	countersKeyPrefix = "rate_limit:"
)

// KEYS[1] counter key, ARGV[1] max, ARGV[2] window in ms.
// Returns {allowed, count, ttl in ms}.
var upsertAndCheckScript = redis.NewScript(`
local count = tonumber(redis.call("GET", KEYS[1]))
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local ttl = redis.call("PTTL", KEYS[1])
if not count or ttl < 0 then
	redis.call("SET", KEYS[1], 1, "PX", window)
	return {1, 1, window}
end
if count >= max then
	return {0, count, ttl}
end
count = redis.call("INCR", KEYS[1])
return {1, count, ttl}
`) // nolint:gochecknoglobals

type RedisCounters struct {
	cli redis.UniversalClient
}

func NewRedisCounters(cli redis.UniversalClient) RedisCounters {
	return RedisCounters{
		cli: cli,
	}
}

func (r RedisCounters) UpsertAndCheck(
	ctx context.Context,
	key string,
	now time.Time,
	window time.Duration,
	max int,
) (bool, domain.CounterEntry, error) {
	values, err := upsertAndCheckScript.Run(
		ctx,
		r.cli,
		[]string{countersKeyPrefix + key},
		max,
		window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, domain.CounterEntry{}, errors.WithMessage(err, "run upsert and check script")
	}
	if len(values) != 3 { // nolint:mnd
		return false, domain.CounterEntry{}, errors.Errorf("unexpected script result: %v", values)
	}

	entry := domain.CounterEntry{
		Key:     key,
		Count:   int(values[1]),
		ResetAt: now.Add(time.Duration(values[2]) * time.Millisecond),
	}
	return values[0] == 1, entry, nil
}
