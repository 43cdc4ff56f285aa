package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"secret-santa-service/domain"
	"secret-santa-service/repository"
)

type sessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Set(ctx context.Context, session domain.Session, lifetime time.Duration) error
	Delete(ctx context.Context, id string) error
}

func TestSessionStores(t *testing.T) {
	t.Parallel()

	_, cli := newRedis(t)
	stores := map[string]sessionStore{
		"memory": repository.NewSessionCache(),
		"redis":  repository.NewRedisSessions(cli),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require := require.New(t)
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			require.ErrorIs(err, domain.ErrSessionNotFound)

			session := domain.Session{
				Id:            "session-1",
				ParticipantId: "participant-1",
				IsLoggedIn:    true,
				CsrfToken:     "token",
			}
			err = store.Set(ctx, session, time.Hour)
			require.NoError(err)

			stored, err := store.Get(ctx, session.Id)
			require.NoError(err)
			require.Equal(session.ParticipantId, stored.ParticipantId)
			require.Equal(session.CsrfToken, stored.CsrfToken)
			require.True(stored.Authenticated())

			err = store.Delete(ctx, session.Id)
			require.NoError(err)
			_, err = store.Get(ctx, session.Id)
			require.ErrorIs(err, domain.ErrSessionNotFound)
		})
	}
}

func TestRedisSessionsExpire(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	server, cli := newRedis(t)
	store := repository.NewRedisSessions(cli)
	ctx := context.Background()

	err := store.Set(ctx, domain.Session{Id: "s"}, time.Minute)
	require.NoError(err)

	server.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "s")
	require.ErrorIs(err, domain.ErrSessionNotFound)
}
