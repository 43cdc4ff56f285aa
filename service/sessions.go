package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
)

const (
	sessionIdBytes = 32
)

type SessionRepo interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Set(ctx context.Context, session domain.Session, lifetime time.Duration) error
	Delete(ctx context.Context, id string) error
}

type Sessions struct {
	repo     SessionRepo
	lifetime time.Duration
	now      func() time.Time
}

func NewSessions(repo SessionRepo, lifetime time.Duration) Sessions {
	return Sessions{
		repo:     repo,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Load returns the stored session or a new unsaved one if the id is unknown.
func (s Sessions) Load(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return &domain.Session{}, nil
	}

	session, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return &domain.Session{}, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "session repo get")
	}
	if !session.ExpiresAt.IsZero() && !s.now().Before(session.ExpiresAt) {
		return &domain.Session{}, nil
	}
	return session, nil
}

func (s Sessions) Save(ctx context.Context, session *domain.Session) error {
	if session.Id == "" {
		id, err := newSessionId()
		if err != nil {
			return errors.WithMessage(err, "new session id")
		}
		session.Id = id
	}
	session.ExpiresAt = s.now().Add(s.lifetime)

	err := s.repo.Set(ctx, *session, s.lifetime)
	if err != nil {
		return errors.WithMessage(err, "session repo set")
	}
	return nil
}

// Renew drops the stored record and gives the session a fresh id.
func (s Sessions) Renew(ctx context.Context, session *domain.Session) error {
	if session.Id != "" {
		err := s.repo.Delete(ctx, session.Id)
		if err != nil {
			return errors.WithMessage(err, "session repo delete")
		}
	}
	id, err := newSessionId()
	if err != nil {
		return errors.WithMessage(err, "new session id")
	}
	session.Id = id
	return nil
}

func (s Sessions) Destroy(ctx context.Context, session *domain.Session) error {
	if session.Id == "" {
		return nil
	}
	err := s.repo.Delete(ctx, session.Id)
	if err != nil {
		return errors.WithMessage(err, "session repo delete")
	}
	*session = domain.Session{}
	return nil
}

func (s Sessions) Lifetime() time.Duration {
	return s.lifetime
}

func newSessionId() (string, error) {
	buf := make([]byte, sessionIdBytes)
	_, err := rand.Read(buf)
	if err != nil {
		return "", errors.WithMessage(err, "read random bytes")
	}
	return hex.EncodeToString(buf), nil
}

func (s Sessions) WithClock(now func() time.Time) Sessions {
	s.now = now
	return s
}
