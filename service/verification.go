package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
)

const (
	DefaultCodeLifetime   = 30 * time.Minute
	DefaultResendCooldown = 30 * time.Second

	codeDigits = 6
)

type VerificationRepo interface {
	ParticipantByEmailAndCode(ctx context.Context, email string, code string) (*domain.Participant, error)
	LatestByEmail(ctx context.Context, email string) (*domain.Participant, error)
	UpdateParticipant(
		ctx context.Context,
		id string,
		update func(participant *domain.Participant) error,
	) (*domain.Participant, error)
}

type CodeSender interface {
	VerificationCode(ctx context.Context, participant domain.Participant, code string) error
}

type Verification struct {
	repo         VerificationRepo
	sender       CodeSender
	codeLifetime time.Duration
	cooldown     time.Duration
	now          func() time.Time
}

func NewVerification(
	repo VerificationRepo,
	sender CodeSender,
	codeLifetime time.Duration,
	cooldown time.Duration,
) Verification {
	return Verification{
		repo:         repo,
		sender:       sender,
		codeLifetime: codeLifetime,
		cooldown:     cooldown,
		now:          time.Now,
	}
}

// Prepare puts a fresh code on the participant without storing it.
func (s Verification) Prepare(participant *domain.Participant) (string, error) {
	code, err := newCode()
	if err != nil {
		return "", errors.WithMessage(err, "new verification code")
	}
	now := s.now()
	expiresAt := now.Add(s.codeLifetime)
	participant.VerificationCode = code
	participant.CodeExpiresAt = &expiresAt
	participant.CodeSentAt = &now
	return code, nil
}

func (s Verification) Send(ctx context.Context, participant domain.Participant, code string) error {
	err := s.sender.VerificationCode(ctx, participant, code)
	if err != nil {
		return errors.WithMessage(err, "send verification code")
	}
	return nil
}

func (s Verification) Resend(ctx context.Context, email string) error {
	latest, err := s.repo.LatestByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return errors.WithMessage(err, "get participant by email")
	}

	code := ""
	participant, err := s.repo.UpdateParticipant(ctx, latest.Id, func(participant *domain.Participant) error {
		remaining := s.remainingCooldown(participant.CodeSentAt)
		if remaining > 0 {
			return domain.ResendCooldownError{Remaining: remaining}
		}
		var err error
		code, err = s.Prepare(participant)
		return err
	})
	if err != nil {
		return errors.WithMessage(err, "update participant")
	}
	return s.Send(ctx, *participant, code)
}

// Verify consumes the code and returns its owner.
func (s Verification) Verify(ctx context.Context, email string, code string) (*domain.Participant, error) {
	code = strings.TrimSpace(code)
	found, err := s.repo.ParticipantByEmailAndCode(ctx, strings.ToLower(email), code)
	if errors.Is(err, domain.ErrParticipantNotFound) {
		return nil, domain.ErrInvalidCode
	}
	if err != nil {
		return nil, errors.WithMessage(err, "get participant by code")
	}

	participant, err := s.repo.UpdateParticipant(ctx, found.Id, func(participant *domain.Participant) error {
		if participant.VerificationCode == "" || participant.VerificationCode != code {
			return domain.ErrInvalidCode
		}
		if participant.CodeExpiresAt == nil || s.now().After(*participant.CodeExpiresAt) {
			return domain.ErrCodeExpired
		}
		participant.VerificationCode = ""
		participant.CodeExpiresAt = nil
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrInvalidCode), errors.Is(err, domain.ErrCodeExpired):
		return nil, err
	case err != nil:
		return nil, errors.WithMessage(err, "update participant")
	}
	return participant, nil
}

func (s Verification) remainingCooldown(sentAt *time.Time) int {
	if sentAt == nil {
		return 0
	}
	remaining := s.cooldown - s.now().Sub(*sentAt)
	if remaining <= 0 {
		return 0
	}
	seconds := int(remaining / time.Second)
	if remaining%time.Second != 0 {
		seconds++
	}
	return seconds
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func (s Verification) WithClock(now func() time.Time) Verification {
	s.now = now
	return s
}
