package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"secret-santa-service/csrf"
	"secret-santa-service/domain"
)

type DeliveriesRepo interface {
	UpdateParticipant(
		ctx context.Context,
		id string,
		update func(participant *domain.Participant) error,
	) (*domain.Participant, error)
}

// Deliveries applies email delivery reports pushed by the mail provider.
type Deliveries struct {
	repo   DeliveriesRepo
	secret string
	logger log.Logger
}

func NewDeliveries(repo DeliveriesRepo, secret string, logger log.Logger) Deliveries {
	return Deliveries{
		repo:   repo,
		secret: secret,
		logger: logger,
	}
}

func (s Deliveries) Authorize(authorization string) error {
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if s.secret == "" || !ok || !csrf.Equal(s.secret, token) {
		return domain.ErrUnauthorizedWebhook
	}
	return nil
}

// Apply updates statuses and returns how many reports were processed. Unknown participants are skipped.
func (s Deliveries) Apply(ctx context.Context, notifications []domain.DeliveryNotification) (int, error) {
	processed := 0
	for _, notification := range notifications {
		if !notification.Status.Valid() {
			s.logger.Warn(ctx, "skip delivery report with unknown status", log.String("status", string(notification.Status)))
			continue
		}

		_, err := s.repo.UpdateParticipant(ctx, notification.ParticipantId, func(participant *domain.Participant) error {
			participant.EmailStatus = notification.Status
			return nil
		})
		if errors.Is(err, domain.ErrParticipantNotFound) {
			s.logger.Warn(ctx, "skip delivery report for unknown participant", log.String("participantId", notification.ParticipantId))
			continue
		}
		if err != nil {
			return processed, errors.WithMessage(err, "update participant")
		}
		processed++
	}
	return processed, nil
}
