package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/txix-open/isp-kit/log"
	"secret-santa-service/domain"
)

// Outbox keeps composed notifications until a delivery provider picks them up.
type Outbox struct {
	lock     *sync.Mutex
	messages []domain.Notification
}

func NewOutbox() *Outbox {
	return &Outbox{
		lock: &sync.Mutex{},
	}
}

func (o *Outbox) Put(message domain.Notification) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.messages = append(o.messages, message)
}

func (o *Outbox) Messages() []domain.Notification {
	o.lock.Lock()
	defer o.lock.Unlock()
	result := make([]domain.Notification, len(o.messages))
	copy(result, o.messages)
	return result
}

// Last returns the newest message of the kind sent to the participant.
func (o *Outbox) Last(participantId string, kind domain.NotificationKind) (domain.Notification, bool) {
	o.lock.Lock()
	defer o.lock.Unlock()
	for i := len(o.messages) - 1; i >= 0; i-- {
		message := o.messages[i]
		if message.ParticipantId == participantId && message.Kind == kind {
			return message, true
		}
	}
	return domain.Notification{}, false
}

type Notifications struct {
	outbox *Outbox
	logger log.Logger
	now    func() time.Time
}

func NewNotifications(outbox *Outbox, logger log.Logger) Notifications {
	return Notifications{
		outbox: outbox,
		logger: logger,
		now:    time.Now,
	}
}

func (s Notifications) VerificationCode(ctx context.Context, participant domain.Participant, code string) error {
	s.put(ctx, domain.Notification{
		Kind:          domain.NotificationVerificationCode,
		ParticipantId: participant.Id,
		To:            participant.Email,
		Subject:       "Your verification code",
		Body:          fmt.Sprintf("Hi %s, your verification code is %s. It expires in 30 minutes.", participant.Name, code),
	})
	return nil
}

func (s Notifications) Assignment(
	ctx context.Context,
	group domain.Group,
	giver domain.Participant,
	recipient domain.Participant,
) error {
	s.put(ctx, domain.Notification{
		Kind:          domain.NotificationAssignment,
		ParticipantId: giver.Id,
		To:            giver.Email,
		Subject:       fmt.Sprintf("Your Secret Santa for %s", group.Name),
		Body: fmt.Sprintf(
			"Hi %s, you are the Secret Santa of %s. Budget: %s. Place: %s. Date: %s.",
			giver.Name, recipient.Name, group.Budget, group.Place, group.Date.Format(time.DateOnly),
		),
	})
	return nil
}

// Invitation has no participant yet, the message is addressed by email only.
func (s Notifications) Invitation(ctx context.Context, group domain.Group, email string, link string) error {
	s.put(ctx, domain.Notification{
		Kind:    domain.NotificationInvitation,
		To:      email,
		Subject: fmt.Sprintf("You're invited to %s!", group.Name),
		Body: fmt.Sprintf(
			"You've been invited to join %s. Date: %s. Place: %s. Budget: %s. Join here: %s",
			group.Name, group.Date.Format(time.DateOnly), group.Place, group.Budget, link,
		),
	})
	return nil
}

func (s Notifications) put(ctx context.Context, message domain.Notification) {
	message.CreatedAt = s.now()
	s.outbox.Put(message)
	s.logger.Info(ctx, "notification queued",
		log.String("kind", string(message.Kind)),
		log.String("participantId", message.ParticipantId),
	)
}
