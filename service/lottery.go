package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"secret-santa-service/domain"
	"secret-santa-service/lottery"
)

type LotteryRepo interface {
	GetById(ctx context.Context, id string) (*domain.Group, error)
	ParticipantById(ctx context.Context, id string) (*domain.Participant, error)
	Participants(ctx context.Context, groupId string) ([]domain.Participant, error)
	UpdateParticipant(
		ctx context.Context,
		id string,
		update func(participant *domain.Participant) error,
	) (*domain.Participant, error)
	SaveDraw(ctx context.Context, groupId string, assignments map[string]string) error
	ResetDraw(ctx context.Context, groupId string) error
}

type Drawer interface {
	Draw(participants []lottery.Participant) (lottery.Assignments, error)
}

type AssignmentSender interface {
	Assignment(ctx context.Context, group domain.Group, giver domain.Participant, recipient domain.Participant) error
}

type Lottery struct {
	repo   LotteryRepo
	engine Drawer
	sender AssignmentSender
	locks  KeyedMutex
	logger log.Logger
	now    func() time.Time
}

// NewLottery serializes draws per group with locks. Share locks with Groups so membership
// changes and draws of one group never overlap.
func NewLottery(repo LotteryRepo, engine Drawer, sender AssignmentSender, locks KeyedMutex, logger log.Logger) Lottery {
	return Lottery{
		repo:   repo,
		engine: engine,
		sender: sender,
		locks:  locks,
		logger: logger,
		now:    time.Now,
	}
}

// Run draws the group once, stores all assignments and notifies every giver.
func (s Lottery) Run(ctx context.Context, requesterId string, groupId string) (int, error) {
	unlock := s.locks.Lock(groupId)
	defer unlock()

	group, err := ownedGroup(ctx, s.repo, requesterId, groupId)
	if err != nil {
		return 0, err
	}
	if group.IsDrawn {
		return 0, domain.ErrAlreadyDrawn
	}

	participants, err := s.repo.Participants(ctx, groupId)
	if err != nil {
		return 0, errors.WithMessage(err, "get participants")
	}
	drawInput := make([]lottery.Participant, 0, len(participants))
	byId := make(map[string]domain.Participant, len(participants))
	for _, participant := range participants {
		drawInput = append(drawInput, lottery.Participant{Id: participant.Id, Name: participant.Name})
		byId[participant.Id] = participant
	}

	assignments, err := s.engine.Draw(drawInput)
	if err != nil {
		return 0, errors.WithMessage(err, "draw")
	}
	if !lottery.Validate(drawInput, assignments) {
		return 0, errors.New("draw produced invalid assignments")
	}

	err = s.repo.SaveDraw(ctx, groupId, assignments)
	if err != nil {
		return 0, errors.WithMessage(err, "save draw")
	}
	s.logger.Info(ctx, "lottery completed",
		log.String("groupId", groupId),
		log.Int("participants", len(participants)),
	)

	for _, participant := range participants {
		giver := byId[participant.Id]
		giver.Assign(assignments[giver.Id])
		s.notify(ctx, *group, giver, byId[giver.RecipientId])
	}
	return len(participants), nil
}

// Void clears every assignment so the group can be drawn again.
func (s Lottery) Void(ctx context.Context, requesterId string, groupId string) error {
	unlock := s.locks.Lock(groupId)
	defer unlock()

	group, err := ownedGroup(ctx, s.repo, requesterId, groupId)
	if err != nil {
		return err
	}
	if !group.IsDrawn {
		return domain.ErrNotDrawn
	}

	err = s.repo.ResetDraw(ctx, groupId)
	if err != nil {
		return errors.WithMessage(err, "reset draw")
	}
	s.logger.Info(ctx, "lottery voided", log.String("groupId", groupId))
	return nil
}

func (s Lottery) ResendAssignment(ctx context.Context, requesterId string, groupId string, participantId string) error {
	unlock := s.locks.Lock(groupId)
	defer unlock()

	group, err := ownedGroup(ctx, s.repo, requesterId, groupId)
	if err != nil {
		return err
	}
	if !group.IsDrawn {
		return domain.ErrNotDrawn
	}

	giver, err := s.repo.ParticipantById(ctx, participantId)
	if err != nil {
		return errors.WithMessage(err, "get participant")
	}
	if giver.GroupId != groupId {
		return domain.ErrParticipantNotFound
	}
	if !giver.Assigned() {
		return domain.ErrNoAssignment
	}
	recipient, err := s.repo.ParticipantById(ctx, giver.RecipientId)
	if err != nil {
		return errors.WithMessage(err, "get recipient")
	}

	s.notify(ctx, *group, *giver, *recipient)
	return nil
}

// notify records the delivery outcome on the giver, a failed send does not undo the draw.
// Callers hold the group lock.
func (s Lottery) notify(ctx context.Context, group domain.Group, giver domain.Participant, recipient domain.Participant) {
	status := domain.EmailSent
	err := s.sender.Assignment(ctx, group, giver, recipient)
	if err != nil {
		s.logger.Error(ctx, errors.WithMessage(err, "send assignment"), log.String("participantId", giver.Id))
		status = domain.EmailFailed
	}
	sentAt := s.now()

	_, err = s.repo.UpdateParticipant(ctx, giver.Id, func(participant *domain.Participant) error {
		participant.EmailStatus = status
		if status == domain.EmailSent {
			participant.AssignmentEmailSentAt = &sentAt
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, errors.WithMessage(err, "update email status"), log.String("participantId", giver.Id))
	}
}
