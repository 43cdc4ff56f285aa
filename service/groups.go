package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"secret-santa-service/domain"
)

type GroupsRepo interface {
	Create(ctx context.Context, group domain.Group, owner domain.Participant) error
	GetById(ctx context.Context, id string) (*domain.Group, error)
	GetByInviteId(ctx context.Context, inviteId string) (*domain.Group, error)
	ParticipantById(ctx context.Context, id string) (*domain.Participant, error)
	ParticipantByEmail(ctx context.Context, groupId string, email string) (*domain.Participant, error)
	FindByEmail(ctx context.Context, email string) (*domain.Participant, error)
	InsertParticipant(ctx context.Context, participant domain.Participant) error
	UpdateParticipant(
		ctx context.Context,
		id string,
		update func(participant *domain.Participant) error,
	) (*domain.Participant, error)
	RemoveParticipant(ctx context.Context, groupId string, participantId string) error
	UpdateGroup(ctx context.Context, id string, update func(group *domain.Group) error) (*domain.Group, error)
}

type CodeIssuer interface {
	Prepare(participant *domain.Participant) (string, error)
	Send(ctx context.Context, participant domain.Participant, code string) error
}

type InvitationSender interface {
	Invitation(ctx context.Context, group domain.Group, email string, link string) error
}

type Groups struct {
	repo        GroupsRepo
	codes       CodeIssuer
	invitations InvitationSender
	locks       KeyedMutex
	joinUrl     string
	now         func() time.Time
	nextId      func() string
}

func NewGroups(
	repo GroupsRepo,
	codes CodeIssuer,
	invitations InvitationSender,
	locks KeyedMutex,
	joinUrl string,
) Groups {
	return Groups{
		repo:        repo,
		codes:       codes,
		invitations: invitations,
		locks:       locks,
		joinUrl:     joinUrl,
		now:         time.Now,
		nextId:      uuid.NewString,
	}
}

// Create stores a new group with its owner as the first participant and sends the owner a code.
func (s Groups) Create(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	group := domain.Group{
		Id:         s.nextId(),
		Name:       strings.TrimSpace(req.Name),
		Budget:     strings.TrimSpace(req.Budget),
		Date:       date,
		Place:      strings.TrimSpace(req.Place),
		OwnerEmail: normalizeEmail(req.OwnerEmail),
		InviteId:   strings.ReplaceAll(s.nextId(), "-", ""),
		CreatedAt:  s.now(),
	}
	owner := s.newParticipant(group.Id, req.OwnerName, group.OwnerEmail)
	code, err := s.codes.Prepare(&owner)
	if err != nil {
		return nil, errors.WithMessage(err, "prepare owner code")
	}

	err = s.repo.Create(ctx, group, owner)
	if err != nil {
		return nil, errors.WithMessage(err, "create group")
	}

	err = s.codes.Send(ctx, owner, code)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Join adds a participant by invite. A known email only receives a new code.
func (s Groups) Join(ctx context.Context, req domain.JoinGroupRequest) error {
	group, err := s.repo.GetByInviteId(ctx, strings.TrimSpace(req.InviteId))
	if err != nil {
		return errors.WithMessage(err, "get group by invite")
	}

	unlock := s.locks.Lock(group.Id)
	defer unlock()

	email := normalizeEmail(req.Email)
	known, err := s.repo.ParticipantByEmail(ctx, group.Id, email)
	switch {
	case err == nil:
		code := ""
		participant, err := s.repo.UpdateParticipant(ctx, known.Id, func(participant *domain.Participant) error {
			var err error
			code, err = s.codes.Prepare(participant)
			return err
		})
		if err != nil {
			return errors.WithMessage(err, "update participant")
		}
		return s.codes.Send(ctx, *participant, code)
	case !errors.Is(err, domain.ErrParticipantNotFound):
		return errors.WithMessage(err, "get participant by email")
	}

	newcomer := s.newParticipant(group.Id, req.Name, email)
	code, err := s.codes.Prepare(&newcomer)
	if err != nil {
		return errors.WithMessage(err, "prepare code")
	}
	err = s.repo.InsertParticipant(ctx, newcomer)
	if err != nil {
		return errors.WithMessage(err, "insert participant")
	}
	return s.codes.Send(ctx, newcomer, code)
}

// Update changes the event details. Only the owner may do it.
func (s Groups) Update(ctx context.Context, requesterId string, req domain.UpdateGroupRequest) error {
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}
	_, err = ownedGroup(ctx, s.repo, requesterId, req.GroupId)
	if err != nil {
		return err
	}

	_, err = s.repo.UpdateGroup(ctx, req.GroupId, func(group *domain.Group) error {
		group.Name = strings.TrimSpace(req.Name)
		group.Date = date
		group.Place = strings.TrimSpace(req.Place)
		group.Budget = strings.TrimSpace(req.Budget)
		return nil
	})
	if err != nil {
		return errors.WithMessage(err, "update group")
	}
	return nil
}

// RemoveParticipant deletes a member before the draw. The owner cannot be removed.
func (s Groups) RemoveParticipant(ctx context.Context, requesterId string, groupId string, participantId string) error {
	unlock := s.locks.Lock(groupId)
	defer unlock()

	_, err := ownedGroup(ctx, s.repo, requesterId, groupId)
	if err != nil {
		return err
	}
	err = s.repo.RemoveParticipant(ctx, groupId, participantId)
	if err != nil {
		return errors.WithMessage(err, "remove participant")
	}
	return nil
}

// SendInvitation emails the join link once per address.
func (s Groups) SendInvitation(ctx context.Context, requesterId string, groupId string, email string) error {
	unlock := s.locks.Lock(groupId)
	defer unlock()

	group, err := ownedGroup(ctx, s.repo, requesterId, groupId)
	if err != nil {
		return err
	}
	email = normalizeEmail(email)
	if group.Invited(email) {
		return domain.ErrInvitationAlreadySent
	}

	err = s.invitations.Invitation(ctx, *group, email, s.inviteLink(group.InviteId))
	if err != nil {
		return errors.WithMessage(err, "send invitation")
	}

	_, err = s.repo.UpdateGroup(ctx, groupId, func(group *domain.Group) error {
		group.InvitationsSent = append(group.InvitationsSent, domain.Invitation{Email: email, SentAt: s.now()})
		return nil
	})
	if err != nil {
		return errors.WithMessage(err, "record invitation")
	}
	return nil
}

// CheckEmail tells whether the email belongs to a participant and whether a name is known.
func (s Groups) CheckEmail(ctx context.Context, email string) (domain.CheckEmailResponse, error) {
	participant, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case errors.Is(err, domain.ErrParticipantNotFound):
		return domain.CheckEmailResponse{}, nil
	case err != nil:
		return domain.CheckEmailResponse{}, errors.WithMessage(err, "find participant by email")
	}
	return domain.CheckEmailResponse{
		Exists:  true,
		HasName: strings.TrimSpace(participant.Name) != "",
	}, nil
}

func (s Groups) inviteLink(inviteId string) string {
	link, err := url.Parse(s.joinUrl)
	if err != nil || s.joinUrl == "" {
		return "?inviteId=" + url.QueryEscape(inviteId)
	}
	query := link.Query()
	query.Set("inviteId", inviteId)
	link.RawQuery = query.Encode()
	return link.String()
}

func (s Groups) newParticipant(groupId string, name string, email string) domain.Participant {
	return domain.Participant{
		Id:               s.nextId(),
		GroupId:          groupId,
		Name:             strings.TrimSpace(name),
		Email:            email,
		AssignmentStatus: domain.AssignmentUnassigned,
		EmailStatus:      domain.EmailPending,
	}
}

type ownerRepo interface {
	GetById(ctx context.Context, id string) (*domain.Group, error)
	ParticipantById(ctx context.Context, id string) (*domain.Participant, error)
}

func ownedGroup(ctx context.Context, repo ownerRepo, requesterId string, groupId string) (*domain.Group, error) {
	requester, err := repo.ParticipantById(ctx, requesterId)
	if errors.Is(err, domain.ErrParticipantNotFound) {
		return nil, domain.ErrUnknownRequester
	}
	if err != nil {
		return nil, errors.WithMessage(err, "get requester")
	}
	group, err := repo.GetById(ctx, groupId)
	if err != nil {
		return nil, errors.WithMessage(err, "get group")
	}
	if requester.Email != group.OwnerEmail {
		return nil, domain.ErrNotGroupOwner
	}
	return group, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		date, err := time.Parse(layout, value)
		if err == nil {
			return date, nil
		}
	}
	return time.Time{}, domain.InvalidFieldError{Field: "date", Message: "must be a date in YYYY-MM-DD format"}
}
