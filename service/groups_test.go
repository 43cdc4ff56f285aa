package service_test

import (
	"context"
	"testing"
	"time"

	"secret-santa-service/domain"
)

func TestGroupsUpdate(t *testing.T) {
	t.Parallel()
	e, require := newEnv(t)
	ctx := context.Background()

	group, ids := e.createGroup(t, 3)

	err := e.groups.Update(ctx, ids[0], domain.UpdateGroupRequest{
		GroupId: group.Id,
		Name:    " New Year ",
		Date:    "2024-12-31",
		Place:   "Roof",
		Budget:  "50 EUR",
	})
	require.NoError(err)

	stored, err := e.repo.GetById(ctx, group.Id)
	require.NoError(err)
	require.Equal("New Year", stored.Name)
	require.Equal(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), stored.Date)
	require.Equal("Roof", stored.Place)
	require.Equal("50 EUR", stored.Budget)
	require.Equal(group.InviteId, stored.InviteId)
	require.Equal(group.OwnerEmail, stored.OwnerEmail)

	err = e.groups.Update(ctx, ids[1], domain.UpdateGroupRequest{
		GroupId: group.Id, Name: "Mine", Date: "2024-12-31", Place: "x", Budget: "y",
	})
	require.ErrorIs(err, domain.ErrNotGroupOwner)

	err = e.groups.Update(ctx, ids[0], domain.UpdateGroupRequest{
		GroupId: group.Id, Name: "Bad", Date: "31.12.2024", Place: "x", Budget: "y",
	})
	fieldErr := domain.InvalidFieldError{}
	require.ErrorAs(err, &fieldErr)
	require.Equal("date", fieldErr.Field)
}

func TestGroupsRemoveParticipant(t *testing.T) {
	t.Parallel()
	e, require := newEnv(t)
	ctx := context.Background()

	group, ids := e.createGroup(t, 4)
	other, otherIds := e.createGroup(t, 2)

	require.ErrorIs(e.groups.RemoveParticipant(ctx, ids[1], group.Id, ids[2]), domain.ErrNotGroupOwner)
	require.ErrorIs(e.groups.RemoveParticipant(ctx, ids[0], group.Id, ids[0]), domain.ErrRemoveOwner)
	require.ErrorIs(e.groups.RemoveParticipant(ctx, ids[0], group.Id, otherIds[1]), domain.ErrParticipantNotInGroup)
	require.ErrorIs(e.groups.RemoveParticipant(ctx, ids[0], group.Id, "missing"), domain.ErrParticipantNotFound)

	require.NoError(e.groups.RemoveParticipant(ctx, ids[0], group.Id, ids[3]))
	participants, err := e.repo.Participants(ctx, group.Id)
	require.NoError(err)
	require.Len(participants, 3)
	_, err = e.repo.ParticipantById(ctx, ids[3])
	require.ErrorIs(err, domain.ErrParticipantNotFound)

	otherParticipants, err := e.repo.Participants(ctx, other.Id)
	require.NoError(err)
	require.Len(otherParticipants, 2)

	_, err = e.lottery.Run(ctx, ids[0], group.Id)
	require.NoError(err)
	require.ErrorIs(e.groups.RemoveParticipant(ctx, ids[0], group.Id, ids[2]), domain.ErrAlreadyDrawn)
}

func TestGroupsSendInvitation(t *testing.T) {
	t.Parallel()
	e, require := newEnv(t)
	ctx := context.Background()

	group, ids := e.createGroup(t, 2)

	require.NoError(e.groups.SendInvitation(ctx, ids[0], group.Id, " Friend@Example.com "))

	var invitation *domain.Notification
	for _, message := range e.outbox.Messages() {
		if message.Kind == domain.NotificationInvitation {
			invitation = &message
		}
	}
	require.NotNil(invitation)
	require.Equal("friend@example.com", invitation.To)
	require.Contains(invitation.Subject, group.Name)
	require.Contains(invitation.Body, "http://localhost:3000/join?inviteId="+group.InviteId)

	stored, err := e.repo.GetById(ctx, group.Id)
	require.NoError(err)
	require.True(stored.Invited("friend@example.com"))

	err = e.groups.SendInvitation(ctx, ids[0], group.Id, "friend@example.com")
	require.ErrorIs(err, domain.ErrInvitationAlreadySent)
	err = e.groups.SendInvitation(ctx, ids[1], group.Id, "another@example.com")
	require.ErrorIs(err, domain.ErrNotGroupOwner)
}

func TestGroupsCheckEmail(t *testing.T) {
	t.Parallel()
	e, require := newEnv(t)
	ctx := context.Background()

	e.createGroup(t, 2)

	result, err := e.groups.CheckEmail(ctx, "OWNER@example.com")
	require.NoError(err)
	require.Equal(domain.CheckEmailResponse{Exists: true, HasName: true}, result)

	result, err = e.groups.CheckEmail(ctx, "nobody@example.com")
	require.NoError(err)
	require.Equal(domain.CheckEmailResponse{}, result)
}
