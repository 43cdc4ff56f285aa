package controller

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
	"secret-santa-service/httperrors"
	"secret-santa-service/request"
)

type GroupsService interface {
	Create(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error)
	Join(ctx context.Context, req domain.JoinGroupRequest) error
	Update(ctx context.Context, requesterId string, req domain.UpdateGroupRequest) error
	RemoveParticipant(ctx context.Context, requesterId string, groupId string, participantId string) error
	SendInvitation(ctx context.Context, requesterId string, groupId string, email string) error
	CheckEmail(ctx context.Context, email string) (domain.CheckEmailResponse, error)
}

type Groups struct {
	service GroupsService
}

func NewGroups(service GroupsService) Groups {
	return Groups{
		service: service,
	}
}

func (c Groups) Create(ctx *request.Context) error {
	req := domain.CreateGroupRequest{}
	err := readJson(ctx, &req)
	if err != nil {
		return err
	}

	group, err := c.service.Create(ctx.Context(), req)
	if err != nil {
		return domainError(errors.WithMessage(err, "create group"))
	}

	return writeJson(ctx, http.StatusOK, domain.CreateGroupResponse{
		Success:  true,
		GroupId:  group.Id,
		InviteId: group.InviteId,
		Email:    group.OwnerEmail,
	})
}

func (c Groups) Join(ctx *request.Context) error {
	req := domain.JoinGroupRequest{}
	err := readJson(ctx, &req)
	if err != nil {
		return err
	}

	err = c.service.Join(ctx.Context(), req)
	switch {
	case errors.Is(err, domain.ErrGroupNotFound):
		return httperrors.New(http.StatusNotFound, "Invalid invitation link", err)
	case err != nil:
		return domainError(errors.WithMessage(err, "join group"))
	}

	return writeJson(ctx, http.StatusOK, domain.SuccessResponse{Success: true, Message: "Verification email sent"})
}

func (c Groups) Update(ctx *request.Context) error {
	session, err := authenticated(ctx)
	if err != nil {
		return err
	}
	req := domain.UpdateGroupRequest{}
	err = readJson(ctx, &req)
	if err != nil {
		return err
	}

	err = c.service.Update(ctx.Context(), session.ParticipantId, req)
	if err != nil {
		return domainError(errors.WithMessage(err, "update group"))
	}

	return writeJson(ctx, http.StatusOK, domain.SuccessResponse{Success: true, Message: "Group updated successfully"})
}

func (c Groups) RemoveParticipant(ctx *request.Context) error {
	session, err := authenticated(ctx)
	if err != nil {
		return err
	}
	req := domain.RemoveParticipantRequest{}
	err = readJson(ctx, &req)
	if err != nil {
		return err
	}

	err = c.service.RemoveParticipant(ctx.Context(), session.ParticipantId, req.GroupId, req.ParticipantId)
	if err != nil {
		return domainError(errors.WithMessage(err, "remove participant"))
	}

	return writeJson(ctx, http.StatusOK, domain.SuccessResponse{Success: true, Message: "Participant removed successfully"})
}

func (c Groups) SendInvitation(ctx *request.Context) error {
	session, err := authenticated(ctx)
	if err != nil {
		return err
	}
	req := domain.SendInvitationRequest{}
	err = readJson(ctx, &req)
	if err != nil {
		return err
	}

	err = c.service.SendInvitation(ctx.Context(), session.ParticipantId, req.GroupId, req.RecipientEmail)
	if err != nil {
		return domainError(errors.WithMessage(err, "send invitation"))
	}

	return writeJson(ctx, http.StatusOK, domain.SuccessResponse{Success: true, Message: "Invitation sent successfully"})
}

func (c Groups) CheckEmail(ctx *request.Context) error {
	email := ctx.Request().URL.Query().Get("email")
	if email == "" {
		return httperrors.New(http.StatusBadRequest, "Email is required", errors.New("email query parameter is empty"))
	}

	result, err := c.service.CheckEmail(ctx.Context(), email)
	if err != nil {
		return errors.WithMessage(err, "check email")
	}
	return writeJson(ctx, http.StatusOK, result)
}
