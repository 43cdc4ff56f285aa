package controller

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
	"secret-santa-service/request"
)

type LotteryService interface {
	Run(ctx context.Context, requesterId string, groupId string) (int, error)
	Void(ctx context.Context, requesterId string, groupId string) error
	ResendAssignment(ctx context.Context, requesterId string, groupId string, participantId string) error
}

type Lottery struct {
	service LotteryService
}

func NewLottery(service LotteryService) Lottery {
	return Lottery{
		service: service,
	}
}

func (c Lottery) Run(ctx *request.Context) error {
	session, err := authenticated(ctx)
	if err != nil {
		return err
	}
	req := domain.GroupActionRequest{}
	err = readJson(ctx, &req)
	if err != nil {
		return err
	}

	count, err := c.service.Run(ctx.Context(), session.ParticipantId, req.GroupId)
	if err != nil {
		return domainError(errors.WithMessage(err, "run lottery"))
	}

	return writeJson(ctx, http.StatusOK, domain.RunLotteryResponse{
		Success:           true,
		Message:           "Lottery completed and emails sent",
		ParticipantsCount: count,
	})
}

func (c Lottery) Void(ctx *request.Context) error {
	session, err := authenticated(ctx)
	if err != nil {
		return err
	}
	req := domain.GroupActionRequest{}
	err = readJson(ctx, &req)
	if err != nil {
		return err
	}

	err = c.service.Void(ctx.Context(), session.ParticipantId, req.GroupId)
	if err != nil {
		return domainError(errors.WithMessage(err, "void lottery"))
	}

	return writeJson(ctx, http.StatusOK, domain.SuccessResponse{
		Success: true,
		Message: "Lottery has been voided successfully",
	})
}

func (c Lottery) ResendAssignment(ctx *request.Context) error {
	session, err := authenticated(ctx)
	if err != nil {
		return err
	}
	req := domain.ResendAssignmentRequest{}
	err = readJson(ctx, &req)
	if err != nil {
		return err
	}

	err = c.service.ResendAssignment(ctx.Context(), session.ParticipantId, req.GroupId, req.ParticipantId)
	if err != nil {
		return domainError(errors.WithMessage(err, "resend assignment"))
	}

	return writeJson(ctx, http.StatusOK, domain.SuccessResponse{
		Success: true,
		Message: "Assignment email sent",
	})
}
