package controller

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
	"secret-santa-service/httperrors"
	"secret-santa-service/request"
)

type VerificationService interface {
	Verify(ctx context.Context, email string, code string) (*domain.Participant, error)
	Resend(ctx context.Context, email string) error
}

type TokenRotator interface {
	Rotate(session *domain.Session) error
}

type Auth struct {
	verification  VerificationService
	sessions      SessionSaver
	rotator       TokenRotator
	cookie        request.SessionCookie
	rotateOnLogin bool
}

func NewAuth(
	verification VerificationService,
	sessions SessionSaver,
	rotator TokenRotator,
	cookie request.SessionCookie,
	rotateOnLogin bool,
) Auth {
	return Auth{
		verification:  verification,
		sessions:      sessions,
		rotator:       rotator,
		cookie:        cookie,
		rotateOnLogin: rotateOnLogin,
	}
}

func (c Auth) Verify(ctx *request.Context) error {
	req := domain.VerifyRequest{}
	err := readJson(ctx, &req)
	if err != nil {
		return err
	}

	session, err := session(ctx)
	if err != nil {
		return errors.WithMessage(err, "verify")
	}

	participant, err := c.verification.Verify(ctx.Context(), req.Email, req.Code)
	if err != nil {
		return domainError(errors.WithMessage(err, "verify code"))
	}

	err = c.sessions.Renew(ctx.Context(), session)
	if err != nil {
		return errors.WithMessage(err, "renew session")
	}
	session.Login(participant.Id)
	if c.rotateOnLogin {
		err = c.rotator.Rotate(session)
		if err != nil {
			return errors.WithMessage(err, "rotate csrf token")
		}
	}
	err = c.sessions.Save(ctx.Context(), session)
	if err != nil {
		return errors.WithMessage(err, "save session")
	}
	c.cookie.Write(ctx.ResponseWriter(), session)

	return writeJson(ctx, http.StatusOK, domain.VerifyResponse{
		Success:       true,
		ParticipantId: participant.Id,
		GroupId:       participant.GroupId,
	})
}

func (c Auth) ResendCode(ctx *request.Context) error {
	req := domain.ResendCodeRequest{}
	err := readJson(ctx, &req)
	if err != nil {
		return err
	}

	err = c.verification.Resend(ctx.Context(), req.Email)
	switch {
	case errors.Is(err, domain.ErrParticipantNotFound):
		return httperrors.New(http.StatusNotFound, "Email not found", err)
	case err != nil:
		return domainError(errors.WithMessage(err, "resend code"))
	}

	return writeJson(ctx, http.StatusOK, domain.SuccessResponse{Success: true, Message: "Verification code sent"})
}

func (c Auth) SignOut(ctx *request.Context) error {
	session, err := session(ctx)
	if err != nil {
		return errors.WithMessage(err, "sign out")
	}

	err = c.sessions.Destroy(ctx.Context(), session)
	if err != nil {
		return errors.WithMessage(err, "destroy session")
	}
	c.cookie.Clear(ctx.ResponseWriter())

	return writeJson(ctx, http.StatusOK, domain.SuccessResponse{Success: true})
}
