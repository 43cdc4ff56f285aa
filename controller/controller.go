package controller

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/json"
	"github.com/txix-open/isp-kit/validator"
	"secret-santa-service/domain"
	"secret-santa-service/httperrors"
	"secret-santa-service/lottery"
	"secret-santa-service/request"
)

func readJson(ctx *request.Context, value any) error {
	body, err := ctx.Body()
	if err != nil {
		return httperrors.New(http.StatusBadRequest, "Invalid request body", errors.WithMessage(err, "read body"))
	}
	err = json.Unmarshal(body, value)
	if err != nil {
		return httperrors.InvalidInput(
			map[string]string{"body": "must be a valid JSON object"},
			errors.WithMessage(err, "json unmarshal request"),
		)
	}

	ok, details := validator.Default.Validate(value)
	if !ok {
		return httperrors.InvalidInput(details, errors.Errorf("invalid request: %v", details))
	}
	return nil
}

func writeJson(ctx *request.Context, status int, value any) error {
	w := ctx.ResponseWriter()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		return errors.WithMessage(err, "write response")
	}
	return nil
}

func session(ctx *request.Context) (*domain.Session, error) {
	err := ctx.SessionError()
	if err != nil {
		return nil, err
	}
	session := ctx.Session()
	if session == nil {
		return nil, errors.New("session is not attached")
	}
	return session, nil
}

func authenticated(ctx *request.Context) (*domain.Session, error) {
	session, err := session(ctx)
	if err != nil {
		return nil, err
	}
	if !session.Authenticated() {
		return nil, httperrors.New(http.StatusUnauthorized, "Unauthorized", errors.New("session is not logged in"))
	}
	return session, nil
}

// domainError maps business errors to responses, anything else becomes a 500.
func domainError(err error) error {
	var fieldErr domain.InvalidFieldError
	var cooldown domain.ResendCooldownError
	switch {
	case errors.As(err, &fieldErr):
		return httperrors.InvalidInput(map[string]string{fieldErr.Field: fieldErr.Message}, err)
	case errors.As(err, &cooldown):
		return httperrors.New(http.StatusTooManyRequests, "Please wait before requesting a new code", err).
			WithField("remainingSeconds", cooldown.Remaining)
	case errors.Is(err, domain.ErrGroupNotFound):
		return httperrors.New(http.StatusNotFound, "Group not found", err)
	case errors.Is(err, domain.ErrParticipantNotFound):
		return httperrors.New(http.StatusNotFound, "Participant not found", err)
	case errors.Is(err, domain.ErrNotGroupOwner):
		return httperrors.New(http.StatusForbidden, "Only the group owner can perform this action", err)
	case errors.Is(err, domain.ErrAlreadyDrawn),
		errors.Is(err, domain.ErrNotDrawn),
		errors.Is(err, domain.ErrNoAssignment),
		errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrParticipantNotInGroup),
		errors.Is(err, domain.ErrRemoveOwner),
		errors.Is(err, domain.ErrInvitationAlreadySent):
		return httperrors.New(http.StatusBadRequest, cause(err).Error(), err)
	case errors.Is(err, domain.ErrMembersChanged):
		return httperrors.New(http.StatusConflict, "Group members changed, please try again", err)
	case errors.Is(err, lottery.ErrInsufficientParticipants):
		return httperrors.New(http.StatusBadRequest, "At least 3 participants are required to run the lottery", err)
	case errors.Is(err, domain.ErrUnauthorizedWebhook), errors.Is(err, domain.ErrUnknownRequester):
		return httperrors.New(http.StatusUnauthorized, "Unauthorized", err)
	default:
		return err
	}
}

// cause returns the first known sentinel of err for use as a user message.
func cause(err error) error {
	for _, sentinel := range []error{
		domain.ErrAlreadyDrawn,
		domain.ErrNotDrawn,
		domain.ErrNoAssignment,
		domain.ErrInvalidCode,
		domain.ErrCodeExpired,
		domain.ErrParticipantNotInGroup,
		domain.ErrRemoveOwner,
		domain.ErrInvitationAlreadySent,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}
