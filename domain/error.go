package domain

import (
	"github.com/pkg/errors"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already exists")

	ErrNotGroupOwner       = errors.New("not a group owner")
	ErrAlreadyDrawn        = errors.New("lottery has already been run for this group")
	ErrNotDrawn            = errors.New("lottery has not been run yet")
	ErrNoAssignment        = errors.New("participant does not have an assignment")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrCodeExpired         = errors.New("verification code has expired")
	ErrUnauthorizedWebhook = errors.New("unauthorized webhook call")
	ErrUnknownRequester    = errors.New("requester is not a known participant")

	ErrParticipantNotInGroup = errors.New("participant does not belong to this group")
	ErrRemoveOwner           = errors.New("cannot remove the group owner")
	ErrInvitationAlreadySent = errors.New("invitation already sent to this email")
	ErrMembersChanged        = errors.New("group members changed during the draw")
)

// ResendCooldownError is returned when a verification code is requested again too early.
type ResendCooldownError struct {
	Remaining int
}

func (e ResendCooldownError) Error() string {
	return "resend cooldown has not passed yet"
}

var (
	ErrCsrfTokenMissing  = errors.New("csrf token is missing")
	ErrCsrfTokenMismatch = errors.New("csrf token mismatch")
)

// InvalidFieldError reports a request field that passed decoding but has an unusable value.
type InvalidFieldError struct {
	Field   string
	Message string
}

func (e InvalidFieldError) Error() string {
	return e.Field + ": " + e.Message
}
