package domain

import (
	"time"
)

type NotificationKind string

const (
	NotificationVerificationCode NotificationKind = "verification_code"
	NotificationAssignment       NotificationKind = "assignment"
	NotificationInvitation       NotificationKind = "invitation"
)

type Notification struct {
	Kind          NotificationKind
	ParticipantId string
	To            string
	Subject       string
	Body          string
	CreatedAt     time.Time
}
