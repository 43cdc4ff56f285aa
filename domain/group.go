package domain

import (
	"time"
)

type AssignmentStatus string

const (
	AssignmentUnassigned AssignmentStatus = "unassigned"
	AssignmentAssigned   AssignmentStatus = "assigned"
)

type EmailStatus string

const (
	EmailPending   EmailStatus = "pending"
	EmailSent      EmailStatus = "sent"
	EmailDelivered EmailStatus = "delivered"
	EmailBounced   EmailStatus = "bounced"
	EmailFailed    EmailStatus = "failed"
)

func (s EmailStatus) Valid() bool {
	switch s {
	case EmailPending, EmailSent, EmailDelivered, EmailBounced, EmailFailed:
		return true
	default:
		return false
	}
}

type Group struct {
	Id         string
	Name       string
	Budget     string
	Date       time.Time
	Place      string
	OwnerEmail string
	InviteId   string
	IsDrawn    bool
	CreatedAt  time.Time

	InvitationsSent []Invitation
}

type Invitation struct {
	Email  string
	SentAt time.Time
}

func (g Group) Invited(email string) bool {
	for _, invitation := range g.InvitationsSent {
		if invitation.Email == email {
			return true
		}
	}
	return false
}

type Participant struct {
	Id      string
	GroupId string
	Name    string
	Email   string

	RecipientId           string
	AssignmentStatus      AssignmentStatus
	EmailStatus           EmailStatus
	AssignmentEmailSentAt *time.Time

	VerificationCode string
	CodeExpiresAt    *time.Time
	CodeSentAt       *time.Time
}

func (p Participant) Assigned() bool {
	return p.AssignmentStatus == AssignmentAssigned && p.RecipientId != ""
}

// Assign moves the participant into the assigned state.
func (p *Participant) Assign(recipientId string) {
	p.RecipientId = recipientId
	p.AssignmentStatus = AssignmentAssigned
}

// ResetAssignment returns the participant to the initial assignment state.
func (p *Participant) ResetAssignment() {
	p.RecipientId = ""
	p.AssignmentStatus = AssignmentUnassigned
	p.EmailStatus = EmailPending
	p.AssignmentEmailSentAt = nil
}
