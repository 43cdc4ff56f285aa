package domain

import (
	"time"
)

type Session struct {
	Id            string
	ParticipantId string
	IsLoggedIn    bool
	CsrfToken     string
	ExpiresAt     time.Time
}

func (s *Session) Login(participantId string) {
	s.ParticipantId = participantId
	s.IsLoggedIn = true
}

func (s *Session) Authenticated() bool {
	return s != nil && s.IsLoggedIn && s.ParticipantId != ""
}
