package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"secret-santa-service/csrf"
	"secret-santa-service/domain"
)

const (
	DefaultCsrfExemptPrefix = "/api/webhooks/"
)

type Csrf struct {
	exemptPrefixes []string
}

func NewCsrf(exemptPrefixes []string) Csrf {
	if len(exemptPrefixes) == 0 {
		exemptPrefixes = []string{DefaultCsrfExemptPrefix}
	}
	return Csrf{
		exemptPrefixes: exemptPrefixes,
	}
}

// Required reports whether the request changes state and is not exempt.
func (s Csrf) Required(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	for _, prefix := range s.exemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return false
		}
	}
	return true
}

// Validate checks the header token against the token stored in session.
// A nil session means it could not be loaded and is reported as a plain error.
func (s Csrf) Validate(ctx context.Context, r *http.Request, session *domain.Session) error {
	if !s.Required(r) {
		return nil
	}
	if session == nil {
		return errors.New("session is unavailable")
	}

	header := r.Header.Get(csrf.HeaderName)
	if session.CsrfToken == "" || header == "" {
		return domain.ErrCsrfTokenMissing
	}
	if !csrf.Equal(session.CsrfToken, header) {
		return domain.ErrCsrfTokenMismatch
	}
	return nil
}

// Issue returns the session token, generating it on first use.
// changed is true if the session has to be saved.
func (s Csrf) Issue(session *domain.Session) (token string, changed bool, err error) {
	if session.CsrfToken != "" {
		return session.CsrfToken, false, nil
	}
	err = s.Rotate(session)
	if err != nil {
		return "", false, err
	}
	return session.CsrfToken, true, nil
}

func (s Csrf) Rotate(session *domain.Session) error {
	token, err := csrf.Generate()
	if err != nil {
		return errors.WithMessage(err, "generate csrf token")
	}
	session.CsrfToken = token
	return nil
}
