package controller

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
	"secret-santa-service/httperrors"
	"secret-santa-service/request"
)

type CsrfIssuer interface {
	Issue(session *domain.Session) (string, bool, error)
}

type SessionSaver interface {
	Save(ctx context.Context, session *domain.Session) error
	Renew(ctx context.Context, session *domain.Session) error
	Destroy(ctx context.Context, session *domain.Session) error
}

type Csrf struct {
	issuer   CsrfIssuer
	sessions SessionSaver
	cookie   request.SessionCookie
}

func NewCsrf(issuer CsrfIssuer, sessions SessionSaver, cookie request.SessionCookie) Csrf {
	return Csrf{
		issuer:   issuer,
		sessions: sessions,
		cookie:   cookie,
	}
}

// Token returns the CSRF token of the session, creating and persisting it on the first call.
func (c Csrf) Token(ctx *request.Context) error {
	session, err := session(ctx)
	if err != nil {
		return httperrors.New(http.StatusInternalServerError, "Failed to get CSRF token", err)
	}

	token, changed, err := c.issuer.Issue(session)
	if err != nil {
		return httperrors.New(http.StatusInternalServerError, "Failed to get CSRF token", err)
	}
	if changed {
		err = c.sessions.Save(ctx.Context(), session)
		if err != nil {
			return httperrors.New(http.StatusInternalServerError, "Failed to get CSRF token", errors.WithMessage(err, "save session"))
		}
		c.cookie.Write(ctx.ResponseWriter(), session)
	}

	ctx.ResponseWriter().Header().Set("Cache-Control", "no-store")
	return writeJson(ctx, http.StatusOK, domain.CsrfTokenResponse{Token: token})
}
