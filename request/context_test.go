package request_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"secret-santa-service/domain"
	"secret-santa-service/request"
)

func TestBodyIsReadOnce(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(`{"email":"a@b.c"}`))
	ctx := request.NewContext(r, httptest.NewRecorder(), "/api/verify")

	first, err := ctx.Body()
	require.NoError(err)
	second, err := ctx.Body()
	require.NoError(err)
	require.Equal(first, second)

	rest, err := io.ReadAll(ctx.Request().Body)
	require.NoError(err)
	require.JSONEq(`{"email":"a@b.c"}`, string(rest))
}

func TestSession(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	ctx := request.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder(), "/")
	require.Nil(ctx.Session())
	require.False(ctx.Session().Authenticated())

	ctx.SetSession(&domain.Session{Id: "s", ParticipantId: "p", IsLoggedIn: true})
	require.True(ctx.Session().Authenticated())
}
