package request

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"secret-santa-service/domain"
)

type Context struct {
	request        *http.Request
	responseWriter http.ResponseWriter

	endpoint string

	body     []byte
	bodyRead bool

	session    *domain.Session
	sessionErr error
}

func NewContext(request *http.Request, response http.ResponseWriter, endpoint string) *Context {
	return &Context{
		request:        request,
		responseWriter: response,
		endpoint:       endpoint,
	}
}

func (c *Context) Request() *http.Request {
	return c.request
}

func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.responseWriter
}

func (c *Context) SetResponseWriter(writer http.ResponseWriter) {
	c.responseWriter = writer
}

func (c *Context) Endpoint() string {
	return c.endpoint
}

// Body reads the request body once and keeps it for later readers.
func (c *Context) Body() ([]byte, error) {
	if c.bodyRead {
		return c.body, nil
	}
	if c.request.Body == nil {
		c.bodyRead = true
		return nil, nil
	}

	data, err := io.ReadAll(c.request.Body)
	if err != nil {
		return nil, errors.WithMessage(err, "read request body")
	}
	_ = c.request.Body.Close()

	c.body = data
	c.bodyRead = true
	c.request.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func (c *Context) Session() *domain.Session {
	return c.session
}

func (c *Context) SetSession(session *domain.Session) {
	c.session = session
	c.sessionErr = nil
}

// SessionError is set when the session store could not be read.
func (c *Context) SessionError() error {
	return c.sessionErr
}

func (c *Context) SetSessionError(err error) {
	c.session = nil
	c.sessionErr = err
}

func (c *Context) Context() context.Context {
	return c.request.Context()
}

func (c *Context) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}
