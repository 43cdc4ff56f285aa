package httperrors

import (
	"bytes"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/txix-open/isp-kit/json"
	"secret-santa-service/domain"
)

const (
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeCsrfValidationFailed = "CSRF_VALIDATION_FAILED"
	CodeCsrfValidationError  = "CSRF_VALIDATION_ERROR"
)

type HttpError struct {
	statusCode int
	body       body
	headers    map[string]string
	err        error
}

func New(statusCode int, userMessage string, internalError error) HttpError {
	return HttpError{
		statusCode: statusCode,
		body:       body{{name: "error", value: userMessage}},
		err:        internalError,
	}
}

func (e HttpError) Error() string {
	if e.err == nil {
		return http.StatusText(e.statusCode)
	}
	return e.err.Error()
}

func (e HttpError) Unwrap() error {
	return e.err
}

func (e HttpError) StatusCode() int {
	return e.statusCode
}

func (e HttpError) Code() string {
	for _, f := range e.body {
		if f.name == "code" {
			code, _ := f.value.(string)
			return code
		}
	}
	return ""
}

func (e HttpError) WithCode(code string) HttpError {
	return e.WithField("code", code)
}

func (e HttpError) WithDetails(details map[string]string) HttpError {
	return e.WithField("details", details)
}

func (e HttpError) WithField(name string, value any) HttpError {
	body := slices.Clone(e.body)
	i := slices.IndexFunc(body, func(f field) bool { return f.name == name })
	if i >= 0 {
		body[i].value = value
	} else {
		body = append(body, field{name: name, value: value})
	}
	e.body = body
	return e
}

func (e HttpError) WithHeader(name string, value string) HttpError {
	headers := maps.Clone(e.headers)
	if headers == nil {
		headers = make(map[string]string)
	}
	headers[name] = value
	e.headers = headers
	return e
}

func (e HttpError) WriteError(w http.ResponseWriter) error {
	for name, value := range e.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.statusCode)
	return json.NewEncoder(w).Encode(e.body)
}

type field struct {
	name  string
	value any
}

// body keeps fields in insertion order when encoded.
type body []field

func (b body) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBufferString("{")
	for i, f := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func TooManyRequests(result domain.RateLimitResult, internalError error) HttpError {
	retryAfter := result.RetryAfterSeconds()
	return New(http.StatusTooManyRequests, "Too many requests", internalError).
		WithCode(CodeRateLimitExceeded).
		WithField("retryAfter", retryAfter).
		WithHeader("X-RateLimit-Limit", strconv.Itoa(result.Limit)).
		WithHeader("X-RateLimit-Remaining", "0").
		WithHeader("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.UnixMilli(), 10)).
		WithHeader("Retry-After", strconv.FormatInt(retryAfter, 10))
}

func InvalidCsrfToken(internalError error) HttpError {
	return New(http.StatusForbidden, "Invalid CSRF token", internalError).
		WithCode(CodeCsrfValidationFailed)
}

func CsrfValidationError(internalError error) HttpError {
	return New(http.StatusInternalServerError, "CSRF validation failed", internalError).
		WithCode(CodeCsrfValidationError)
}

func InvalidInput(details map[string]string, internalError error) HttpError {
	return New(http.StatusBadRequest, "Invalid input", internalError).
		WithDetails(details)
}
