package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/json"
)

var (
	clientIpHeaders = []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP"} // nolint:gochecknoglobals
)

// ClientIp returns the first address of the proxy headers, checked in a fixed order.
func ClientIp(r *http.Request) (string, bool) {
	for _, header := range clientIpHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ",")
		first = strings.TrimSpace(first)
		if first != "" {
			return first, true
		}
	}
	return "", false
}

func Ip(req Request) (string, bool, error) {
	ip, ok := ClientIp(req.Request())
	if !ok {
		return "", false, nil
	}
	return "ip:" + ip, true, nil
}

// BodyField keys requests by a top-level string field of the JSON body.
func BodyField(prefix string, field string) KeyFunc {
	return func(req Request) (string, bool, error) {
		value, err := bodyField(req, field)
		if err != nil {
			return "", false, err
		}
		if value == "" {
			return "", false, nil
		}
		return fmt.Sprintf("%s:%s", prefix, value), true, nil
	}
}

// Email keys requests by the lower-cased email from the JSON body.
func Email(field string) KeyFunc {
	return func(req Request) (string, bool, error) {
		value, err := bodyField(req, field)
		if err != nil {
			return "", false, err
		}
		value = strings.ToLower(value)
		if value == "" {
			return "", false, nil
		}
		return "email:" + value, true, nil
	}
}

// SessionParticipant keys requests by the logged in participant.
func SessionParticipant(req Request) (string, bool, error) {
	session := req.Session()
	if !session.Authenticated() {
		return "", false, nil
	}
	return "user:" + session.ParticipantId, true, nil
}

func bodyField(req Request, field string) (string, error) {
	body, err := req.Body()
	if err != nil {
		return "", errors.WithMessage(err, "read body")
	}
	if len(body) == 0 {
		return "", nil
	}

	fields := make(map[string]any)
	err = json.Unmarshal(body, &fields)
	if err != nil {
		return "", errors.WithMessage(err, "json unmarshal body")
	}

	value, ok := fields[field].(string)
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(value), nil
}
