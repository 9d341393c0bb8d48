// Package classify turns raw transport failures into typed API errors.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/eshaffer321/streamly-go/internal/types"
)

const (
	genericMessage     = "An error occurred"
	networkMessage     = "Network connection failed"
	rateLimitedMessage = "Too many requests. Please wait a moment before trying again."
	unexpectedMessage  = "An unexpected error occurred"
)

// Raw is an unclassified transport failure. Responded is false when the
// request never got an HTTP response (DNS, refused connection, timeout).
type Raw struct {
	Method     string
	URL        string
	Err        error
	Responded  bool
	StatusCode int
	Body       []byte
	RequestID  string
}

func (r *Raw) Error() string {
	if !r.Responded {
		if r.Err != nil {
			return r.Err.Error()
		}
		return networkMessage
	}
	return fmt.Sprintf("%s %s: HTTP %d", r.Method, r.URL, r.StatusCode)
}

func (r *Raw) Unwrap() error {
	return r.Err
}

// Classify maps a raw failure to exactly one error kind. It never panics and
// always returns a non-nil error.
func Classify(raw *Raw) *types.Error {
	if raw == nil {
		return &types.Error{Kind: types.KindUnknown, Message: unexpectedMessage}
	}

	if !raw.Responded {
		msg := networkMessage
		if raw.Err != nil && raw.Err.Error() != "" {
			msg = raw.Err.Error()
		}
		return &types.Error{Kind: types.KindNetwork, Message: msg, Err: raw.Err}
	}

	p := extract(raw.Body)

	e := &types.Error{
		Message:    p.message,
		StatusCode: raw.StatusCode,
		RequestID:  raw.RequestID,
		Err:        raw,
	}

	switch raw.StatusCode {
	case http.StatusBadRequest:
		e.Kind = types.KindBadRequest
	case http.StatusUnauthorized:
		e.Kind = types.KindUnauthorized
	case http.StatusForbidden:
		e.Kind = types.KindForbidden
	case http.StatusNotFound:
		e.Kind = types.KindNotFound
	case http.StatusUnprocessableEntity:
		e.Kind = types.KindValidation
		e.Fields = p.fields
		if e.Fields == nil {
			e.Fields = map[string][]string{}
		}
	case http.StatusTooManyRequests:
		e.Kind = types.KindRateLimited
		e.Message = rateLimitedMessage
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		e.Kind = types.KindServer
	default:
		e.Kind = types.KindUnknown
	}

	return e
}

// Error classifies any error returned along the pipeline. Already classified
// errors pass through untouched so the kind is derived only once.
func Error(err error) *types.Error {
	if err == nil {
		return nil
	}

	var apiErr *types.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var raw *Raw
	if errors.As(err, &raw) {
		return Classify(raw)
	}

	return &types.Error{Kind: types.KindUnknown, Message: err.Error(), Err: err}
}

var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsRetryable is the only gate GetWithRetry consults
func IsRetryable(err error) bool {
	var apiErr *types.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.Kind {
	case types.KindNetwork, types.KindServer:
		return true
	}

	return retryableStatus[apiErr.StatusCode]
}

// payload is what a shape matcher pulls out of an error body
type payload struct {
	message string
	fields  map[string][]string
}

// matcher inspects a decoded error body for one known shape
type matcher func(body map[string]interface{}) (payload, bool)

// matchers are tried in order; the first hit wins
var matchers = []matcher{
	detailObject,
	detailList,
	detailString,
	topLevel,
}

func extract(body []byte) payload {
	var decoded map[string]interface{}
	if len(body) == 0 || json.Unmarshal(body, &decoded) != nil {
		return payload{message: genericMessage}
	}

	for _, match := range matchers {
		if p, ok := match(decoded); ok {
			if p.message == "" {
				p.message = genericMessage
			}
			return p
		}
	}

	return payload{message: genericMessage}
}

// detailObject matches {"detail": {"error"|"message": ..., "errors": {...}}}
func detailObject(body map[string]interface{}) (payload, bool) {
	detail, ok := body["detail"].(map[string]interface{})
	if !ok {
		return payload{}, false
	}

	return payload{
		message: firstString(detail, "error", "message"),
		fields:  fieldErrors(detail["errors"]),
	}, true
}

// detailList matches FastAPI request validation bodies:
// {"detail": [{"loc": ["body", "email"], "msg": "..."}]}
func detailList(body map[string]interface{}) (payload, bool) {
	items, ok := body["detail"].([]interface{})
	if !ok {
		return payload{}, false
	}

	p := payload{fields: map[string][]string{}}
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		msg, _ := entry["msg"].(string)
		if msg == "" {
			continue
		}
		if p.message == "" {
			p.message = msg
		}

		field := "_"
		if loc, ok := entry["loc"].([]interface{}); ok && len(loc) > 0 {
			field = fmt.Sprint(loc[len(loc)-1])
		}
		p.fields[field] = append(p.fields[field], msg)
	}

	return p, true
}

// detailString matches {"detail": "..."}
func detailString(body map[string]interface{}) (payload, bool) {
	detail, ok := body["detail"].(string)
	if !ok {
		return payload{}, false
	}
	return payload{message: detail}, true
}

// topLevel matches {"message"|"error": "...", "errors": {...}}
func topLevel(body map[string]interface{}) (payload, bool) {
	msg := firstString(body, "message", "error")
	fields := fieldErrors(body["errors"])
	if msg == "" && fields == nil {
		return payload{}, false
	}
	return payload{message: msg, fields: fields}, true
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// fieldErrors keeps the backend's field → messages map as sent. A bare
// string value becomes a one-element list.
func fieldErrors(v interface{}) map[string][]string {
	raw, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	fields := make(map[string][]string, len(raw))
	for field, val := range raw {
		switch msgs := val.(type) {
		case []interface{}:
			for _, m := range msgs {
				fields[field] = append(fields[field], fmt.Sprint(m))
			}
		case string:
			fields[field] = []string{msgs}
		default:
			fields[field] = []string{fmt.Sprint(msgs)}
		}
	}
	return fields
}
