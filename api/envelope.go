package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	ierrors "github.com/jrsteele09/storefront-client/internal/errors"
)

// Envelope is the normalized {status_code, message, data} reply. Data is left
// raw so callers can decode it into their own type.
type Envelope struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// Response is an Envelope with its data decoded. Data is nil when the backend
// sent no data.
type Response[T any] struct {
	StatusCode int
	Message    string
	Data       *T
}

// bodyShape is one of the two reply shapes the backend produces.
type bodyShape interface {
	normalize(status int) Envelope
}

// rawEnvelope is a body that already carries a numeric status_code.
type rawEnvelope struct {
	StatusCode int
	Message    string
	Data       json.RawMessage
}

// legacyShape is anything else: a bare object, a non-object, or no JSON at all.
type legacyShape struct {
	Message *string
	Data    json.RawMessage
}

func (r rawEnvelope) normalize(_ int) Envelope {
	return Envelope{
		StatusCode: r.StatusCode,
		Message:    r.Message,
		Data:       nullIfEmpty(r.Data),
	}
}

func (l legacyShape) normalize(status int) Envelope {
	message := http.StatusText(status)
	if l.Message != nil {
		message = *l.Message
	}
	if message == "" {
		message = defaultErrorMessage
	}
	return Envelope{
		StatusCode: status,
		Message:    message,
		Data:       nullIfEmpty(l.Data),
	}
}

// classify decides which shape body has. It never fails; undecodable bodies
// are an empty legacyShape.
func classify(body []byte) bodyShape {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return legacyShape{}
	}

	if raw, ok := fields["status_code"]; ok && isJSONNumber(raw) {
		var statusCode float64
		if err := json.Unmarshal(raw, &statusCode); err == nil {
			env := rawEnvelope{StatusCode: int(statusCode), Data: fields["data"]}
			_ = json.Unmarshal(fields["message"], &env.Message)
			return env
		}
	}

	shape := legacyShape{Data: fields["data"]}
	var message string
	if raw, ok := fields["message"]; ok && json.Unmarshal(raw, &message) == nil {
		shape.Message = &message
	}
	return shape
}

func normalize(status int, body []byte) Envelope {
	return classify(body).normalize(status)
}

func isJSONNumber(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func nullIfEmpty(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

// HasData reports whether the envelope carries a non-null data value.
func (e *Envelope) HasData() bool {
	if e == nil {
		return false
	}
	raw := bytes.TrimSpace(e.Data)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// fieldErrors decodes data as a list of field errors; anything else yields nil.
func (e *Envelope) fieldErrors() []FieldError {
	raw := bytes.TrimSpace(e.Data)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var list []FieldError
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

func (e *Envelope) asError(httpStatus int) *Error {
	message := e.Message
	if message == "" {
		message = defaultErrorMessage
	}
	return &Error{
		Message:     message,
		StatusCode:  httpStatus,
		FieldErrors: e.fieldErrors(),
	}
}

// Decode converts an Envelope into a typed Response.
func Decode[T any](env *Envelope) (*Response[T], error) {
	if env == nil {
		return nil, ierrors.ErrInvalidResponse
	}
	resp := &Response[T]{StatusCode: env.StatusCode, Message: env.Message}
	if !env.HasData() {
		return resp, nil
	}
	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, errors.Wrapf(ierrors.ErrInvalidResponse, "[api.Decode] %v", err)
	}
	resp.Data = &data
	return resp, nil
}
