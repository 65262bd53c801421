package validation

import (
	"errors"
	"strings"
	"unicode"

	"github.com/jrsteele09/storefront-client/api"
)

// PathToFieldName turns a backend path such as "body.targetWeightKg" into a
// display label ("Target Weight Kg").
func PathToFieldName(path string) string {
	key := lastSegment(path)
	if key == "" {
		return "Field"
	}
	var b strings.Builder
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	label := strings.TrimSpace(b.String())
	runes := []rune(label)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// FieldErrors extracts per-field messages from err. Backend field errors are
// keyed by the last segment of their path; a field error without a message
// falls back to the error's own message. Any other error yields an empty map.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)

	var local Errors
	if errors.As(err, &local) {
		for k, v := range local {
			out[k] = v
		}
		return out
	}

	apiErr, ok := api.AsError(err)
	if !ok {
		return out
	}
	for _, fe := range apiErr.FieldErrors {
		key := lastSegment(fe.Path)
		if key == "" {
			key = "field"
		}
		msg := fe.Message
		if msg == "" {
			msg = apiErr.Message
		}
		out[key] = msg
	}
	return out
}

// FieldError returns the message for one field key, or "".
func FieldError(err error, key string) string {
	return FieldErrors(err)[key]
}

func lastSegment(path string) string {
	if path == "" {
		return ""
	}
	parts := strings.Split(path, ".")
	return parts[len(parts)-1]
}
