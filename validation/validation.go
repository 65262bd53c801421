package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/storefront-client/internal/errors"
)

const (
	minPhoneDigits = 8
	maxNameLength  = 200
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpPattern   = regexp.MustCompile(`^\d{4,}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Errors maps a field key (e.g. "email") to the message shown for it.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, errors.ErrInvalidInput) match.
func (e Errors) Unwrap() error {
	return errors.ErrInvalidInput
}

// Add records msg for field unless field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Err returns e as an error, or nil when nothing was recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validator mirrors the backend's input rules so obviously bad input never
// costs a round trip.
type Validator struct {
	errs Errors
}

// NewValidator creates a Validator with no recorded errors.
func NewValidator() *Validator {
	return &Validator{errs: Errors{}}
}

func (v *Validator) Email(field, value string) *Validator {
	if !IsValidEmail(value) {
		v.errs.Add(field, "Enter a valid email address.")
	}
	return v
}

func (v *Validator) Phone(field, value string) *Validator {
	if !IsValidPhone(value) {
		v.errs.Add(field, "Enter a valid phone number.")
	}
	return v
}

func (v *Validator) OTP(field, value string) *Validator {
	if !IsValidOTP(value) {
		v.errs.Add(field, "Enter the code you received.")
	}
	return v
}

func (v *Validator) Name(field, value string) *Validator {
	if msg := Required(value, PathToFieldName(field)); msg != "" {
		v.errs.Add(field, msg)
		return v
	}
	if !IsValidName(value) {
		v.errs.Add(field, fmt.Sprintf("%s must be at most %d characters.", PathToFieldName(field), maxNameLength))
	}
	return v
}

func (v *Validator) Required(field, value string) *Validator {
	if msg := Required(value, PathToFieldName(field)); msg != "" {
		v.errs.Add(field, msg)
	}
	return v
}

// Err returns the collected field errors, or nil.
func (v *Validator) Err() error {
	return v.errs.Err()
}

func IsValidEmail(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}

// IsValidOTP accepts four or more digits.
func IsValidOTP(value string) bool {
	return otpPattern.MatchString(strings.TrimSpace(value))
}

// IsValidPhone counts digits only, so formatting characters are ignored.
func IsValidPhone(value string) bool {
	return len(nonDigits.ReplaceAllString(value, "")) >= minPhoneDigits
}

func IsValidName(value string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	return n >= 1 && n <= maxNameLength
}

// Required returns "<label> is required." for blank values and "" otherwise.
func Required(value, label string) string {
	if strings.TrimSpace(value) == "" {
		if label == "" {
			label = "This field"
		}
		return label + " is required."
	}
	return ""
}
