package validation_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jrsteele09/storefront-client/api"
	"github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/validation"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		check func(string) bool
		value string
		want  bool
	}{
		{"email ok", validation.IsValidEmail, " sara@example.com ", true},
		{"email no domain dot", validation.IsValidEmail, "sara@example", false},
		{"email spaces", validation.IsValidEmail, "sa ra@example.com", false},
		{"otp four digits", validation.IsValidOTP, "1234", true},
		{"otp six digits", validation.IsValidOTP, " 123456 ", true},
		{"otp short", validation.IsValidOTP, "123", false},
		{"otp letters", validation.IsValidOTP, "12a4", false},
		{"phone formatted", validation.IsValidPhone, "050-123 4567", true},
		{"phone short", validation.IsValidPhone, "1234567", false},
		{"name ok", validation.IsValidName, " Sara ", true},
		{"name blank", validation.IsValidName, "   ", false},
		{"name too long", validation.IsValidName, strings.Repeat("a", 201), false},
		{"name at limit", validation.IsValidName, strings.Repeat("ب", 200), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.check(tt.value))
		})
	}
}

func TestValidator(t *testing.T) {
	t.Run("all valid", func(t *testing.T) {
		err := validation.NewValidator().
			Email("email", "sara@example.com").
			Phone("phone", "0501234567").
			OTP("otp", "1234").
			Name("name", "Sara").
			Err()
		require.NoError(t, err)
	})

	t.Run("collects every failing field", func(t *testing.T) {
		err := validation.NewValidator().
			Email("email", "nope").
			Phone("phone", "12").
			Name("name", "").
			Err()
		require.Error(t, err)
		require.ErrorIs(t, err, errors.ErrInvalidInput)

		fields := validation.FieldErrors(err)
		require.Len(t, fields, 3)
		require.Equal(t, "Name is required.", fields["name"])
		require.Equal(t, "Enter a valid phone number.", fields["phone"])
	})

	t.Run("first message per field wins", func(t *testing.T) {
		err := validation.NewValidator().
			Required("email", "").
			Email("email", "").
			Err()
		require.Equal(t, "Email is required.", validation.FieldError(err, "email"))
	})
}

func TestPathToFieldName(t *testing.T) {
	require.Equal(t, "Field", validation.PathToFieldName(""))
	require.Equal(t, "Field", validation.PathToFieldName("body."))
	require.Equal(t, "Email", validation.PathToFieldName("body.email"))
	require.Equal(t, "Country Code", validation.PathToFieldName("body.countryCode"))
	require.Equal(t, "Target Weight Kg", validation.PathToFieldName("targetWeightKg"))
}

func TestFieldErrors_FromAPIError(t *testing.T) {
	err := fmt.Errorf("verify: %w", &api.Error{
		Message:    "Validation failed",
		StatusCode: 400,
		FieldErrors: []api.FieldError{
			{Path: "body.email", Message: "Email already used"},
			{Path: "body.phone"},
			{Message: "Something else"},
		},
	})

	fields := validation.FieldErrors(err)
	require.Equal(t, map[string]string{
		"email": "Email already used",
		"phone": "Validation failed",
		"field": "Something else",
	}, fields)

	require.Empty(t, validation.FieldErrors(fmt.Errorf("network down")))
	require.Empty(t, validation.FieldErrors(nil))
}
