package identity

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/proplatform/internal/model"
)

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, model.ErrValidation)
	return ve.Fields
}

func TestNewValidatorRegistersAddress(t *testing.T) {
	var v *validator.Validate
	require.NotPanics(t, func() { v = newValidator() })

	assert.NoError(t, v.Var("ann@example.com", "address"))
	assert.Error(t, v.Var("ann@example", "address"))
	assert.Error(t, v.Var("ann @example.com", "address"))
}

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name   string
		input  RegisterInput
		fields map[string]string
	}{
		{
			name:  "valid",
			input: RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret"},
		},
		{
			name:  "everything missing",
			input: RegisterInput{},
			fields: map[string]string{
				"name":     "Full name is required",
				"email":    "Email address is required",
				"password": "Password is required",
			},
		},
		{
			name:   "whitespace name",
			input:  RegisterInput{Name: "   ", Email: "ann@example.com", Password: "secret"},
			fields: map[string]string{"name": "Full name is required"},
		},
		{
			name:   "email without domain dot",
			input:  RegisterInput{Name: "Ann", Email: "ann@example", Password: "secret"},
			fields: map[string]string{"email": "Please enter a valid email address"},
		},
		{
			name:   "email with space",
			input:  RegisterInput{Name: "Ann", Email: "ann lee@example.com", Password: "secret"},
			fields: map[string]string{"email": "Please enter a valid email address"},
		},
		{
			name:   "five character password",
			input:  RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "12345"},
			fields: map[string]string{"password": "Password must be at least 6 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.input)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.fields, validationFields(t, err))
		})
	}
}

func TestValidateLogin(t *testing.T) {
	assert.NoError(t, ValidateLogin(LoginInput{Email: "ann@example.com", Password: "123456"}))
	assert.NoError(t, ValidateLogin(LoginInput{Email: " ann@example.com ", Password: "123456"}))

	fields := validationFields(t, ValidateLogin(LoginInput{Email: "", Password: ""}))
	assert.Equal(t, "Email address is required", fields["email"])
	assert.Equal(t, "Password is required", fields["password"])

	fields = validationFields(t, ValidateLogin(LoginInput{Email: "nope", Password: "12345"}))
	assert.Equal(t, "Please enter a valid email address", fields["email"])
	assert.Equal(t, "Password must be at least 6 characters", fields["password"])
}

func TestValidatePasswordBoundary(t *testing.T) {
	base := RegisterInput{Name: "Ann", Email: "ann@example.com"}

	base.Password = strings.Repeat("x", MinPasswordLength-1)
	assert.Error(t, ValidateRegister(base))

	base.Password = strings.Repeat("x", MinPasswordLength)
	assert.NoError(t, ValidateRegister(base))
}

func TestValidateUpdateProfile(t *testing.T) {
	assert.NoError(t, ValidateUpdateProfile(UpdateProfileInput{DisplayName: "  Ann  "}))
	assert.NoError(t, ValidateUpdateProfile(UpdateProfileInput{DisplayName: "Ann", PhotoURL: "https://example.com/a.png"}))

	fields := validationFields(t, ValidateUpdateProfile(UpdateProfileInput{DisplayName: " \t "}))
	assert.Equal(t, map[string]string{"displayName": "Display name is required"}, fields)
}
