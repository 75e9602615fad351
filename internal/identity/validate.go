package identity

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/proplatform/internal/model"
)

// MinPasswordLength is the shortest password accepted locally
const MinPasswordLength = 6

// emailShape is the loose local@domain.tld check; the provider decides the rest
var emailShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// RegisterInput is the registration form
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,address"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput is the sign-in form
type LoginInput struct {
	Email    string `json:"email" validate:"required,address"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateProfileInput holds the client-editable profile fields
type UpdateProfileInput struct {
	DisplayName string `json:"displayName" validate:"required"`
	PhotoURL    string `json:"photoUrl"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("address", isAddress); err != nil {
		panic(fmt.Sprintf("register address validation: %v", err))
	}
	return v
}

// isAddress applies the loose email shape to a string field
func isAddress(fl validator.FieldLevel) bool {
	return emailShape.MatchString(fl.Field().String())
}

// ValidateRegister checks the registration form. Name is trimmed first.
func ValidateRegister(in RegisterInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return check(in)
}

// ValidateLogin checks the sign-in form
func ValidateLogin(in LoginInput) error {
	in.Email = strings.TrimSpace(in.Email)
	return check(in)
}

// ValidateUpdateProfile checks the profile form. DisplayName is trimmed first.
func ValidateUpdateProfile(in UpdateProfileInput) error {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	return check(in)
}

// check runs struct validation and converts failures to a *model.ValidationError
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := model.NewValidationError()
	for _, fe := range ve {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

// fieldMessage converts a single FieldError into the message shown under the input
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return requiredMessages[fe.Field()]
	case "address":
		return "Please enter a valid email address"
	case "min":
		return "Password must be at least " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

var requiredMessages = map[string]string{
	"name":        "Full name is required",
	"email":       "Email address is required",
	"password":    "Password is required",
	"displayName": "Display name is required",
}
