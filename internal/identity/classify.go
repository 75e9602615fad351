package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/proplatform/internal/model"
)

// Op names a remote operation
type Op string

const (
	OpRegister Op = "register"
	OpLogin    Op = "login"
	OpLookup   Op = "lookup"
	OpUpdate   Op = "update"
)

// Provider error codes that get special treatment
const (
	CodeEmailExists = "EMAIL_EXISTS"
)

// APIError is a non-2xx response from the provider
type APIError struct {
	Status  int
	Message string // raw message, e.g. "WEAK_PASSWORD : Password should be at least 6 characters"
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Code returns the error code part of the message, before any " : " detail
func (e *APIError) Code() string {
	code, _, _ := strings.Cut(e.Message, " : ")
	return strings.TrimSpace(code)
}

// Classify maps the failure of op to the error taxonomy.
// err is either an *APIError (the provider answered) or any other error
// (no usable response). The result always satisfies errors.Is against
// exactly one of the model sentinels.
func Classify(op Op, err error) *model.ProviderError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &model.ProviderError{
			Op:      string(op),
			Status:  apiErr.Status,
			Code:    apiErr.Code(),
			Message: apiErr.Message,
			Kind:    classifyResponse(op, apiErr),
		}
	}

	return &model.ProviderError{
		Op:   string(op),
		Kind: classifyNoResponse(op),
		Err:  err,
	}
}

func classifyResponse(op Op, e *APIError) error {
	switch op {
	case OpRegister:
		if e.Code() == CodeEmailExists {
			return model.ErrEmailAlreadyExists
		}
		return model.ErrRegistrationFailed
	case OpLogin:
		// Any 4xx is a rejected sign-in: the provider answers bad credentials
		// with 400 and a code that has changed over time.
		if e.Status >= 400 && e.Status < 500 {
			return model.ErrInvalidCredentials
		}
		return model.ErrTransportFailure
	case OpLookup:
		return model.ErrProfileFetchFailed
	case OpUpdate:
		return model.ErrProfileUpdateFailed
	default:
		return model.ErrTransportFailure
	}
}

func classifyNoResponse(op Op) error {
	switch op {
	case OpLookup:
		return model.ErrProfileFetchFailed
	case OpUpdate:
		return model.ErrProfileUpdateFailed
	default:
		return model.ErrTransportFailure
	}
}

// Outcome returns a short label for err, used for metrics and logs
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrEmailAlreadyExists):
		return "email_exists"
	case errors.Is(err, model.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, model.ErrRegistrationFailed):
		return "registration_failed"
	case errors.Is(err, model.ErrProfileFetchFailed):
		return "profile_fetch_failed"
	case errors.Is(err, model.ErrProfileUpdateFailed):
		return "profile_update_failed"
	default:
		return "transport_failure"
	}
}

// Messages shown to the user for provider-confirmed failures
const (
	MessageEmailExists        = "Already this email has been registered"
	MessageInvalidCredentials = "Invalid Credentials."
	MessageNotAuthenticated   = "Please sign in to continue."
	MessageInFlight           = "A request is already in progress."
	MessageGeneric            = "Something went wrong. Please try again."
)

// UserMessage returns the message a page should render for a non-validation error
func UserMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrEmailAlreadyExists):
		return MessageEmailExists
	case errors.Is(err, model.ErrInvalidCredentials):
		return MessageInvalidCredentials
	case errors.Is(err, model.ErrNotAuthenticated):
		return MessageNotAuthenticated
	case errors.Is(err, model.ErrRequestInFlight):
		return MessageInFlight
	default:
		return MessageGeneric
	}
}
