package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mcoot/proplatform/internal/identity"
	"github.com/mcoot/proplatform/internal/model"
)

// errNotSignedIn is returned by commands that need a stored credential
var errNotSignedIn = errors.New("not signed in; run `ppctl login`")

// cliError carries the message shown to the user while keeping the cause
// available to errors.Is
type cliError struct {
	msg   string
	usage bool
	err   error
}

func (e *cliError) Error() string { return e.msg }
func (e *cliError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &cliError{msg: fmt.Sprintf(format, args...), usage: true}
}

// userError converts a core error to what the command prints
func userError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrValidation):
		return &cliError{msg: "invalid input", err: err}
	case errors.Is(err, model.ErrNotAuthenticated):
		return &cliError{msg: errNotSignedIn.Error(), err: err}
	case isProviderError(err):
		return &cliError{msg: identity.UserMessage(err), err: err}
	default:
		return err
	}
}

func isProviderError(err error) bool {
	var pe *model.ProviderError
	return errors.As(err, &pe)
}

func fieldErrors(err error) map[string]string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
