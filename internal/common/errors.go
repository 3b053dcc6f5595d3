package common

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by both backends. Callers match with errors.Is;
// implementations wrap with fmt.Errorf("...: %w", err) to add context.
var (
	// ErrAuthRequired is returned when an operation needs a signed-in identity.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuth is returned for bad credentials.
	ErrAuth = errors.New("user not found or invalid password")

	// ErrValidation covers duplicate emails and malformed input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound covers unresolved emails and missing records or files.
	ErrNotFound = errors.New("not found")

	// ErrBackendUnavailable is raised while probing the remote backend. It is
	// recovered by falling back to the local store and never reaches callers
	// of the record, notification or file stores.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrPolicyDenied is remote-only: a row-level policy rejected the request.
	ErrPolicyDenied = errors.New("denied by access policy")

	// ErrEmailTaken is a ValidationError for sign-up with a registered email.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrValidation)
)
