// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package passkey

import (
	"errors"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/jeremyhahn/go-passkey/pkg/account"
)

// Sentinel errors for protocol operations.
var (
	// ErrMissingUsername is returned when a request omits the username.
	ErrMissingUsername = errors.New("username is required")

	// ErrChallengeExpired is returned when no pending challenge exists for
	// the user: never requested, already consumed, or the record is gone.
	ErrChallengeExpired = errors.New("no pending challenge")

	// ErrUnknownAccount is returned when a login challenge is requested
	// for a username with no record or no enrolled credentials.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrUnknownCredential is returned when an assertion references a
	// credential ID the user's record does not contain.
	ErrUnknownCredential = errors.New("unknown credential")

	// ErrCredentialExists is returned when registering a credential ID
	// that is already enrolled on the record.
	ErrCredentialExists = errors.New("credential already registered")

	// ErrInvalidAssertion is the sentinel matched by all verifier
	// rejections; the concrete error is an *AssertionError.
	ErrInvalidAssertion = errors.New("invalid assertion")

	// ErrNotConfigured is returned when the service is missing required
	// dependencies.
	ErrNotConfigured = errors.New("passkey service not configured")
)

// AssertionError carries the verifier's failure classification. It never
// contains secret material; Details is developer-facing diagnostics only.
type AssertionError struct {
	// Kind classifies the failure (e.g. "verification_error",
	// "counter_regression", "origin_mismatch").
	Kind string

	// Message is the human-readable rejection reason.
	Message string

	// Details carries additional diagnostics from the verifier, if any.
	Details string
}

// Error returns the rejection reason.
func (e *AssertionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind
}

// Is matches the ErrInvalidAssertion sentinel.
func (e *AssertionError) Is(target error) bool {
	return target == ErrInvalidAssertion
}

// Assertion error kinds.
const (
	KindVerification      = "verification_error"
	KindOriginMismatch    = "origin_mismatch"
	KindCounterRegression = "counter_regression"
)

// newAssertionError classifies a go-webauthn verification failure. The
// library reports *protocol.Error with a type, details and developer info;
// anything else is wrapped with a generic classification.
func newAssertionError(err error) *AssertionError {
	var pe *protocol.Error
	if errors.As(err, &pe) {
		kind := pe.Type
		if kind == "" {
			kind = KindVerification
		}
		return &AssertionError{
			Kind:    kind,
			Message: pe.Details,
			Details: pe.DevInfo,
		}
	}
	return &AssertionError{
		Kind:    KindVerification,
		Message: err.Error(),
	}
}

// Error wraps an error with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps err with an operation name if it is not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// IsChallengeExpired returns true if the error indicates a missing or
// consumed challenge.
func IsChallengeExpired(err error) bool {
	return errors.Is(err, ErrChallengeExpired)
}

// IsUnknownAccount returns true if the error indicates an account with no
// enrolled credentials.
func IsUnknownAccount(err error) bool {
	return errors.Is(err, ErrUnknownAccount)
}

// IsUnknownCredential returns true if the error indicates an unrecognized
// credential ID.
func IsUnknownCredential(err error) bool {
	return errors.Is(err, ErrUnknownCredential)
}

// IsInvalidAssertion returns true if the error is a verifier rejection.
func IsInvalidAssertion(err error) bool {
	return errors.Is(err, ErrInvalidAssertion)
}

// IsRecordNotFound returns true if the error indicates a missing account
// record in the store.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, account.ErrNotFound)
}
