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
	"context"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// RegistrationExpectations is the bundle handed to the verifier for an
// attestation check.
type RegistrationExpectations struct {
	// Challenge is the pending challenge token the client must have
	// signed over.
	Challenge string

	// Origin pins the assertion to a single caller origin. Empty means
	// any configured RP origin is acceptable.
	Origin string
}

// AuthenticationExpectations is the bundle handed to the verifier for an
// assertion check.
type AuthenticationExpectations struct {
	// Challenge is the pending challenge token.
	Challenge string

	// Origin pins the assertion to a single caller origin, if set.
	Origin string

	// RequireUserVerified demands the UV flag on the assertion.
	RequireUserVerified bool

	// Counter is the stored signature counter the authenticator must
	// exceed. Only meaningful when EnforceCounter is true; see
	// ExpectedCounter for the zero-counter exemption.
	Counter uint32

	// EnforceCounter enables the counter regression check.
	EnforceCounter bool
}

// Verifier performs the cryptographic verification of attestations and
// assertions. Failures are reported as *AssertionError so callers can
// surface the classification without interpreting authenticator formats
// themselves.
type Verifier interface {
	// VerifyRegistration checks an attestation response against the
	// expectations and returns the credential to enroll.
	VerifyRegistration(ctx context.Context, user webauthn.User, exp RegistrationExpectations, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)

	// VerifyAuthentication checks an assertion response against the
	// expectations and returns the matched credential with its new
	// signature counter.
	VerifyAuthentication(ctx context.Context, user webauthn.User, exp AuthenticationExpectations, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error)
}

// libraryVerifier implements Verifier on top of go-webauthn. Session state
// is synthesized from the expectations, so no separate ceremony session
// store is involved: the pending challenge on the user record is the only
// state.
type libraryVerifier struct {
	wa  *webauthn.WebAuthn
	cfg *Config
}

// NewVerifier creates the go-webauthn-backed verifier for the given
// relying party configuration.
func NewVerifier(cfg *Config) (Verifier, error) {
	wa, err := webauthn.New(cfg.toWebAuthnConfig())
	if err != nil {
		return nil, WrapError("create webauthn verifier", err)
	}
	return &libraryVerifier{wa: wa, cfg: cfg}, nil
}

func (v *libraryVerifier) VerifyRegistration(ctx context.Context, user webauthn.User, exp RegistrationExpectations, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if exp.Origin != "" && response.Response.CollectedClientData.Origin != exp.Origin {
		return nil, &AssertionError{
			Kind:    KindOriginMismatch,
			Message: "attestation origin does not match the expected origin",
		}
	}

	session := webauthn.SessionData{
		Challenge:        exp.Challenge,
		UserID:           user.WebAuthnID(),
		UserVerification: v.cfg.userVerificationRequirement(),
	}

	cred, err := v.wa.CreateCredential(user, session, response)
	if err != nil {
		return nil, newAssertionError(err)
	}
	return cred, nil
}

func (v *libraryVerifier) VerifyAuthentication(ctx context.Context, user webauthn.User, exp AuthenticationExpectations, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if exp.Origin != "" && response.Response.CollectedClientData.Origin != exp.Origin {
		return nil, &AssertionError{
			Kind:    KindOriginMismatch,
			Message: "assertion origin does not match the expected origin",
		}
	}

	session := webauthn.SessionData{
		Challenge:        exp.Challenge,
		UserID:           user.WebAuthnID(),
		UserVerification: protocol.VerificationPreferred,
	}
	if exp.RequireUserVerified {
		session.UserVerification = protocol.VerificationRequired
	}

	cred, err := v.wa.ValidateLogin(user, session, response)
	if err != nil {
		return nil, newAssertionError(err)
	}

	// go-webauthn flags a counter regression instead of failing the
	// ceremony; the stored counter is left untouched in that case.
	if exp.EnforceCounter {
		if cred.Authenticator.CloneWarning || cred.Authenticator.SignCount <= exp.Counter {
			return nil, &AssertionError{
				Kind:    KindCounterRegression,
				Message: "signature counter did not advance; possible cloned authenticator",
			}
		}
	}

	return cred, nil
}
