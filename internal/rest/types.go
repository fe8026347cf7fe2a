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

package rest

// ChallengeRequest is the request body for challenge issuance on both
// flows.
type ChallengeRequest struct {
	// Username identifies the account (required).
	Username string `json:"username"`
}

// RegistrationResponse is returned after a successful registration verify.
type RegistrationResponse struct {
	// CredentialID is the base64url-encoded ID of the enrolled credential.
	CredentialID string `json:"credential_id"`

	// CreatedAt is when the credential was enrolled, in RFC 3339 format.
	CreatedAt string `json:"created_at"`
}

// LoginResponse is returned after a successful authentication verify.
type LoginResponse struct {
	// Token is the session token, empty when token issuance is disabled.
	Token string `json:"token,omitempty"`

	// SignCount is the signature counter stored after the ceremony.
	SignCount uint32 `json:"sign_count"`

	// UserVerified reports whether the authenticator verified the user.
	UserVerified bool `json:"user_verified"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the response format for errors.
type ErrorResponse struct {
	// Error is the error code.
	Error string `json:"error"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeChallengeExpired   = "challenge_expired"
	ErrorCodeUnknownAccount     = "unknown_account"
	ErrorCodeUnknownCredential  = "unknown_credential"
	ErrorCodeCredentialExists   = "credential_exists"
	ErrorCodeVerificationFailed = "verification_failed"
	ErrorCodeInternalError      = "internal_error"
)
