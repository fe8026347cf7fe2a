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

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/jeremyhahn/go-passkey/pkg/metrics"
	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// HandlerContext holds the dependencies shared by all REST handlers.
type HandlerContext struct {
	service *passkey.Service
	version string
}

// NewHandlerContext creates a handler context for the given service.
func NewHandlerContext(service *passkey.Service, version string) *HandlerContext {
	return &HandlerContext{
		service: service,
		version: version,
	}
}

// BeginRegistrationHandler issues a registration challenge.
//
// POST /api/v1/webauthn/registration/challenge
func (h *HandlerContext) BeginRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrorCodeInvalidRequest, "invalid request body", http.StatusBadRequest)
		return
	}

	options, err := h.service.BeginRegistration(r.Context(), req.Username)
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.PhaseBegin, metrics.StatusError, time.Since(start).Seconds())
		handleServiceError(w, err)
		return
	}

	metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.PhaseBegin, metrics.StatusSuccess, time.Since(start).Seconds())
	writeJSON(w, options, http.StatusOK)
}

// FinishRegistrationHandler verifies an attestation and enrolls the
// credential. The username travels in the query string so the body can
// stay the raw authenticator response the browser produced.
//
// POST /api/v1/webauthn/registration/verify?username=...
func (h *HandlerContext) FinishRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, ErrorCodeInvalidRequest, "username query parameter is required", http.StatusBadRequest)
		return
	}

	response, err := protocol.ParseCredentialCreationResponseBody(r.Body)
	if err != nil {
		writeError(w, ErrorCodeInvalidRequest, "invalid attestation response", http.StatusBadRequest)
		return
	}

	cred, err := h.service.FinishRegistration(r.Context(), username, r.Header.Get("Origin"), response)
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.PhaseFinish, metrics.StatusError, time.Since(start).Seconds())
		metrics.RecordError(metrics.CeremonyRegistration, metrics.PhaseFinish, errorType(err))
		handleServiceError(w, err)
		return
	}

	metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.PhaseFinish, metrics.StatusSuccess, time.Since(start).Seconds())
	writeJSON(w, RegistrationResponse{
		CredentialID: base64.RawURLEncoding.EncodeToString(cred.ID),
		CreatedAt:    cred.CreatedAt.Format(time.RFC3339),
	}, http.StatusOK)
}

// BeginLoginHandler issues an authentication challenge with the
// account's credential allow-list.
//
// POST /api/v1/webauthn/authentication/challenge
func (h *HandlerContext) BeginLoginHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrorCodeInvalidRequest, "invalid request body", http.StatusBadRequest)
		return
	}

	options, err := h.service.BeginLogin(r.Context(), req.Username)
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.PhaseBegin, metrics.StatusError, time.Since(start).Seconds())
		handleServiceError(w, err)
		return
	}

	metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.PhaseBegin, metrics.StatusSuccess, time.Since(start).Seconds())
	writeJSON(w, options, http.StatusOK)
}

// FinishLoginHandler verifies an assertion and returns the session token.
//
// POST /api/v1/webauthn/authentication/verify?username=...
func (h *HandlerContext) FinishLoginHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, ErrorCodeInvalidRequest, "username query parameter is required", http.StatusBadRequest)
		return
	}

	response, err := protocol.ParseCredentialRequestResponseBody(r.Body)
	if err != nil {
		writeError(w, ErrorCodeInvalidRequest, "invalid assertion response", http.StatusBadRequest)
		return
	}

	result, err := h.service.FinishLogin(r.Context(), username, r.Header.Get("Origin"), response)
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.PhaseFinish, metrics.StatusError, time.Since(start).Seconds())
		metrics.RecordError(metrics.CeremonyAuthentication, metrics.PhaseFinish, errorType(err))
		handleServiceError(w, err)
		return
	}

	metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.PhaseFinish, metrics.StatusSuccess, time.Since(start).Seconds())
	writeJSON(w, LoginResponse{
		Token:        result.Token,
		SignCount:    result.SignCount,
		UserVerified: result.UserVerified,
	}, http.StatusOK)
}

// HealthHandler reports server liveness.
//
// GET /api/v1/health
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:  "ok",
		Version: h.version,
	}, http.StatusOK)
}

// errorType classifies a service error for metrics labels.
func errorType(err error) string {
	switch {
	case passkey.IsChallengeExpired(err):
		return "challenge_expired"
	case passkey.IsUnknownAccount(err):
		return "unknown_account"
	case passkey.IsUnknownCredential(err):
		return "unknown_credential"
	case passkey.IsInvalidAssertion(err):
		return "invalid_assertion"
	default:
		return "internal"
	}
}
