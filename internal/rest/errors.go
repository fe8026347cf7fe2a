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
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// writeError writes an error response with a code and message.
func writeError(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, ErrorResponse{
		Error:   code,
		Message: message,
	}, statusCode)
}

// handleServiceError maps passkey service errors to HTTP responses.
// The 404-vs-410 distinction intentionally mirrors the protocol surface:
// unknown accounts and credentials are 404, a missing or consumed
// challenge is 410.
func handleServiceError(w http.ResponseWriter, err error) {
	var ae *passkey.AssertionError

	switch {
	case errors.Is(err, passkey.ErrMissingUsername):
		writeError(w, ErrorCodeInvalidRequest, "username is required", http.StatusBadRequest)
	case passkey.IsChallengeExpired(err):
		writeError(w, ErrorCodeChallengeExpired, "no pending challenge; request a new one", http.StatusGone)
	case passkey.IsUnknownAccount(err):
		writeError(w, ErrorCodeUnknownAccount, "unknown account", http.StatusNotFound)
	case passkey.IsUnknownCredential(err):
		writeError(w, ErrorCodeUnknownCredential, "unknown credential", http.StatusNotFound)
	case errors.Is(err, passkey.ErrCredentialExists):
		writeError(w, ErrorCodeCredentialExists, "credential already registered", http.StatusBadRequest)
	case errors.As(err, &ae):
		// Verifier classification is safe to expose; it never carries
		// secret material.
		writeError(w, ErrorCodeVerificationFailed, ae.Error(), http.StatusBadRequest)
	case passkey.IsInvalidAssertion(err):
		writeError(w, ErrorCodeVerificationFailed, "assertion verification failed", http.StatusBadRequest)
	default:
		writeError(w, ErrorCodeInternalError, "internal server error", http.StatusInternalServerError)
	}
}
