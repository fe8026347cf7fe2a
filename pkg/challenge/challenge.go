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

// Package challenge generates one-time challenge tokens for WebAuthn
// ceremonies. Tokens are unguessable, fixed-length values sourced from the
// operating system CSPRNG and encoded as URL-safe, unpadded base64 strings.
package challenge

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Size is the number of raw entropy bytes in a challenge.
const Size = 32

// Challenge is a single opaque challenge token.
type Challenge struct {
	raw [Size]byte
}

// Generate produces a fresh challenge from the system CSPRNG.
//
// An error from the random source is unrecoverable; callers are expected to
// propagate it rather than retry.
func Generate() (Challenge, error) {
	var c Challenge
	if _, err := rand.Read(c.raw[:]); err != nil {
		return Challenge{}, fmt.Errorf("challenge: read random source: %w", err)
	}
	return c, nil
}

// Bytes returns the raw challenge entropy.
func (c Challenge) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, c.raw[:])
	return out
}

// String returns the wire encoding of the challenge: URL-safe base64 with
// no padding. This is the form stored on the user record and compared
// against the client data of an assertion.
func (c Challenge) String() string {
	return base64.RawURLEncoding.EncodeToString(c.raw[:])
}

// Parse decodes a wire-encoded challenge token. It is primarily useful in
// tests and tooling; the server itself treats stored tokens as opaque.
func Parse(token string) (Challenge, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Challenge{}, fmt.Errorf("challenge: decode token: %w", err)
	}
	if len(raw) != Size {
		return Challenge{}, fmt.Errorf("challenge: token has %d bytes, want %d", len(raw), Size)
	}
	var c Challenge
	copy(c.raw[:], raw)
	return c, nil
}
