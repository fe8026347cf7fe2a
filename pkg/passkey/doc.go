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

// Package passkey implements the server side of a passwordless,
// public-key challenge/response protocol. It drives two independent
// two-step flows, registration and authentication, against a per-username
// record held in a key-value store:
//
//	BeginRegistration  -> challenge issued, record created lazily
//	FinishRegistration -> assertion verified, credential appended
//	BeginLogin         -> challenge issued for enrolled accounts only
//	FinishLogin        -> assertion verified, signature counter advanced
//
// Challenges are single-use: issuing a new one overwrites any outstanding
// challenge, and a successful verification clears it before persisting, so
// a captured assertion cannot be replayed. Signature counter regression is
// detected for authenticators that implement counters; authenticators that
// always report zero are exempt (see ExpectedCounter).
//
// Cryptographic verification of attestations and assertions is delegated
// to the Verifier interface, backed by github.com/go-webauthn/webauthn.
package passkey
