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

// ExpectedCounter builds the replay expectation for a credential's stored
// signature counter. When the stored value is positive, the verifier must
// observe a strictly greater counter in the assertion; a smaller or equal
// value signals a cloned authenticator replaying an old signature.
//
// A stored value of zero produces no expectation at all. Authenticators
// that do not implement counters report zero on every assertion, and a
// strict zero-to-zero comparison would lock those users out permanently.
// The trade-off is deliberate: that class of authenticator gets no
// counter-based replay protection.
func ExpectedCounter(stored uint32) (uint32, bool) {
	if stored == 0 {
		return 0, false
	}
	return stored, true
}
