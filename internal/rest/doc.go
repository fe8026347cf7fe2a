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

// Package rest provides the HTTP surface for passkey ceremonies.
//
// Four endpoints drive the two ceremonies, challenge issuance and
// verification for each of registration and authentication, plus a
// health probe and an optional Prometheus metrics endpoint. Responses
// use a small JSON error envelope; status codes distinguish malformed
// input (400), unknown accounts and credentials (404), and missing or
// consumed challenges (410).
package rest
