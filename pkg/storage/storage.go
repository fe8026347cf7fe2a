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

// Package storage provides the key-value abstraction the account record
// store is built on. Backends offer plain get/put semantics: no
// transactions, no compare-and-swap, last write wins. Any serialization of
// concurrent writers happens above this layer.
package storage

import "errors"

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrClosed is returned when operating on a closed backend.
	ErrClosed = errors.New("storage: closed")
)

// Backend is a minimal key-value store. Implementations must be safe for
// concurrent use; individual operations are atomic but sequences of
// operations are not.
type Backend interface {
	// Get retrieves the value stored under key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string) ([]byte, error)

	// Put stores value under key, overwriting any existing value.
	Put(key string, value []byte) error

	// Delete removes key and its value.
	// Returns ErrNotFound if the key does not exist.
	Delete(key string) error

	// List returns all keys with the given prefix. An empty prefix
	// returns every key.
	List(prefix string) ([]string, error)

	// Close releases any resources held by the backend.
	Close() error
}
