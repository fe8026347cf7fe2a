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

// Package file provides a file-backed implementation of storage.Backend.
// Each key maps to one file under a root directory; slashes in keys become
// directories.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

const (
	dirPerms  = 0700
	filePerms = 0600
)

// Backend stores key-value pairs as files. Thread-safe via a read-write
// mutex; writes are not atomic across keys.
type Backend struct {
	mu      sync.RWMutex
	rootDir string
	closed  bool
}

// New creates a file backend rooted at rootDir, creating the directory if
// needed.
func New(rootDir string) (*Backend, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("file storage: root directory is required")
	}
	if err := os.MkdirAll(rootDir, dirPerms); err != nil {
		return nil, fmt.Errorf("file storage: create root directory: %w", err)
	}
	return &Backend{rootDir: rootDir}, nil
}

// pathFor maps a key to a path under the root, rejecting keys that would
// escape it.
func (b *Backend) pathFor(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("file storage: invalid key %q", key)
	}
	return filepath.Join(b.rootDir, filepath.FromSlash(key)), nil
}

// Get retrieves the value stored under key.
func (b *Backend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, storage.ErrClosed
	}

	path, err := b.pathFor(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("file storage: read %q: %w", key, err)
	}
	return data, nil
}

// Put stores value under key, overwriting any existing value.
func (b *Backend) Put(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return storage.ErrClosed
	}

	path, err := b.pathFor(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return fmt.Errorf("file storage: create parent directory: %w", err)
	}

	// Write-then-rename so readers never observe a partial record.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, filePerms); err != nil {
		return fmt.Errorf("file storage: write %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("file storage: commit %q: %w", key, err)
	}
	return nil
}

// Delete removes key and its value.
func (b *Backend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return storage.ErrClosed
	}

	path, err := b.pathFor(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("file storage: delete %q: %w", key, err)
	}
	return nil
}

// List returns all keys with the given prefix.
func (b *Backend) List(prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, storage.ErrClosed
	}

	var keys []string
	err := filepath.WalkDir(b.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(b.rootDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("file storage: list: %w", err)
	}
	return keys, nil
}

// Close marks the backend closed. Files on disk are left intact.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
