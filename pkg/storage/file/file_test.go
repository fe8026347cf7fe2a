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

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestNew_EmptyRoot(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestBackend_PutGetDelete(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.Put("accounts/alice", []byte("record")))

	got, err := b.Get("accounts/alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("record"), got)

	require.NoError(t, b.Delete("accounts/alice"))
	_, err = b.Get("accounts/alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBackend_GetMissing(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Get("accounts/nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBackend_Overwrite(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.Put("k", []byte("v1")))
	require.NoError(t, b.Put("k", []byte("v2")))

	got, err := b.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestBackend_List(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.Put("accounts/alice", []byte("a")))
	require.NoError(t, b.Put("accounts/bob", []byte("b")))
	require.NoError(t, b.Put("misc/config", []byte("c")))

	keys, err := b.List("accounts/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"accounts/alice", "accounts/bob"}, keys)
}

func TestBackend_RejectsTraversal(t *testing.T) {
	b := newTestBackend(t)

	assert.Error(t, b.Put("../escape", []byte("x")))
	assert.Error(t, b.Put("/absolute", []byte("x")))
	assert.Error(t, b.Put("", []byte("x")))
	_, err := b.Get("a/../../b")
	assert.Error(t, err)
}

func TestBackend_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	b, err := New(dir)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Put("accounts/alice", []byte("secret")))

	info, err := os.Stat(filepath.Join(dir, "accounts", "alice"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestBackend_Closed(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Put("k", nil), storage.ErrClosed)
	_, err := b.Get("k")
	assert.ErrorIs(t, err, storage.ErrClosed)
}
