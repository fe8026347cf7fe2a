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

package storage

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend_PutGet(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	require.NoError(t, m.Put("accounts/alice", []byte("v1")))

	got, err := m.Get("accounts/alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	// Overwrite wins
	require.NoError(t, m.Put("accounts/alice", []byte("v2")))
	got, err = m.Get("accounts/alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestMemoryBackend_GetMissing(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	_, err := m.Get("accounts/ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackend_Delete(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	require.NoError(t, m.Put("k", []byte("v")))
	require.NoError(t, m.Delete("k"))

	_, err := m.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete("k"), ErrNotFound)
}

func TestMemoryBackend_List(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	require.NoError(t, m.Put("accounts/alice", []byte("a")))
	require.NoError(t, m.Put("accounts/bob", []byte("b")))
	require.NoError(t, m.Put("other/key", []byte("c")))

	keys, err := m.List("accounts/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"accounts/alice", "accounts/bob"}, keys)

	all, err := m.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryBackend_ValueIsolation(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	value := []byte("original")
	require.NoError(t, m.Put("k", value))
	value[0] = 'X'

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryBackend_Closed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close()) // idempotent

	_, err := m.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Put("k", nil), ErrClosed)
	assert.ErrorIs(t, m.Delete("k"), ErrClosed)
	_, err = m.List("")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryBackend_Concurrent(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n)
			require.NoError(t, m.Put(key, []byte{byte(n)}))
			got, err := m.Get(key)
			require.NoError(t, err)
			assert.Equal(t, []byte{byte(n)}, got)
		}(i)
	}
	wg.Wait()

	keys, err := m.List("")
	require.NoError(t, err)
	assert.Len(t, keys, 50)
}
