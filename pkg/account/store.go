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

package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

// ErrNotFound is returned when no record exists for a username.
var ErrNotFound = errors.New("account: record not found")

const keyPrefix = "accounts/"

// RecordStore persists UserRecords against a key-value backend. The backend
// offers no transactions, so the store serializes each username's
// read-modify-write cycle behind an in-process mutex: concurrent requests
// for the same account cannot clobber each other's writes. Requests for
// different usernames proceed in parallel.
type RecordStore struct {
	backend storage.Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRecordStore creates a record store over the given backend.
func NewRecordStore(backend storage.Backend) *RecordStore {
	return &RecordStore{
		backend: backend,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding a username, creating it on first use.
// Lock entries are never reclaimed; the set of usernames is bounded by the
// account population.
func (s *RecordStore) lockFor(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[username]
	if !ok {
		l = &sync.Mutex{}
		s.locks[username] = l
	}
	return l
}

// Load retrieves the record for username. Returns ErrNotFound if the
// account has never been seen.
func (s *RecordStore) Load(ctx context.Context, username string) (*UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.backend.Get(keyPrefix + username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("account: load %q: %w", username, err)
	}

	var rec UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("account: decode record %q: %w", username, err)
	}
	return &rec, nil
}

// Save persists the record under its username, overwriting any previous
// version.
func (s *RecordStore) Save(ctx context.Context, rec *UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("account: encode record %q: %w", rec.Username, err)
	}
	if err := s.backend.Put(keyPrefix+rec.Username, data); err != nil {
		return fmt.Errorf("account: save %q: %w", rec.Username, err)
	}
	return nil
}

// Update runs fn against the record for username inside the per-username
// lock and persists the result. When create is true a missing record is
// initialized empty before fn runs; otherwise a missing record fails with
// ErrNotFound. If fn returns an error nothing is written.
func (s *RecordStore) Update(ctx context.Context, username string, create bool, fn func(*UserRecord) error) (*UserRecord, error) {
	lock := s.lockFor(username)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.Load(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) || !create {
			return nil, err
		}
		rec = NewUserRecord(username)
	}

	if err := fn(rec); err != nil {
		return nil, err
	}

	if err := s.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// View runs fn against a read-only snapshot of the record without writing
// anything back.
func (s *RecordStore) View(ctx context.Context, username string, fn func(*UserRecord) error) error {
	rec, err := s.Load(ctx, username)
	if err != nil {
		return err
	}
	return fn(rec)
}

// List returns every known username.
func (s *RecordStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, err := s.backend.List(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("account: list: %w", err)
	}
	usernames := make([]string, 0, len(keys))
	for _, key := range keys {
		usernames = append(usernames, key[len(keyPrefix):])
	}
	return usernames, nil
}
