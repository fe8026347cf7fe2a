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

// Package account defines the per-username record the relying party
// persists: the outstanding challenge and the list of enrolled credentials.
// A UserRecord is the unit of storage; it is created lazily on the first
// registration challenge and mutated by every subsequent ceremony step.
package account

import (
	"bytes"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Credential is one enrolled authenticator: its identifier plus the public
// verification material returned by registration. ID and PublicKey are
// immutable after creation; the authenticator state mutates on every
// successful login.
type Credential struct {
	// ID is the credential identifier assigned by the authenticator.
	ID []byte `json:"id"`

	// PublicKey is the credential's public key in COSE format.
	PublicKey []byte `json:"public_key"`

	// AttestationType indicates the type of attestation used.
	AttestationType string `json:"attestation_type,omitempty"`

	// Transport lists the transports supported by the authenticator.
	Transport []protocol.AuthenticatorTransport `json:"transport,omitempty"`

	// Flags contains authenticator capability flags.
	Flags CredentialFlags `json:"flags"`

	// Authenticator contains authenticator-specific data, including the
	// signature counter used for replay detection.
	Authenticator AuthenticatorState `json:"authenticator"`

	// CreatedAt is when the credential was registered.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is when the credential last completed an authentication.
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
}

// CredentialFlags contains authenticator capability flags.
type CredentialFlags struct {
	UserPresent    bool `json:"user_present"`
	UserVerified   bool `json:"user_verified"`
	BackupEligible bool `json:"backup_eligible"`
	BackupState    bool `json:"backup_state"`
}

// AuthenticatorState contains per-authenticator state.
type AuthenticatorState struct {
	// AAGUID is the authenticator's model identifier.
	AAGUID []byte `json:"aaguid,omitempty"`

	// SignCount is the last observed signature counter. Authenticators
	// without a counter report zero forever; see passkey.ExpectedCounter.
	SignCount uint32 `json:"sign_count"`

	// CloneWarning records a counter regression observed by the verifier.
	CloneWarning bool `json:"clone_warning,omitempty"`
}

// ToWebAuthn converts the stored credential to the go-webauthn type.
func (c *Credential) ToWebAuthn() webauthn.Credential {
	return webauthn.Credential{
		ID:              c.ID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Transport:       c.Transport,
		Flags: webauthn.CredentialFlags{
			UserPresent:    c.Flags.UserPresent,
			UserVerified:   c.Flags.UserVerified,
			BackupEligible: c.Flags.BackupEligible,
			BackupState:    c.Flags.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:       c.Authenticator.AAGUID,
			SignCount:    c.Authenticator.SignCount,
			CloneWarning: c.Authenticator.CloneWarning,
		},
	}
}

// FromWebAuthnCredential builds a stored credential from the verifier's
// registration result.
func FromWebAuthnCredential(wc *webauthn.Credential) *Credential {
	return &Credential{
		ID:              wc.ID,
		PublicKey:       wc.PublicKey,
		AttestationType: wc.AttestationType,
		Transport:       wc.Transport,
		Flags: CredentialFlags{
			UserPresent:    wc.Flags.UserPresent,
			UserVerified:   wc.Flags.UserVerified,
			BackupEligible: wc.Flags.BackupEligible,
			BackupState:    wc.Flags.BackupState,
		},
		Authenticator: AuthenticatorState{
			AAGUID:       wc.Authenticator.AAGUID,
			SignCount:    wc.Authenticator.SignCount,
			CloneWarning: wc.Authenticator.CloneWarning,
		},
		CreatedAt: time.Now().UTC(),
	}
}

// UserRecord is the stored state for one username. The username is chosen
// by the caller and never generated here.
type UserRecord struct {
	// Username is the stable identity of the account.
	Username string `json:"username"`

	// PendingChallenge is the most recently issued, unconsumed challenge
	// token, or empty if none is outstanding. Issuing a new challenge
	// overwrites it; a successful verification clears it.
	PendingChallenge string `json:"pending_challenge,omitempty"`

	// Credentials holds the enrolled authenticators in enrollment order.
	Credentials []Credential `json:"credentials"`
}

// NewUserRecord creates an empty record for username.
func NewUserRecord(username string) *UserRecord {
	return &UserRecord{
		Username:    username,
		Credentials: []Credential{},
	}
}

// AddCredential appends a credential. It does not check for duplicate IDs;
// that policy lives in the orchestrator.
func (r *UserRecord) AddCredential(cred *Credential) {
	r.Credentials = append(r.Credentials, *cred)
}

// FindCredential returns a pointer to the first credential with the given
// ID, so callers can mutate its state in place before persisting the
// record.
func (r *UserRecord) FindCredential(id []byte) (*Credential, bool) {
	for i := range r.Credentials {
		if bytes.Equal(r.Credentials[i].ID, id) {
			return &r.Credentials[i], true
		}
	}
	return nil, false
}

// HasCredentials reports whether any authenticator is enrolled. Login
// challenges are only offered to enrolled accounts.
func (r *UserRecord) HasCredentials() bool {
	return len(r.Credentials) > 0
}

// CredentialIDs returns the enrolled credential identifiers in enrollment
// order, for the allow-list hint in login options.
func (r *UserRecord) CredentialIDs() [][]byte {
	ids := make([][]byte, len(r.Credentials))
	for i := range r.Credentials {
		ids[i] = r.Credentials[i].ID
	}
	return ids
}

// WebAuthnID returns the user handle presented to authenticators.
func (r *UserRecord) WebAuthnID() []byte {
	return []byte(r.Username)
}

// WebAuthnName returns the account username.
func (r *UserRecord) WebAuthnName() string {
	return r.Username
}

// WebAuthnDisplayName returns the name shown in authenticator prompts.
func (r *UserRecord) WebAuthnDisplayName() string {
	return r.Username
}

// WebAuthnCredentials returns the enrolled credentials in go-webauthn form.
func (r *UserRecord) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, len(r.Credentials))
	for i := range r.Credentials {
		creds[i] = r.Credentials[i].ToWebAuthn()
	}
	return creds
}
