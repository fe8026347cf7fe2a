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

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/jeremyhahn/go-passkey/pkg/account"
	"github.com/jeremyhahn/go-passkey/pkg/challenge"
)

// Service orchestrates passkey registration and authentication
// ceremonies. The pending challenge on each account record is the only
// ceremony state; issuing a new challenge invalidates the previous one
// and a successful finish consumes it.
type Service struct {
	config     *Config
	records    *account.RecordStore
	verifier   Verifier
	tokens     TokenIssuer // optional
	configured bool
}

// ServiceParams contains dependencies for creating a passkey service.
type ServiceParams struct {
	// Config is the relying party configuration (required).
	Config *Config

	// Records is the account record store (required).
	Records *account.RecordStore

	// Verifier checks attestations and assertions. If nil, a
	// go-webauthn-backed verifier is created from Config.
	Verifier Verifier

	// Tokens mints session tokens after authentication. If nil, the
	// service returns an empty token and callers establish their own
	// session state.
	Tokens TokenIssuer
}

// NewService creates a new passkey service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.Records == nil {
		return nil, fmt.Errorf("record store is required")
	}

	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	verifier := params.Verifier
	if verifier == nil {
		var err error
		verifier, err = NewVerifier(params.Config)
		if err != nil {
			return nil, err
		}
	}

	return &Service{
		config:     params.Config,
		records:    params.Records,
		verifier:   verifier,
		tokens:     params.Tokens,
		configured: true,
	}, nil
}

// BeginRegistration starts a registration ceremony for the named account.
// The account record is created if it does not exist, and any previously
// issued challenge is replaced.
func (s *Service) BeginRegistration(ctx context.Context, username string) (*protocol.CredentialCreation, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if username == "" {
		return nil, ErrMissingUsername
	}

	ch, err := challenge.Generate()
	if err != nil {
		return nil, WrapError("generate challenge", err)
	}

	rec, err := s.records.Update(ctx, username, true, func(rec *account.UserRecord) error {
		rec.PendingChallenge = ch.String()
		return nil
	})
	if err != nil {
		return nil, WrapError("store registration challenge", err)
	}

	return s.creationOptions(rec, ch), nil
}

// FinishRegistration completes a registration ceremony. origin, when
// non-empty, pins the attestation to the caller's origin. On success the
// new credential is appended to the account record and the pending
// challenge is cleared; on any failure the record is left untouched.
func (s *Service) FinishRegistration(ctx context.Context, username, origin string, response *protocol.ParsedCredentialCreationData) (*account.Credential, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if username == "" {
		return nil, ErrMissingUsername
	}
	if response == nil {
		return nil, fmt.Errorf("attestation response is required")
	}

	var enrolled *account.Credential
	_, err := s.records.Update(ctx, username, false, func(rec *account.UserRecord) error {
		if rec.PendingChallenge == "" {
			return ErrChallengeExpired
		}

		cred, err := s.verifier.VerifyRegistration(ctx, rec, RegistrationExpectations{
			Challenge: rec.PendingChallenge,
			Origin:    origin,
		}, response)
		if err != nil {
			return err
		}

		if _, exists := rec.FindCredential(cred.ID); exists {
			return ErrCredentialExists
		}

		enrolled = account.FromWebAuthnCredential(cred)
		rec.AddCredential(enrolled)
		rec.PendingChallenge = ""
		return nil
	})
	if err != nil {
		if IsRecordNotFound(err) {
			// No record means no ceremony in flight.
			return nil, WrapError("finish registration", ErrChallengeExpired)
		}
		return nil, WrapError("finish registration", err)
	}

	return enrolled, nil
}

// BeginLogin starts an authentication ceremony for the named account.
// The assertion options carry an allow-list of the account's credential
// IDs. Accounts with no enrolled credentials are indistinguishable from
// unknown accounts.
func (s *Service) BeginLogin(ctx context.Context, username string) (*protocol.CredentialAssertion, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if username == "" {
		return nil, ErrMissingUsername
	}

	ch, err := challenge.Generate()
	if err != nil {
		return nil, WrapError("generate challenge", err)
	}

	rec, err := s.records.Update(ctx, username, false, func(rec *account.UserRecord) error {
		if !rec.HasCredentials() {
			return ErrUnknownAccount
		}
		rec.PendingChallenge = ch.String()
		return nil
	})
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, WrapError("begin login", ErrUnknownAccount)
		}
		return nil, WrapError("store login challenge", err)
	}

	return s.assertionOptions(rec, ch), nil
}

// LoginResult describes a completed authentication ceremony.
type LoginResult struct {
	// Token is the session token, empty when no issuer is configured.
	Token string

	// SignCount is the signature counter stored after the ceremony.
	SignCount uint32

	// UserVerified reports whether the authenticator verified the user.
	UserVerified bool

	// Credential is the updated credential that completed the ceremony.
	Credential *account.Credential
}

// FinishLogin completes an authentication ceremony. On success the
// matched credential's signature counter is overwritten with the
// asserted value, its last-used timestamp is refreshed, and the pending
// challenge is cleared; on any failure the record is left untouched.
func (s *Service) FinishLogin(ctx context.Context, username, origin string, response *protocol.ParsedCredentialAssertionData) (*LoginResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if username == "" {
		return nil, ErrMissingUsername
	}
	if response == nil {
		return nil, fmt.Errorf("assertion response is required")
	}

	var result *LoginResult
	_, err := s.records.Update(ctx, username, false, func(rec *account.UserRecord) error {
		if rec.PendingChallenge == "" {
			return ErrChallengeExpired
		}

		stored, ok := rec.FindCredential(response.RawID)
		if !ok {
			return ErrUnknownCredential
		}

		counter, enforce := ExpectedCounter(stored.Authenticator.SignCount)
		cred, err := s.verifier.VerifyAuthentication(ctx, rec, AuthenticationExpectations{
			Challenge:           rec.PendingChallenge,
			Origin:              origin,
			RequireUserVerified: true,
			Counter:             counter,
			EnforceCounter:      enforce,
		}, response)
		if err != nil {
			return err
		}
		if !bytes.Equal(cred.ID, stored.ID) {
			return ErrUnknownCredential
		}

		stored.Authenticator.SignCount = cred.Authenticator.SignCount
		stored.Authenticator.CloneWarning = false
		stored.LastUsedAt = time.Now().UTC()
		rec.PendingChallenge = ""

		result = &LoginResult{
			SignCount:    stored.Authenticator.SignCount,
			UserVerified: response.Response.AuthenticatorData.Flags.UserVerified(),
			Credential:   stored,
		}
		return nil
	})
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, WrapError("finish login", ErrChallengeExpired)
		}
		return nil, WrapError("finish login", err)
	}

	if s.tokens != nil {
		token, err := s.tokens.IssueToken(ctx, username, result.Credential.ID)
		if err != nil {
			return nil, WrapError("issue session token", err)
		}
		result.Token = token
	}

	return result, nil
}

// creationOptions builds the client-facing registration options around an
// issued challenge.
func (s *Service) creationOptions(rec *account.UserRecord, ch challenge.Challenge) *protocol.CredentialCreation {
	return &protocol.CredentialCreation{
		Response: protocol.PublicKeyCredentialCreationOptions{
			Challenge: protocol.URLEncodedBase64(ch.Bytes()),
			RelyingParty: protocol.RelyingPartyEntity{
				CredentialEntity: protocol.CredentialEntity{
					Name: s.config.RPDisplayName,
				},
				ID: s.config.RPID,
			},
			User: protocol.UserEntity{
				CredentialEntity: protocol.CredentialEntity{
					Name: rec.WebAuthnName(),
				},
				DisplayName: rec.WebAuthnDisplayName(),
				ID:          protocol.URLEncodedBase64(rec.WebAuthnID()),
			},
			Parameters: []protocol.CredentialParameter{
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgEdDSA},
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgRS256},
			},
			AuthenticatorSelection: protocol.AuthenticatorSelection{
				UserVerification: s.config.userVerificationRequirement(),
			},
			Timeout:     int(s.config.Timeout.Milliseconds()),
			Attestation: s.config.conveyancePreference(),
		},
	}
}

// assertionOptions builds the client-facing login options around an
// issued challenge and the account's credential allow-list.
func (s *Service) assertionOptions(rec *account.UserRecord, ch challenge.Challenge) *protocol.CredentialAssertion {
	allowed := make([]protocol.CredentialDescriptor, len(rec.Credentials))
	for i, cred := range rec.Credentials {
		allowed[i] = protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: protocol.URLEncodedBase64(cred.ID),
			Transport:    cred.Transport,
		}
	}

	return &protocol.CredentialAssertion{
		Response: protocol.PublicKeyCredentialRequestOptions{
			Challenge:          protocol.URLEncodedBase64(ch.Bytes()),
			Timeout:            int(s.config.Timeout.Milliseconds()),
			RelyingPartyID:     s.config.RPID,
			AllowedCredentials: allowed,
			UserVerification:   protocol.VerificationRequired,
		},
	}
}
