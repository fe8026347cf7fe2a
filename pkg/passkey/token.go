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
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints a session token after a successful authentication
// ceremony. Implementations must be safe for concurrent use.
type TokenIssuer interface {
	// IssueToken creates a token for the named account. credentialID is
	// the raw ID of the credential that completed the ceremony.
	IssueToken(ctx context.Context, username string, credentialID []byte) (string, error)
}

// SessionClaims are the JWT claims issued by the HMAC token issuer.
type SessionClaims struct {
	Username     string `json:"usr"`
	CredentialID string `json:"cid"`
	jwt.RegisteredClaims
}

// HMACTokenIssuer signs session tokens with HS256.
type HMACTokenIssuer struct {
	secret    []byte
	issuer    string
	expiresIn time.Duration
}

// HMACTokenIssuerConfig configures an HMACTokenIssuer.
type HMACTokenIssuerConfig struct {
	// Secret is the shared signing key (required).
	Secret []byte
	// Issuer is the JWT issuer claim (default: "go-passkey").
	Issuer string
	// ExpiresIn is how long tokens are valid (default: 1 hour).
	ExpiresIn time.Duration
}

// NewHMACTokenIssuer creates an HMAC token issuer with the given
// configuration.
func NewHMACTokenIssuer(config *HMACTokenIssuerConfig) (*HMACTokenIssuer, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(config.Secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}

	issuer := config.Issuer
	if issuer == "" {
		issuer = "go-passkey"
	}

	expiresIn := config.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	return &HMACTokenIssuer{
		secret:    config.Secret,
		issuer:    issuer,
		expiresIn: expiresIn,
	}, nil
}

// IssueToken creates a signed JWT for the authenticated account.
func (t *HMACTokenIssuer) IssueToken(ctx context.Context, username string, credentialID []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := time.Now()
	claims := &SessionClaims{
		Username:     username,
		CredentialID: base64.RawURLEncoding.EncodeToString(credentialID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
			ID:        fmt.Sprintf("%s-%d", username, now.UnixNano()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", WrapError("sign session token", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a session token, returning its claims.
func (t *HMACTokenIssuer) VerifyToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer))
	if err != nil {
		return nil, WrapError("verify session token", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}
