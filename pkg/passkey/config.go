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
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Config configures the relying party.
type Config struct {
	// RPID is the Relying Party identifier, typically the domain name.
	RPID string `yaml:"id" json:"id"`

	// RPDisplayName is the human-readable name of the Relying Party.
	RPDisplayName string `yaml:"display_name" json:"display_name"`

	// RPOrigins are the origins assertions may come from.
	RPOrigins []string `yaml:"origins" json:"origins"`

	// Timeout is the ceremony timeout advertised to clients.
	// Default: 60 seconds.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// UserVerification is the requirement advertised for registration:
	// "required", "preferred" or "discouraged". Default: "preferred".
	// Authentication always requires user verification.
	UserVerification string `yaml:"user_verification" json:"user_verification"`

	// Attestation is the attestation conveyance preference:
	// "none", "indirect", "direct" or "enterprise". Default: "none".
	Attestation string `yaml:"attestation" json:"attestation"`

	// Debug enables verbose logging in the underlying verifier.
	Debug bool `yaml:"debug" json:"debug"`
}

// Validate returns an error if the configuration is unusable.
func (c *Config) Validate() error {
	if c.RPID == "" {
		return fmt.Errorf("RPID is required")
	}
	if c.RPDisplayName == "" {
		return fmt.Errorf("RPDisplayName is required")
	}
	if len(c.RPOrigins) == 0 {
		return fmt.Errorf("at least one RPOrigin is required")
	}

	switch c.UserVerification {
	case "", "required", "preferred", "discouraged":
	default:
		return fmt.Errorf("invalid user verification: %s", c.UserVerification)
	}

	switch c.Attestation {
	case "", "none", "indirect", "direct", "enterprise":
	default:
		return fmt.Errorf("invalid attestation preference: %s", c.Attestation)
	}

	return nil
}

// SetDefaults fills unset fields with defaults.
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.UserVerification == "" {
		c.UserVerification = "preferred"
	}
	if c.Attestation == "" {
		c.Attestation = "none"
	}
}

// OriginAllowed reports whether origin is one of the configured RP
// origins.
func (c *Config) OriginAllowed(origin string) bool {
	for _, o := range c.RPOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// userVerificationRequirement maps the configured mode to the protocol
// constant.
func (c *Config) userVerificationRequirement() protocol.UserVerificationRequirement {
	switch c.UserVerification {
	case "required":
		return protocol.VerificationRequired
	case "discouraged":
		return protocol.VerificationDiscouraged
	default:
		return protocol.VerificationPreferred
	}
}

// conveyancePreference maps the configured mode to the protocol constant.
func (c *Config) conveyancePreference() protocol.ConveyancePreference {
	switch c.Attestation {
	case "indirect":
		return protocol.PreferIndirectAttestation
	case "direct":
		return protocol.PreferDirectAttestation
	case "enterprise":
		return protocol.PreferEnterpriseAttestation
	default:
		return protocol.PreferNoAttestation
	}
}

// toWebAuthnConfig converts the Config for the go-webauthn verifier.
func (c *Config) toWebAuthnConfig() *webauthn.Config {
	cfg := &webauthn.Config{
		RPID:          c.RPID,
		RPDisplayName: c.RPDisplayName,
		RPOrigins:     c.RPOrigins,
		Debug:         c.Debug,
	}

	if c.Timeout > 0 {
		cfg.Timeouts = webauthn.TimeoutsConfig{
			Login: webauthn.TimeoutConfig{
				Enforce:    true,
				Timeout:    c.Timeout,
				TimeoutUVD: c.Timeout,
			},
			Registration: webauthn.TimeoutConfig{
				Enforce:    true,
				Timeout:    c.Timeout,
				TimeoutUVD: c.Timeout,
			},
		}
	}

	cfg.AttestationPreference = c.conveyancePreference()
	cfg.AuthenticatorSelection = protocol.AuthenticatorSelection{
		UserVerification: c.userVerificationRequirement(),
	}

	return cfg
}
