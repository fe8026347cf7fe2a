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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.WebAuthn.RPID)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.False(t, cfg.CORS.Enabled)
	assert.Equal(t, time.Hour, cfg.Auth.JWT.ExpiresIn)

	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: 0.0.0.0
  port: 9000
webauthn:
  id: example.com
  display_name: Example Corp
  origins:
    - https://example.com
logging:
  level: debug
  format: json
storage:
  backend: file
  path: /var/lib/passkey
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "example.com", cfg.WebAuthn.RPID)
	assert.Equal(t, []string{"https://example.com"}, cfg.WebAuthn.RPOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/passkey", cfg.Storage.Path)

	// Defaults survive for sections the file does not mention.
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "go-passkey", cfg.Auth.JWT.Issuer)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
`)

	t.Setenv("PASSKEY_HOST", "passkey.example.com")
	t.Setenv("PASSKEY_PORT", "9443")
	t.Setenv("PASSKEY_RP_ID", "example.com")
	t.Setenv("PASSKEY_RP_ORIGINS", "https://example.com,https://www.example.com")
	t.Setenv("PASSKEY_LOG_LEVEL", "warn")
	t.Setenv("PASSKEY_JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "passkey.example.com", cfg.Server.Host)
	assert.Equal(t, 9443, cfg.Server.Port)
	assert.Equal(t, "example.com", cfg.WebAuthn.RPID)
	assert.Equal(t, []string{"https://example.com", "https://www.example.com"}, cfg.WebAuthn.RPOrigins)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "s3cret", cfg.Auth.JWT.Secret)
}

func TestLoad_InvalidEnvPortKeepsDefault(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
`)

	t.Setenv("PASSKEY_PORT", "not-a-port")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)

	t.Setenv("PASSKEY_PORT", "70000")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoad_DataDirSwitchesBackend(t *testing.T) {
	path := writeConfigFile(t, "{}")

	t.Setenv("PASSKEY_DATA_DIR", "/tmp/passkey-data")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/passkey-data", cfg.Storage.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "missing rp id",
			mutate:  func(c *Config) { c.WebAuthn.RPID = "" },
			wantErr: "invalid webauthn config",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "unknown storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "postgres" },
			wantErr: "invalid storage backend",
		},
		{
			name: "file backend without path",
			mutate: func(c *Config) {
				c.Storage.Backend = "file"
				c.Storage.Path = ""
			},
			wantErr: "storage path must be specified",
		},
		{
			name: "cors enabled without origins",
			mutate: func(c *Config) {
				c.CORS.Enabled = true
				c.CORS.AllowedOrigins = nil
			},
			wantErr: "allowed_origins must be specified",
		},
		{
			name: "cors wildcard origin",
			mutate: func(c *Config) {
				c.CORS.Enabled = true
				c.CORS.AllowedOrigins = []string{"*"}
			},
			wantErr: "must not contain a wildcard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:8443", cfg.Address())

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 9000
	assert.Equal(t, "0.0.0.0:9000", cfg.Address())
}
