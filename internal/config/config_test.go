package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DOMAINS", "example.com,example.org")
	t.Setenv("PIN_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com", "example.org"}, cfg.Domains)
	assert.Equal(t, []string{"admin", "root", "berni"}, cfg.ReservedNames)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 3030, cfg.Port)
	assert.Equal(t, "socks5://127.0.0.1:9050", cfg.TorProxyURL)
	assert.True(t, cfg.AllowInsecureTLS)
	assert.Equal(t, 180*time.Second, cfg.InvoiceTimeout)
}

func TestLoadConfigRequiresDomains(t *testing.T) {
	t.Setenv("DOMAINS", "")
	t.Setenv("PIN_SECRET", "s3cret")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRequiresPinSecret(t *testing.T) {
	t.Setenv("DOMAINS", "example.com")
	t.Setenv("PIN_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsOutOfRangeTimeout(t *testing.T) {
	t.Setenv("DOMAINS", "example.com")
	t.Setenv("PIN_SECRET", "s3cret")
	t.Setenv("INVOICE_TIMEOUT_SECONDS", "5")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestCSVValuesAreTrimmed(t *testing.T) {
	t.Setenv("DOMAINS", "example.com")
	t.Setenv("PIN_SECRET", "s3cret")
	t.Setenv("RESERVED_NAMES", "one, two , three")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, cfg.ReservedNames)
}

func TestHelpers(t *testing.T) {
	cfg := &Config{
		Domains:       []string{"example.com"},
		ReservedNames: []string{"admin"},
	}

	assert.True(t, cfg.HasDomain("example.com"))
	assert.False(t, cfg.HasDomain("evil.example"))
	assert.True(t, cfg.IsReservedName("admin"))
	assert.False(t, cfg.IsReservedName("alice"))
}
