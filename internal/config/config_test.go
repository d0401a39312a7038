package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://efiling.tax.gov.kh/gdtefilingweb", cfg.PortalBaseURL)
	assert.Equal(t, 30*time.Second, cfg.PortalTimeout)
	assert.Equal(t, 10*time.Minute, cfg.BatchTimeout)
	assert.False(t, cfg.CacheCompanyLookups)
	assert.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
	assert.Equal(t, "Invoices", cfg.GoogleSheetWorksheet)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORTAL_BASE_URL", "http://localhost:9999/portal")
	t.Setenv("PORTAL_TIMEOUT", "5s")
	t.Setenv("CACHE_COMPANY_LOOKUPS", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/portal", cfg.PortalBaseURL)
	assert.Equal(t, 5*time.Second, cfg.PortalTimeout)
	assert.True(t, cfg.CacheCompanyLookups)
	assert.Equal(t, "debug", cfg.GetLoggerConfig().Level)
}

func TestLoadRejectsRelativePortalURL(t *testing.T) {
	t.Setenv("PORTAL_BASE_URL", "gdtefilingweb")

	_, err := Load()
	assert.ErrorContains(t, err, "PORTAL_BASE_URL")
}

func TestValidateTimeouts(t *testing.T) {
	cfg := Default()
	cfg.BatchTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxBodyBytes = -1
	assert.Error(t, cfg.Validate())
}
