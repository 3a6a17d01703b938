package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("FIRECRAWL_API_KEY", "")
	t.Setenv("LANDAUCTION_CONFIG", filepath.Join(t.TempDir(), "missing.json5"))

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landauction.json5")
	err := os.WriteFile(path, []byte(`{
		// comments are fine in json5
		maxConcurrency: 8,
		listingLinkThreshold: 40,
		storeDriver: "sqlite",
	}`), 0o644)
	require.NoError(t, err)

	t.Setenv("LANDAUCTION_CONFIG", path)
	t.Setenv("FIRECRAWL_API_KEY", "fc-secret-1234")
	t.Setenv("MAX_CONCURRENCY", "5")
	t.Setenv("BROWSER_FALLBACK", "yes")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 5, cfg.MaxConcurrency, "env overrides file")
	require.Equal(t, 40, cfg.ListingLinkThreshold, "file overrides defaults")
	require.Equal(t, "sqlite", cfg.StoreDriver)
	require.True(t, cfg.BrowserFallback)
	require.Equal(t, 2, cfg.MaxRetries, "defaults survive")
	require.Equal(t, "**********1234", cfg.RedactedKey())
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Defaults()
	cfg.FirecrawlAPIKey = "k"
	cfg.StoreDriver = "mongo"
	require.Error(t, cfg.Validate())
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	cfg := Defaults()
	require.Contains(t, cfg.DSN(), "dbname=land_auctions")
	cfg.DatabaseURL = "postgres://u:p@db/x"
	require.Equal(t, "postgres://u:p@db/x", cfg.DSN())
}
