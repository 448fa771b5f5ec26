package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatflowers/masterclass/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")
	t.Setenv("APP_STRIPE_MONTHLY_PRICE_ID", "price_month")
	t.Setenv("APP_RATE_LIMIT_WINDOW", "2m")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvDev, c.Env)
	require.Equal(t, 8888, c.Server.Port)
	require.Equal(t, 3, c.RateLimit.Limit)
	require.Equal(t, 2*time.Minute, c.RateLimit.Window)
	require.Equal(t, "usd", c.Stripe.Currency)
	require.Equal(t, "price_month", c.PlanPriceID(types.PlanPeriodMonth))
	require.Empty(t, c.PlanPriceID(types.PlanPeriodYear))
	require.Empty(t, c.PlanPriceID("week"))
}

func TestValidate_RejectsBadValues(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")
	c, err := New()
	require.NoError(t, err)

	c.RateLimit.Limit = 0
	require.Error(t, Validate(c))

	c.RateLimit.Limit = 3
	c.Stripe.Currency = "dollars"
	require.Error(t, Validate(c))
}

func TestPublicURL(t *testing.T) {
	c := &Config{App: AppConfig{PublicURL: "https://masterclass.dev/"}}
	require.Equal(t, "https://masterclass.dev/billing", c.PublicURL("/billing"))
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNew_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "server:\n  port: 9090\nstripe:\n  currency: eur\n")
	t.Chdir(dir)
	t.Setenv("APP_CONFIG_NAME", "")
	t.Setenv("APP_CONFIG_FILE", "")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, 9090, c.Server.Port)
	require.Equal(t, "eur", c.Stripe.Currency)
}

func TestNew_MalformedConfigFileFails(t *testing.T) {
	const malformed = "server:\n  port: [unterminated\n\tbad"

	t.Run("default search path", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, malformed)
		t.Chdir(dir)
		t.Setenv("APP_CONFIG_NAME", "")
		t.Setenv("APP_CONFIG_FILE", "")

		c, err := New()
		require.Error(t, err)
		require.Nil(t, c)
	})

	t.Run("explicit file", func(t *testing.T) {
		t.Setenv("APP_CONFIG_FILE", writeConfig(t, t.TempDir(), malformed))

		_, err := New()
		require.Error(t, err)
	})

	t.Run("explicit file missing", func(t *testing.T) {
		t.Setenv("APP_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := New()
		require.Error(t, err)
	})
}
