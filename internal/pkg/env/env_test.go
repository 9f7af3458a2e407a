package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupEnvFileExplicitPath(t *testing.T) {
	prev := Env
	t.Cleanup(func() { Env = prev })

	path := filepath.Join(t.TempDir(), "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("PAYMENT_WEBHOOK_SECRET=from-file\nPAYMENT_WEBHOOKS_ENABLED=yes\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "from-os")

	SetupEnvFile()

	assert.Equal(t, "from-file", GetEnv("PAYMENT_WEBHOOK_SECRET", ""))
	assert.True(t, GetBool("PAYMENT_WEBHOOKS_ENABLED", false))
}

func TestSetupEnvFileMissingFallsBackToOS(t *testing.T) {
	prev := Env
	t.Cleanup(func() { Env = prev })

	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("WEBHOOK_RATE_LIMIT", "42")

	SetupEnvFile()

	assert.Empty(t, Env)
	assert.Equal(t, "42", GetEnv("WEBHOOK_RATE_LIMIT", "120"))
	assert.Equal(t, "fallback", GetEnv("EVENTFOX_UNSET_KEY", "fallback"))
}
