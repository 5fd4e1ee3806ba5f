package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetenvOrDefault(t *testing.T) {
	t.Setenv("GRIMOIRE_TEST_STR", "value")

	assert.Equal(t, "value", GetenvOrDefault("GRIMOIRE_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", GetenvOrDefault("GRIMOIRE_TEST_MISSING", "fallback"))

	t.Setenv("GRIMOIRE_TEST_BLANK", "   ")
	assert.Equal(t, "fallback", GetenvOrDefault("GRIMOIRE_TEST_BLANK", "fallback"))
}

func TestGetenvBoolOrDefault(t *testing.T) {
	t.Setenv("GRIMOIRE_TEST_BOOL", "true")

	assert.True(t, GetenvBoolOrDefault("GRIMOIRE_TEST_BOOL", false))
	assert.True(t, GetenvBoolOrDefault("GRIMOIRE_TEST_MISSING", true))

	t.Setenv("GRIMOIRE_TEST_BOOL_BAD", "not-a-bool")
	assert.False(t, GetenvBoolOrDefault("GRIMOIRE_TEST_BOOL_BAD", false))
}

func TestGetenvIntOrDefault(t *testing.T) {
	t.Setenv("GRIMOIRE_TEST_INT", "42")

	assert.Equal(t, int64(42), GetenvIntOrDefault("GRIMOIRE_TEST_INT", 7))
	assert.Equal(t, int64(7), GetenvIntOrDefault("GRIMOIRE_TEST_MISSING", 7))
}

func TestSetConfigFromEnvVars(t *testing.T) {
	type config struct {
		Name    string `env:"GRIMOIRE_TEST_NAME"`
		Port    int64  `env:"GRIMOIRE_TEST_PORT"`
		Enabled bool   `env:"GRIMOIRE_TEST_ENABLED"`
		Plain   string
	}

	t.Setenv("GRIMOIRE_TEST_NAME", "core")
	t.Setenv("GRIMOIRE_TEST_PORT", "3000")
	t.Setenv("GRIMOIRE_TEST_ENABLED", "true")

	cfg := &config{}
	require.NoError(t, SetConfigFromEnvVars(cfg))

	assert.Equal(t, "core", cfg.Name)
	assert.Equal(t, int64(3000), cfg.Port)
	assert.True(t, cfg.Enabled)
	assert.Empty(t, cfg.Plain)
}

func TestSetConfigFromEnvVarsRequiresPointer(t *testing.T) {
	type config struct{}

	assert.Error(t, SetConfigFromEnvVars(config{}))
}
