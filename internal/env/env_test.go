package env_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafeops/shiftdeck/internal/env"
)

type flatConfig struct {
	Name     string        `env:"TEST_NAME"`
	Port     int           `env:"TEST_PORT"`
	Debug    bool          `env:"TEST_DEBUG"`
	Ratio    float64       `env:"TEST_RATIO"`
	Timeout  time.Duration `env:"TEST_TIMEOUT"`
	Untagged string
}

func TestLoad_AllSupportedTypes(t *testing.T) {
	t.Setenv("TEST_NAME", "shiftdeck")
	t.Setenv("TEST_PORT", "8080")
	t.Setenv("TEST_DEBUG", "true")
	t.Setenv("TEST_RATIO", "0.75")
	t.Setenv("TEST_TIMEOUT", "1m30s")

	var cfg flatConfig
	require.NoError(t, env.Load(&cfg))

	assert.Equal(t, "shiftdeck", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 0.75, cfg.Ratio)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.Untagged)
}

func TestLoad_UnsetVariablesKeepExistingValues(t *testing.T) {
	cfg := flatConfig{Name: "default-name", Port: 9090}
	require.NoError(t, env.Load(&cfg))

	assert.Equal(t, "default-name", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoad_InvalidInt(t *testing.T) {
	t.Setenv("TEST_PORT", "not-a-number")

	var cfg flatConfig
	err := env.Load(&cfg)
	require.Error(t, err)

	var invalidErr env.ErrInvalidValue
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "Port", invalidErr.Field)
	assert.Equal(t, "TEST_PORT", invalidErr.EnvVar)
	assert.Equal(t, "not-a-number", invalidErr.Value)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "90")

	var cfg flatConfig
	err := env.Load(&cfg)

	var invalidErr env.ErrInvalidValue
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "TEST_TIMEOUT", invalidErr.EnvVar)
}

func TestLoad_NotStructPointer(t *testing.T) {
	var n int
	err := env.Load(&n)
	var typeErr env.ErrNotStructPointer
	assert.ErrorAs(t, err, &typeErr)

	err = env.Load(flatConfig{})
	assert.ErrorAs(t, err, &typeErr)
}

type nestedSection struct {
	Host string `env:"TEST_NESTED_HOST"`
}

type nestedConfig struct {
	Section nestedSection
	Label   string `env:"TEST_NESTED_LABEL"`
}

func TestLoad_NestedStruct(t *testing.T) {
	t.Setenv("TEST_NESTED_HOST", "db.internal")
	t.Setenv("TEST_NESTED_LABEL", "prod")

	var cfg nestedConfig
	require.NoError(t, env.Load(&cfg))

	assert.Equal(t, "db.internal", cfg.Section.Host)
	assert.Equal(t, "prod", cfg.Label)
}

var errHostRequired = errors.New("host is required")

type validatedSection struct {
	Host string `env:"TEST_VALIDATED_HOST"`
}

func (s *validatedSection) Validate() error {
	if s.Host == "" {
		return errHostRequired
	}
	return nil
}

type validatedConfig struct {
	Section validatedSection
}

func TestLoad_NestedValidation(t *testing.T) {
	var cfg validatedConfig
	err := env.Load(&cfg)
	assert.ErrorIs(t, err, errHostRequired)

	t.Setenv("TEST_VALIDATED_HOST", "ok")
	require.NoError(t, env.Load(&cfg))
	assert.Equal(t, "ok", cfg.Section.Host)
}

type unsupportedConfig struct {
	Tags []string `env:"TEST_TAGS"`
}

func TestLoad_UnsupportedType(t *testing.T) {
	t.Setenv("TEST_TAGS", "a,b")

	var cfg unsupportedConfig
	err := env.Load(&cfg)
	require.Error(t, err)

	var unsupportedErr env.ErrUnsupportedType
	assert.ErrorAs(t, err, &unsupportedErr)
}
