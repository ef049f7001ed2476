package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s := LoadSettings(lookupFrom(nil))
	require.Equal(t, ".build", s.BuildDir)
	require.Equal(t, []string{"contracts/*.sol", "contracts/**/*.sol", "tests/contracts/*.sol"}, s.Contracts)
	require.Equal(t, []string{"**/tests/*Test.js"}, s.Tests)
}

func TestLoadSettingsFromEnv(t *testing.T) {
	s := LoadSettings(lookupFrom(map[string]string{
		"SADDLE_BUILD":     " out ",
		"SADDLE_CONTRACTS": "src/*.sol  lib/*.sol",
	}))
	require.Equal(t, "out", s.BuildDir)
	require.Equal(t, []string{"src/*.sol", "lib/*.sol"}, s.Contracts)
}

func TestLoadSettingsBlankIsUnset(t *testing.T) {
	s := LoadSettings(lookupFrom(map[string]string{"SADDLE_BUILD": "  "}))
	require.Equal(t, DEFAULT_BUILD_DIR, s.BuildDir)
}

func TestLoadSettingsProcessEnv(t *testing.T) {
	t.Setenv("SADDLE_BUILD", "dist")
	require.Equal(t, "dist", LoadSettings(nil).BuildDir)
}
