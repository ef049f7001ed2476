package config

import (
	"os"
	"strings"
	"time"
)

// Values bound to command line flags.
var (
	Network    string
	ProfileDir string
	WorkDir    string
	Verbose    bool
	JSONOutput bool
	Timeout    time.Duration
	KeepAlive  bool
	Renames    []string
)

const (
	BUILD_DIR_VAR = "SADDLE_BUILD"
	CONTRACTS_VAR = "SADDLE_CONTRACTS"

	DEFAULT_NETWORK   = "development"
	DEFAULT_BUILD_DIR = ".build"
	DEFAULT_CONTRACTS = "contracts/*.sol contracts/**/*.sol tests/contracts/*.sol"
	DEFAULT_TESTS     = "**/tests/*Test.js"
	DEFAULT_TIMEOUT   = 60 * time.Second
)

// Settings are the build locations shared by the compile and test commands
// of the toolchain.
type Settings struct {
	BuildDir  string   `json:"build_dir"`
	Contracts []string `json:"contracts"`
	Tests     []string `json:"tests"`
}

// LoadSettings reads the build settings from lookup, falling back to the
// defaults for unset or blank variables. A nil lookup reads the process
// environment.
func LoadSettings(lookup func(string) (string, bool)) Settings {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return Settings{
		BuildDir:  envOr(lookup, BUILD_DIR_VAR, DEFAULT_BUILD_DIR),
		Contracts: strings.Fields(envOr(lookup, CONTRACTS_VAR, DEFAULT_CONTRACTS)),
		Tests:     []string{DEFAULT_TESTS},
	}
}

func envOr(lookup func(string) (string, bool), key, def string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}
