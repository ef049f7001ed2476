package cmd

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tranvictor/saddle/config"
	"github.com/tranvictor/saddle/networks"
	"github.com/tranvictor/saddle/source"
	"github.com/tranvictor/saddle/ui"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fakeAccounts []common.Address

func (f fakeAccounts) Accounts(ctx context.Context, endpoint string) ([]common.Address, error) {
	return f, nil
}

type testEnv struct {
	profileDir string
	vars       map[string]string
	files      map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	return &testEnv{
		profileDir: t.TempDir(),
		vars:       map[string]string{},
		files:      map[string]string{},
	}
}

func (e *testEnv) sources() *source.Sources {
	return &source.Sources{
		LookupEnv: func(key string) (string, bool) {
			v, ok := e.vars[key]
			return v, ok
		},
		ReadFile: func(path string) ([]byte, error) {
			content, ok := e.files[path]
			if !ok {
				return nil, fs.ErrNotExist
			}
			return []byte(content), nil
		},
		HomeDir:  func() (string, error) { return "/home/alice", nil },
		Accounts: fakeAccounts{common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1")},
	}
}

// run executes the root command with args and records everything it prints.
func (e *testEnv) run(t *testing.T, args ...string) (*ui.RecordingUI, error) {
	t.Helper()
	rec := ui.NewRecordingUI()
	prevUI, prevSources := appUI, newSources
	appUI = rec
	newSources = func(*zap.SugaredLogger) *source.Sources { return e.sources() }
	t.Cleanup(func() {
		appUI, newSources = prevUI, prevSources
	})

	config.Network = config.DEFAULT_NETWORK
	config.ProfileDir = e.profileDir
	config.WorkDir = "."
	config.Verbose = false
	config.JSONOutput = false
	config.Timeout = config.DEFAULT_TIMEOUT
	config.KeepAlive = false
	config.Renames = nil
	NetworkConfig = ""
	NetworkForce = false

	rootCmd.SetArgs(args)
	return rec, rootCmd.Execute()
}

func TestResolveDevelopmentJSON(t *testing.T) {
	env := newTestEnv(t)
	env.vars["GAS_PRICE"] = "9000000000"

	rec, err := env.run(t, "resolve", "--json")
	require.NoError(t, err)

	var out resolvedOutput
	require.NoError(t, json.Unmarshal([]byte(rec.Output()), &out))
	require.Equal(t, "development", out.Environment)
	require.Equal(t, "HTTP://127.0.0.1:7545", out.Provider)
	require.Equal(t, "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1", out.Account)
	require.Equal(t, uint64(4600000), out.Gas)
	require.Equal(t, "9000000000", out.GasPrice)
	require.Equal(t, "env(GAS_PRICE)", out.Sources[networks.ParamGasPrice])
	require.Equal(t, "http(HTTP://127.0.0.1:7545)", out.Sources[networks.ParamProvider])
}

func TestResolveNeverPrintsPrivateKey(t *testing.T) {
	env := newTestEnv(t)
	env.files["/home/alice/.ethereum/mainnet-url"] = "https://infura.example/v3/key"
	env.files["/home/alice/.ethereum/mainnet"] = testKey

	rec, err := env.run(t, "resolve", "-k", "mainnet")
	require.NoError(t, err)
	require.True(t, rec.HasMessage("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266 (private key)"))
	require.True(t, rec.HasMessage("file(~/.ethereum/mainnet)"))
	for _, e := range rec.Entries() {
		require.NotContains(t, strings.ToLower(e.Value), testKey)
	}
	require.NotContains(t, rec.Output(), testKey)
}

func TestResolveListsEveryAttempt(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.run(t, "resolve", "--network", "mainnet")
	require.Error(t, err)
	require.Contains(t, err.Error(), "mainnet")
	require.Equal(t, []string{"Couldn't resolve mainnet:"}, rec.Messages("Error"))

	rows := rec.Messages("TableRow")
	require.Len(t, rows, 2)
	require.True(t, strings.HasPrefix(rows[0], "accounts | 1 | env(ACCOUNT) | "))
	require.True(t, strings.HasPrefix(rows[1], "accounts | 2 | file(~/.ethereum/mainnet) | "))
}

func TestResolveUnknownEnvironment(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "resolve", "-k", "staging")
	require.ErrorIs(t, err, networks.ErrUnknownEnvironment)
}

func TestNetworkList(t *testing.T) {
	env := newTestEnv(t)
	rec, err := env.run(t, "network", "list")
	require.NoError(t, err)

	rows := rec.Messages("TableRow")
	require.Len(t, rows, 5)
	require.Equal(t, "development |  | [env(PROVIDER), http(HTTP://127.0.0.1:7545)]", rows[0])
}

func TestNetworkAddThenShow(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(t.TempDir(), "staging.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
networks:
  staging:
    alternative_names: [stage]
    providers:
      - env: PROVIDER
      - http: https://staging.example
    accounts:
      - unlocked: 0
    gas:
      - default: "6000000"
    gas_price:
      - default: "1000000000"
`), 0644))

	rec, err := env.run(t, "network", "add", "--config", file)
	require.NoError(t, err)
	require.True(t, rec.HasMessage("Environment staging added"))
	require.FileExists(t, filepath.Join(env.profileDir, "staging.yaml"))

	_, err = env.run(t, "network", "add", "--config", file)
	require.ErrorContains(t, err, "already exists")

	rec, err = env.run(t, "network", "show", "stage")
	require.NoError(t, err)
	require.Contains(t, rec.Messages("TableRow"), "provider | 2 | http(https://staging.example)")
	require.Contains(t, rec.Output(), "staging:")

	rec, err = env.run(t, "resolve", "-k", "staging", "--json")
	require.NoError(t, err)
	require.Contains(t, rec.Output(), `"provider": "https://staging.example"`)
}

func TestNetworkAddInlineJSON(t *testing.T) {
	env := newTestEnv(t)
	doc := `{"networks": {"development": {
		"providers": [{"http": "http://localhost:8545"}],
		"accounts": [{"unlocked": 1}],
		"gas": [{"default": "6721975"}],
		"gas_price": [{"default": "20000000000"}]
	}}}`
	_, err := env.run(t, "network", "add", "-c", doc)
	require.ErrorContains(t, err, "use --force")

	rec, err := env.run(t, "network", "add", "-c", doc, "--force")
	require.NoError(t, err)
	require.True(t, rec.HasMessage("will be replaced"))

	rec, err = env.run(t, "network", "show", "--json")
	require.NoError(t, err)
	var p networks.Profile
	require.NoError(t, json.Unmarshal([]byte(rec.Output()), &p))
	require.Equal(t, "[http(http://localhost:8545)]", p.Providers.String())
}

func TestAddresses(t *testing.T) {
	env := newTestEnv(t)
	workdir := t.TempDir()
	dir := filepath.Join(workdir, "compound-config", "networks")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ropsten.json"),
		[]byte(`{"Contracts": {"PriceFeed": "0xABC", "cDAI": "0xDEF", "Unitroller": "0x123"}}`), 0644))

	rec, err := env.run(t, "addresses", "ropsten", "--workdir", workdir, "--rename", "Unitroller=Comptroller")
	require.NoError(t, err)
	require.Equal(t, []string{
		"Comptroller | 0x123",
		"UniswapAnchoredView | 0xABC",
		"cDAI | 0xDEF",
	}, rec.Messages("TableRow"))

	rec, err = env.run(t, "addresses", "ropsten", "--workdir", workdir, "--json")
	require.NoError(t, err)
	book := map[string]string{}
	require.NoError(t, json.Unmarshal([]byte(rec.Output()), &book))
	require.Equal(t, map[string]string{"UniswapAnchoredView": "0xABC", "cDAI": "0xDEF", "Unitroller": "0x123"}, book)

	rec, err = env.run(t, "addresses", "kovan", "--workdir", workdir)
	require.NoError(t, err)
	require.Len(t, rec.Messages("Warn"), 1)
	require.True(t, rec.HasMessage("No known deployments on kovan"))
}

func TestSettings(t *testing.T) {
	t.Setenv("SADDLE_BUILD", "out")
	t.Setenv("SADDLE_CONTRACTS", "")
	env := newTestEnv(t)

	rec, err := env.run(t, "settings", "--json")
	require.NoError(t, err)
	var s config.Settings
	require.NoError(t, json.Unmarshal([]byte(rec.Output()), &s))
	require.Equal(t, "out", s.BuildDir)
	require.Equal(t, []string{"contracts/*.sol", "contracts/**/*.sol", "tests/contracts/*.sol"}, s.Contracts)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	rec, err := env.run(t, "version")
	require.NoError(t, err)
	require.Equal(t, []string{"Version: " + VERSION}, rec.Messages("Info"))
}
