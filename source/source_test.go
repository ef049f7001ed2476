package source_test

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/tranvictor/saddle/source"
)

type fakeAccounts struct {
	accounts []common.Address
	err      error
	calls    int
	lastURL  string
}

func (f *fakeAccounts) Accounts(ctx context.Context, endpoint string) ([]common.Address, error) {
	f.calls++
	f.lastURL = endpoint
	return f.accounts, f.err
}

type fakeNode struct {
	endpoint string
	closed   bool
}

func (n *fakeNode) Endpoint() string { return n.endpoint }
func (n *fakeNode) Close() error     { n.closed = true; return nil }

type fakeSpawner struct {
	err     error
	calls   int
	options map[string]any
}

func (f *fakeSpawner) Spawn(ctx context.Context, options map[string]any) (source.Node, error) {
	f.calls++
	f.options = options
	if f.err != nil {
		return nil, f.err
	}
	return &fakeNode{endpoint: "http://127.0.0.1:8545"}, nil
}

func envFrom(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestEvaluateEnv(t *testing.T) {
	s := &source.Sources{LookupEnv: envFrom(map[string]string{
		"PROVIDER": " http://node:8545 ",
		"BLANK":    "   ",
	})}

	v, err := s.Evaluate(context.Background(), source.EnvVar("PROVIDER"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Text != "http://node:8545" {
		t.Fatalf("got %q", v.Text)
	}

	for _, name := range []string{"MISSING", "BLANK"} {
		_, err := s.Evaluate(context.Background(), source.EnvVar(name))
		if !errors.Is(err, source.ErrSourceUnavailable) {
			t.Fatalf("%s: expected ErrSourceUnavailable, got %v", name, err)
		}
		var failure *source.Failure
		if !errors.As(err, &failure) || failure.Descriptor.Name != name {
			t.Fatalf("%s: failure does not carry descriptor: %v", name, err)
		}
	}
}

func TestEvaluateDefaultAndHTTP(t *testing.T) {
	s := &source.Sources{}
	v, err := s.Evaluate(context.Background(), source.Default("4600000"))
	if err != nil || v.Text != "4600000" {
		t.Fatalf("default: got %q, %v", v.Text, err)
	}
	v, err = s.Evaluate(context.Background(), source.HTTP("HTTP://127.0.0.1:7545"))
	if err != nil || v.Text != "HTTP://127.0.0.1:7545" {
		t.Fatalf("http: got %q, %v", v.Text, err)
	}
}

func TestEvaluateFile(t *testing.T) {
	reads := []string{}
	files := map[string]string{
		"/home/alice/.ethereum/mainnet-url": "https://infura.example/key\n",
		"/home/alice/empty":                 "  \n",
	}
	s := &source.Sources{
		HomeDir: func() (string, error) { return "/home/alice", nil },
		ReadFile: func(path string) ([]byte, error) {
			reads = append(reads, path)
			content, ok := files[path]
			if !ok {
				return nil, fs.ErrNotExist
			}
			return []byte(content), nil
		},
	}

	v, err := s.Evaluate(context.Background(), source.File("~/.ethereum/mainnet-url"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Text != "https://infura.example/key" {
		t.Fatalf("got %q", v.Text)
	}
	if reads[0] != "/home/alice/.ethereum/mainnet-url" {
		t.Fatalf("home not expanded: %s", reads[0])
	}

	_, err = s.Evaluate(context.Background(), source.File("~/.ethereum/mainnet"))
	if !errors.Is(err, source.ErrSourceUnavailable) || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("missing file: got %v", err)
	}

	_, err = s.Evaluate(context.Background(), source.File("/home/alice/empty"))
	if !errors.Is(err, source.ErrSourceUnavailable) || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("empty file: got %v", err)
	}
}

func TestEvaluateUnlocked(t *testing.T) {
	first := common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1")
	second := common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0")
	lister := &fakeAccounts{accounts: []common.Address{first, second}}
	s := (&source.Sources{Accounts: lister}).WithProvider(func(ctx context.Context) (string, error) {
		return "http://127.0.0.1:7545", nil
	})

	v, err := s.Evaluate(context.Background(), source.Unlocked(1))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Text != second.Hex() {
		t.Fatalf("got %s, want %s", v.Text, second.Hex())
	}
	if lister.lastURL != "http://127.0.0.1:7545" {
		t.Fatalf("queried %s", lister.lastURL)
	}

	_, err = s.Evaluate(context.Background(), source.Unlocked(2))
	if !errors.Is(err, source.ErrSourceUnavailable) || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("out of range: got %v", err)
	}

	failing := (&source.Sources{Accounts: lister}).WithProvider(func(ctx context.Context) (string, error) {
		return "", errors.New("provider exhausted")
	})
	calls := lister.calls
	_, err = failing.Evaluate(context.Background(), source.Unlocked(0))
	if !errors.Is(err, source.ErrSourceUnavailable) {
		t.Fatalf("expected failure, got %v", err)
	}
	if lister.calls != calls {
		t.Fatalf("accounts queried although provider failed")
	}

	_, err = (&source.Sources{Accounts: lister}).Evaluate(context.Background(), source.Unlocked(0))
	if !errors.Is(err, source.ErrSourceUnavailable) {
		t.Fatalf("no provider: got %v", err)
	}
}

func TestEvaluateEphemeral(t *testing.T) {
	spawner := &fakeSpawner{}
	s := &source.Sources{Spawner: spawner}

	v, err := s.Evaluate(context.Background(), source.Ephemeral(map[string]any{"gasLimit": 80000000}))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Text != "http://127.0.0.1:8545" || v.Node == nil {
		t.Fatalf("got %+v", v)
	}
	if spawner.options["gasLimit"] != 80000000 {
		t.Fatalf("options not forwarded: %v", spawner.options)
	}

	spawner.err = errors.New("anvil: executable file not found")
	_, err = s.Evaluate(context.Background(), source.Ephemeral(nil))
	var failure *source.Failure
	if !errors.As(err, &failure) || !failure.Fatal {
		t.Fatalf("spawn failure should be fatal, got %v", err)
	}
}

func TestDescriptorDecoding(t *testing.T) {
	const doc = `
- env: PROVIDER
- default: 4600000
- file: ~/.ethereum/mainnet
- http: HTTP://127.0.0.1:7545
- unlocked: 0
- ganache:
    gasLimit: 80000000
`
	var list source.List
	if err := yaml.Unmarshal([]byte(doc), &list); err != nil {
		t.Fatalf("decode yaml: %s", err)
	}
	want := []string{
		"env(PROVIDER)",
		"default(4600000)",
		"file(~/.ethereum/mainnet)",
		"http(HTTP://127.0.0.1:7545)",
		"unlocked(0)",
		"ephemeral(gasLimit=80000000)",
	}
	if len(list) != len(want) {
		t.Fatalf("got %d descriptors", len(list))
	}
	for i, d := range list {
		if d.String() != want[i] {
			t.Errorf("descriptor %d: got %s, want %s", i, d, want[i])
		}
	}

	var fromJSON source.List
	if err := json.Unmarshal([]byte(`[{"env":"GAS"},{"default":"8000000"},{"anvil":{"gasLimit":80000000}}]`), &fromJSON); err != nil {
		t.Fatalf("decode json: %s", err)
	}
	if fromJSON.String() != "[env(GAS), default(8000000), ephemeral(gasLimit=80000000)]" {
		t.Fatalf("got %s", fromJSON)
	}
}

func TestDescriptorDecodingErrors(t *testing.T) {
	cases := map[string]string{
		"two keys":       `{"env":"A","default":"B"}`,
		"no keys":        `{}`,
		"unknown kind":   `{"ipc":"/tmp/geth.ipc"}`,
		"negative index": `{"unlocked":-1}`,
		"empty env":      `{"env":""}`,
		"bad options":    `{"ganache":3}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			var d source.Descriptor
			if err := json.Unmarshal([]byte(doc), &d); err == nil {
				t.Fatalf("expected error, got %s", d)
			}
		})
	}
}
