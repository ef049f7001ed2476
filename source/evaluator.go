package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Evaluator attempts exactly one descriptor.
type Evaluator interface {
	Evaluate(ctx context.Context, d Descriptor) (Value, error)
}

// Value is what a successful evaluation yields. Node is set only when the
// value came from a freshly spawned ephemeral node; whoever ends up holding
// the value owns its teardown.
type Value struct {
	Text string
	Node Node
}

// Node is a running ephemeral chain.
type Node interface {
	Endpoint() string
	Close() error
}

// NodeSpawner starts ephemeral nodes.
type NodeSpawner interface {
	Spawn(ctx context.Context, options map[string]any) (Node, error)
}

// AccountLister returns the accounts a node can sign for without a key.
type AccountLister interface {
	Accounts(ctx context.Context, endpoint string) ([]common.Address, error)
}

// ProviderFunc returns the endpoint unlocked-account queries are sent to.
type ProviderFunc func(ctx context.Context) (string, error)

// Sources is the production Evaluator. Every collaborator that performs I/O
// is a field so tests can count or fake it; nil fields fall back to the
// process environment and filesystem.
type Sources struct {
	LookupEnv func(key string) (string, bool)
	ReadFile  func(path string) ([]byte, error)
	HomeDir   func() (string, error)
	Accounts  AccountLister
	Spawner   NodeSpawner
	Provider  ProviderFunc
}

// WithProvider returns a copy of s whose unlocked-account queries go to the
// endpoint returned by p.
func (s *Sources) WithProvider(p ProviderFunc) *Sources {
	out := *s
	out.Provider = p
	return &out
}

func (s *Sources) Evaluate(ctx context.Context, d Descriptor) (Value, error) {
	switch d.Kind {
	case KindEnv:
		return s.evalEnv(d)
	case KindDefault:
		return Value{Text: d.Value}, nil
	case KindHTTP:
		return Value{Text: d.URL}, nil
	case KindFile:
		return s.evalFile(d)
	case KindUnlocked:
		return s.evalUnlocked(ctx, d)
	case KindEphemeral:
		return s.evalEphemeral(ctx, d)
	default:
		return Value{}, unavailable(d, "unsupported source kind %q", d.Kind)
	}
}

func (s *Sources) evalEnv(d Descriptor) (Value, error) {
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, found := lookup(d.Name)
	value = strings.TrimSpace(value)
	if !found || value == "" {
		return Value{}, unavailable(d, "environment variable %s is not set", d.Name)
	}
	return Value{Text: value}, nil
}

func (s *Sources) evalFile(d Descriptor) (Value, error) {
	path, err := s.expandHome(d.Path)
	if err != nil {
		return Value{}, unavailable(d, "expand path: %w", err)
	}
	read := s.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	content, err := read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Value{}, unavailable(d, "file %s does not exist", path)
	}
	if err != nil {
		return Value{}, unavailable(d, "read %s: %w", path, err)
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		return Value{}, unavailable(d, "file %s is empty", path)
	}
	return Value{Text: text}, nil
}

func (s *Sources) expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir := s.HomeDir
	if homeDir == nil {
		homeDir = currentHomeDir
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func currentHomeDir() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return usr.HomeDir, nil
}

func (s *Sources) evalUnlocked(ctx context.Context, d Descriptor) (Value, error) {
	if s.Provider == nil {
		return Value{}, unavailable(d, "no provider is connected")
	}
	if s.Accounts == nil {
		return Value{}, unavailable(d, "no account lister configured")
	}
	endpoint, err := s.Provider(ctx)
	if err != nil {
		return Value{}, unavailable(d, "provider unavailable: %w", err)
	}
	accounts, err := s.Accounts.Accounts(ctx, endpoint)
	if err != nil {
		return Value{}, unavailable(d, "list unlocked accounts at %s: %w", endpoint, err)
	}
	if d.Index < 0 || d.Index >= len(accounts) {
		return Value{}, unavailable(d, "index %d out of range, %s has %d unlocked accounts", d.Index, endpoint, len(accounts))
	}
	return Value{Text: accounts[d.Index].Hex()}, nil
}

func (s *Sources) evalEphemeral(ctx context.Context, d Descriptor) (Value, error) {
	if s.Spawner == nil {
		return Value{}, &Failure{Descriptor: d, Err: errors.New("no node spawner configured"), Fatal: true}
	}
	node, err := s.Spawner.Spawn(ctx, cloneOptions(d.Options))
	if err != nil {
		return Value{}, &Failure{Descriptor: d, Err: fmt.Errorf("spawn ephemeral node: %w", err), Fatal: true}
	}
	return Value{Text: node.Endpoint(), Node: node}, nil
}
