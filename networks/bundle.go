package networks

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tranvictor/saddle/devnet"
	"github.com/tranvictor/saddle/reader"
	"github.com/tranvictor/saddle/resolver"
	"github.com/tranvictor/saddle/source"
)

var ErrInvalidValue = errors.New("invalid resolved value")

// Bundle is the fully resolved runtime configuration of one environment for
// one session. Nodes spawned while resolving belong to the bundle; Close
// stops them.
type Bundle struct {
	environment string
	sessionID   uuid.UUID
	provider    string
	account     string
	gas         uint64
	gasPrice    *big.Int
	options     map[string]any
	sources     map[string]source.Descriptor
	nodes       []source.Node
}

func (b *Bundle) Environment() string { return b.environment }
func (b *Bundle) SessionID() uuid.UUID { return b.sessionID }
func (b *Bundle) Provider() string { return b.provider }
func (b *Bundle) Account() string { return b.account }
func (b *Bundle) Gas() uint64 { return b.gas }
func (b *Bundle) GasPrice() *big.Int { return new(big.Int).Set(b.gasPrice) }
func (b *Bundle) Options() map[string]any { return cloneOptions(b.options) }

// Source returns the descriptor that produced a parameter's value.
func (b *Bundle) Source(parameter string) (source.Descriptor, bool) {
	d, ok := b.sources[parameter]
	return d.Clone(), ok
}

// SpawnedNodes reports how many ephemeral nodes this bundle owns.
func (b *Bundle) SpawnedNodes() int {
	return len(b.nodes)
}

// AccountIsPrivateKey reports whether the account value is a raw secp256k1
// key rather than an address, as with a mainnet key file.
func (b *Bundle) AccountIsPrivateKey() bool {
	_, err := parsePrivateKey(b.account)
	return err == nil
}

// AccountAddress returns the address transactions will be sent from,
// deriving it when the account is a private key.
func (b *Bundle) AccountAddress() (common.Address, error) {
	if common.IsHexAddress(b.account) {
		return common.HexToAddress(b.account), nil
	}
	key, err := parsePrivateKey(b.account)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: account is neither an address nor a private key", ErrInvalidValue)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func parsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(hex) != 64 {
		return nil, fmt.Errorf("private key must be 32 bytes")
	}
	return crypto.HexToECDSA(hex)
}

// Close stops every node spawned for this bundle.
func (b *Bundle) Close() error {
	errs := []error{}
	for _, n := range b.nodes {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.nodes = nil
	return errors.Join(errs...)
}

type resolveConfig struct {
	sources *source.Sources
	log     *zap.SugaredLogger
}

type ResolveOption func(*resolveConfig)

// WithSources replaces the collaborators used to evaluate sources.
func WithSources(s *source.Sources) ResolveOption {
	return func(c *resolveConfig) { c.sources = s }
}

func WithLogger(l *zap.SugaredLogger) ResolveOption {
	return func(c *resolveConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// DefaultSources evaluates against the process environment, the local
// filesystem, JSON-RPC nodes and locally installed anvil.
func DefaultSources(log *zap.SugaredLogger) *source.Sources {
	return &source.Sources{
		Accounts: reader.RPCAccounts{},
		Spawner:  devnet.NewSpawner(devnet.WithLogger(log)),
	}
}

// promise hands the provider endpoint to unlocked-account sources once the
// provider parameter is resolved.
type promise struct {
	done  chan struct{}
	value string
	err   error
}

func newPromise() *promise {
	return &promise{done: make(chan struct{})}
}

func (p *promise) resolve(value string, err error) {
	p.value, p.err = value, err
	close(p.done)
}

func (p *promise) wait(ctx context.Context) (string, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ResolveAll resolves every parameter of the named environment. The four
// parameters resolve concurrently; an unlocked-account source waits for the
// provider only when it is reached. If any parameter fails, the error names
// the environment and carries each failing parameter's attempts, and nodes
// spawned during the call are stopped.
func (r *Registry) ResolveAll(ctx context.Context, name string, opts ...ResolveOption) (*Bundle, error) {
	profile, err := r.GetProfile(name)
	if err != nil {
		return nil, err
	}

	cfg := &resolveConfig{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.sources == nil {
		cfg.sources = DefaultSources(cfg.log)
	}

	provider := newPromise()
	log := resolver.WithLogger(cfg.log.With("environment", profile.Name))
	// an unlocked source inside the provider list has no provider to ask
	providerRes := resolver.New(cfg.sources.WithProvider(nil), log)
	res := resolver.New(cfg.sources.WithProvider(provider.wait), log)

	var (
		mu      sync.Mutex
		results = map[string]resolver.Result{}
	)
	store := func(param string, result resolver.Result, err error) error {
		if err != nil {
			return err
		}
		mu.Lock()
		results[param] = result
		mu.Unlock()
		return nil
	}
	task := func(param string) func() error {
		return func() error {
			if param == ParamProvider {
				result, err := providerRes.Resolve(ctx, param, profile.List(param))
				provider.resolve(result.Value.Text, err)
				return store(param, result, err)
			}
			result, err := res.Resolve(ctx, param, profile.List(param))
			return store(param, result, err)
		}
	}

	tasks := make([]func() error, len(Parameters))
	for i, param := range Parameters {
		tasks[i] = task(param)
	}
	err = runParallel(tasks...)

	bundle := &Bundle{
		environment: profile.Name,
		sessionID:   uuid.New(),
		options:     cloneOptions(profile.Options),
		sources:     map[string]source.Descriptor{},
	}
	for _, param := range Parameters {
		if result, ok := results[param]; ok {
			bundle.sources[param] = result.Source
			if result.Value.Node != nil {
				bundle.nodes = append(bundle.nodes, result.Value.Node)
			}
		}
	}
	if err == nil {
		err = bundle.fill(results)
	}
	if err != nil {
		if closeErr := bundle.Close(); closeErr != nil {
			cfg.log.Warnw("failed to stop spawned node", "error", closeErr)
		}
		return nil, fmt.Errorf("resolve environment '%s': %w", profile.Name, err)
	}

	cfg.log.Debugw("environment resolved", "environment", profile.Name, "session", bundle.sessionID.String())
	return bundle, nil
}

func (b *Bundle) fill(results map[string]resolver.Result) error {
	b.provider = results[ParamProvider].Value.Text
	b.account = results[ParamAccounts].Value.Text

	gasText := results[ParamGas].Value.Text
	gas, err := strconv.ParseUint(gasText, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s %q from %s is not an unsigned integer", ErrInvalidValue, ParamGas, gasText, results[ParamGas].Source)
	}
	b.gas = gas

	priceText := results[ParamGasPrice].Value.Text
	price, ok := new(big.Int).SetString(priceText, 10)
	if !ok || price.Sign() < 0 {
		return fmt.Errorf("%w: %s %q from %s is not an unsigned integer", ErrInvalidValue, ParamGasPrice, priceText, results[ParamGasPrice].Source)
	}
	b.gasPrice = price
	return nil
}

// runParallel runs funcs concurrently and joins every error they return,
// in the order the funcs were given.
func runParallel(funcs ...func() error) error {
	var wg sync.WaitGroup
	errs := make([]error, len(funcs))
	for i, fn := range funcs {
		wg.Add(1)
		go func(i int, fn func() error) {
			defer wg.Done()
			errs[i] = fn()
		}(i, fn)
	}
	wg.Wait()
	return errors.Join(errs...)
}
