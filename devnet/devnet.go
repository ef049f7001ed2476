// Package devnet spawns throwaway local chains (anvil or ganache) for test
// environments and tears them down again.
package devnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/tranvictor/saddle/reader"
	"github.com/tranvictor/saddle/source"
)

const (
	DEFAULT_COMMAND       string        = "anvil"
	DEFAULT_HOST          string        = "127.0.0.1"
	DEFAULT_START_TIMEOUT time.Duration = 15 * time.Second
	pollInterval          time.Duration = 200 * time.Millisecond
)

var ErrNotReady = errors.New("node did not become ready")

type Option func(*Spawner)

func WithCommand(command string) Option {
	return func(s *Spawner) { s.command = command }
}

func WithStartTimeout(d time.Duration) Option {
	return func(s *Spawner) { s.startTimeout = d }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Spawner) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPing replaces the readiness probe. The default sends eth_chainId.
func WithPing(ping func(ctx context.Context, endpoint string) error) Option {
	return func(s *Spawner) { s.ping = ping }
}

// Spawner starts one local node process per Spawn call.
type Spawner struct {
	command      string
	host         string
	startTimeout time.Duration
	log          *zap.SugaredLogger
	ping         func(ctx context.Context, endpoint string) error
}

func NewSpawner(opts ...Option) *Spawner {
	s := &Spawner{
		command:      DEFAULT_COMMAND,
		host:         DEFAULT_HOST,
		startTimeout: DEFAULT_START_TIMEOUT,
		log:          zap.NewNop().Sugar(),
		ping:         reader.Ping,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn starts the node with options translated to command line flags and
// blocks until it answers JSON-RPC or the start timeout passes.
func (s *Spawner) Spawn(ctx context.Context, options map[string]any) (source.Node, error) {
	port, err := portOption(options)
	if err != nil {
		return nil, err
	}
	if port == 0 {
		port, err = freePort(s.host)
		if err != nil {
			return nil, fmt.Errorf("pick a free port: %w", err)
		}
	}

	args := s.Args(options, port)
	cmd := exec.Command(s.command, args...)
	tail := &tailBuffer{limit: 4096}
	cmd.Stdout = tail
	cmd.Stderr = tail
	cmd.WaitDelay = 2 * time.Second

	s.log.Debugw("spawning ephemeral node", "command", s.command, "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", s.command, err)
	}

	node := &Node{
		cmd:      cmd,
		endpoint: fmt.Sprintf("http://%s", net.JoinHostPort(s.host, strconv.Itoa(port))),
		output:   tail,
		exited:   make(chan struct{}),
	}
	go func() {
		node.waitErr = cmd.Wait()
		close(node.exited)
	}()

	if err := s.waitReady(ctx, node); err != nil {
		node.Close()
		return nil, err
	}
	s.log.Infow("ephemeral node ready", "endpoint", node.endpoint, "pid", cmd.Process.Pid)
	return node, nil
}

func (s *Spawner) waitReady(ctx context.Context, node *Node) error {
	deadline, cancel := context.WithTimeout(ctx, s.startTimeout)
	defer cancel()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if err := s.ping(deadline, node.endpoint); err == nil {
			return nil
		}
		select {
		case <-node.exited:
			return fmt.Errorf("%s exited before becoming ready (%v): %s", s.command, node.waitErr, node.output.String())
		case <-deadline.Done():
			return fmt.Errorf("%w at %s within %s: %s", ErrNotReady, node.endpoint, s.startTimeout, node.output.String())
		case <-ticker.C:
		}
	}
}

// Args translates declarative options into flags. anvil takes kebab-case
// flags (gasLimit becomes --gas-limit); ganache keeps the option names.
func (s *Spawner) Args(options map[string]any, port int) []string {
	ganache := strings.Contains(filepath.Base(s.command), "ganache")
	args := []string{"--host", s.host, "--port", strconv.Itoa(port)}

	keys := make([]string, 0, len(options))
	for k := range options {
		if k == "port" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		flag := "--" + kebab(k)
		if ganache {
			flag = "--" + k
		}
		switch v := options[k].(type) {
		case bool:
			if v {
				args = append(args, flag)
			}
		default:
			args = append(args, flag, fmt.Sprint(v))
		}
	}
	return args
}

func kebab(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func portOption(options map[string]any) (int, error) {
	raw, ok := options["port"]
	if !ok {
		return 0, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid port %q: %w", v, err)
		}
		return port, nil
	default:
		return 0, fmt.Errorf("invalid port %v", raw)
	}
}

func freePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Node is a running node process.
type Node struct {
	cmd      *exec.Cmd
	endpoint string
	output   *tailBuffer
	exited   chan struct{}
	waitErr  error
	once     sync.Once
}

func (n *Node) Endpoint() string {
	return n.endpoint
}

// Close kills the process and waits for it to exit. It is safe to call more
// than once.
func (n *Node) Close() error {
	var err error
	n.once.Do(func() {
		select {
		case <-n.exited:
			return
		default:
		}
		if killErr := n.cmd.Process.Kill(); killErr != nil {
			err = fmt.Errorf("kill node %s: %w", n.endpoint, killErr)
			return
		}
		<-n.exited
	})
	return err
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
