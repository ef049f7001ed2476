package devnet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestArgsAnvil(t *testing.T) {
	s := NewSpawner()
	got := s.Args(map[string]any{"gasLimit": 80000000, "chainId": 1337, "port": 9999, "noMining": true}, 8545)
	want := []string{
		"--host", "127.0.0.1", "--port", "8545",
		"--chain-id", "1337",
		"--gas-limit", "80000000",
		"--no-mining",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v\nwant %v", got, want)
	}
}

func TestArgsGanache(t *testing.T) {
	s := NewSpawner(WithCommand("/usr/local/bin/ganache-cli"))
	got := s.Args(map[string]any{"gasLimit": 80000000, "deterministic": false}, 7545)
	want := []string{"--host", "127.0.0.1", "--port", "7545", "--gasLimit", "80000000"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v\nwant %v", got, want)
	}
}

func TestPortOption(t *testing.T) {
	for _, raw := range []any{8545, int64(8545), float64(8545), "8545"} {
		port, err := portOption(map[string]any{"port": raw})
		if err != nil || port != 8545 {
			t.Fatalf("%T: got %d, %v", raw, port, err)
		}
	}
	if _, err := portOption(map[string]any{"port": "http"}); err == nil {
		t.Fatalf("expected an error for a non numeric port")
	}
}

func TestSpawnMissingBinary(t *testing.T) {
	s := NewSpawner(WithCommand(filepath.Join(t.TempDir(), "no-such-anvil")))
	if _, err := s.Spawn(context.Background(), nil); err == nil {
		t.Fatalf("expected an error when the binary does not exist")
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-anvil")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("write script: %s", err)
	}
	return path
}

func TestSpawnExitsEarly(t *testing.T) {
	s := NewSpawner(
		WithCommand(writeScript(t, "echo 'Error: address already in use' >&2; exit 1")),
		WithPing(func(ctx context.Context, endpoint string) error { return errors.New("connection refused") }),
		WithStartTimeout(5*time.Second),
	)
	_, err := s.Spawn(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "address already in use") {
		t.Fatalf("expected the process output in the error, got %v", err)
	}
}

func TestSpawnNotReady(t *testing.T) {
	s := NewSpawner(
		WithCommand(writeScript(t, "exec sleep 30")),
		WithPing(func(ctx context.Context, endpoint string) error { return errors.New("connection refused") }),
		WithStartTimeout(300*time.Millisecond),
	)
	_, err := s.Spawn(context.Background(), nil)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestSpawnAndClose(t *testing.T) {
	var pinged string
	s := NewSpawner(
		WithCommand(writeScript(t, "exec sleep 30")),
		WithPing(func(ctx context.Context, endpoint string) error {
			pinged = endpoint
			return nil
		}),
	)
	node, err := s.Spawn(context.Background(), map[string]any{"port": 18545})
	if err != nil {
		t.Fatalf("spawn: %s", err)
	}
	if node.Endpoint() != "http://127.0.0.1:18545" || pinged != node.Endpoint() {
		t.Fatalf("endpoint %s, pinged %s", node.Endpoint(), pinged)
	}
	if err := node.Close(); err != nil {
		t.Fatalf("close: %s", err)
	}
	if err := node.Close(); err != nil {
		t.Fatalf("second close: %s", err)
	}
}
