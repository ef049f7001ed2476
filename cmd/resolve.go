package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tranvictor/saddle/config"
	"github.com/tranvictor/saddle/networks"
	"github.com/tranvictor/saddle/resolver"
)

type resolvedOutput struct {
	Environment string            `json:"environment"`
	Session     string            `json:"session"`
	Provider    string            `json:"provider"`
	Account     string            `json:"account"`
	PrivateKey  bool              `json:"account_from_private_key"`
	Gas         uint64            `json:"gas"`
	GasPrice    string            `json:"gas_price"`
	Options     map[string]any    `json:"options"`
	Sources     map[string]string `json:"sources"`
}

func newResolvedOutput(b *networks.Bundle) (resolvedOutput, error) {
	out := resolvedOutput{
		Environment: b.Environment(),
		Session:     b.SessionID().String(),
		Provider:    b.Provider(),
		Account:     b.Account(),
		Gas:         b.Gas(),
		GasPrice:    b.GasPrice().String(),
		Options:     b.Options(),
		Sources:     map[string]string{},
	}
	// a key file must never reach the terminal, show its address instead
	if b.AccountIsPrivateKey() {
		addr, err := b.AccountAddress()
		if err != nil {
			return out, err
		}
		out.Account = addr.Hex()
		out.PrivateKey = true
	}
	for _, param := range networks.Parameters {
		if d, ok := b.Source(param); ok {
			out.Sources[param] = d.String()
		}
	}
	return out, nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve provider, account, gas and gas price of an environment",
	Long: `Resolve every runtime parameter of the environment given by --network.
Sources are tried in order and the first one that yields a value wins. When
every source of a parameter fails, all attempts are listed.

Ephemeral nodes spawned for the "test" environment are stopped when the
command exits, unless --keep-alive is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.Timeout)
		defer cancel()

		stop := appUI.Spinner(fmt.Sprintf("Resolving %s...", config.Network))
		bundle, err := registry.ResolveAll(ctx, config.Network,
			networks.WithSources(sources()),
			networks.WithLogger(log),
		)
		stop()
		if err != nil {
			printResolveError(err)
			return err
		}
		defer func() {
			if err := bundle.Close(); err != nil {
				appUI.Warn("Couldn't stop spawned node: %s", err)
			}
		}()

		out, err := newResolvedOutput(bundle)
		if err != nil {
			return err
		}
		if config.JSONOutput {
			if err := printJSON(out); err != nil {
				return err
			}
		} else {
			printResolved(out)
		}

		if config.KeepAlive && bundle.SpawnedNodes() > 0 {
			waitForInterrupt(cmd.Context(), bundle.Provider())
		}
		return nil
	},
}

func printResolved(out resolvedOutput) {
	appUI.Section(fmt.Sprintf("Environment %s", out.Environment))
	account := out.Account
	if out.PrivateKey {
		account += " (private key)"
	}
	appUI.Table([]string{"PARAMETER", "VALUE", "SOURCE"}, [][]string{
		{networks.ParamProvider, out.Provider, out.Sources[networks.ParamProvider]},
		{networks.ParamAccounts, account, out.Sources[networks.ParamAccounts]},
		{networks.ParamGas, fmt.Sprintf("%d", out.Gas), out.Sources[networks.ParamGas]},
		{networks.ParamGasPrice, out.GasPrice, out.Sources[networks.ParamGasPrice]},
	})
	if len(out.Options) > 0 {
		keys := make([]string, 0, len(out.Options))
		for k := range out.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := [][2]string{}
		for _, k := range keys {
			rows = append(rows, [2]string{k, fmt.Sprint(out.Options[k])})
		}
		appUI.Info("Options:")
		appUI.Indent().KeyValue(rows)
	}
	appUI.Info("Session: %s", out.Session)
}

// printResolveError lists the attempts of every parameter that could not be
// resolved.
func printResolveError(err error) {
	exhausted := exhaustedErrors(err)
	if len(exhausted) == 0 {
		appUI.Error("Couldn't resolve %s: %s", config.Network, err)
		return
	}
	appUI.Error("Couldn't resolve %s:", config.Network)
	groups := [][][]string{}
	for _, e := range exhausted {
		group := [][]string{}
		for i, f := range e.Attempts {
			group = append(group, []string{e.Parameter, fmt.Sprintf("%d", i+1), f.Descriptor.String(), f.Err.Error()})
		}
		if e.Err != nil {
			group = append(group, []string{e.Parameter, "-", "stopped", e.Err.Error()})
		}
		groups = append(groups, group)
	}
	appUI.Indent().TableWithGroups([]string{"PARAMETER", "#", "SOURCE", "ERROR"}, groups)
}

func exhaustedErrors(err error) []*resolver.ExhaustedError {
	if e, ok := err.(*resolver.ExhaustedError); ok {
		return []*resolver.ExhaustedError{e}
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		res := []*resolver.ExhaustedError{}
		for _, inner := range x.Unwrap() {
			res = append(res, exhaustedErrors(inner)...)
		}
		return res
	case interface{ Unwrap() error }:
		return exhaustedErrors(x.Unwrap())
	}
	return nil
}

func waitForInterrupt(ctx context.Context, endpoint string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	appUI.Success("Node is running at %s, press Ctrl+C to stop it.", endpoint)
	<-ctx.Done()
}

func init() {
	AddOutputFlags(resolveCmd)
	AddResolveFlags(resolveCmd)
	rootCmd.AddCommand(resolveCmd)
}
