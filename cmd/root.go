// Copyright © 2018 Victor Tran
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tranvictor/saddle/config"
	"github.com/tranvictor/saddle/logging"
	"github.com/tranvictor/saddle/networks"
	"github.com/tranvictor/saddle/source"
	"github.com/tranvictor/saddle/ui"
)

var (
	appUI    ui.UI = ui.NewTerminalUI()
	log            = logging.Nop()
	registry *networks.Registry

	// newSources builds the collaborators used to evaluate sources.
	newSources = networks.DefaultSources
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "saddle",
	Short: "Resolve the provider, account and gas settings of a deployment environment",
	Long: fmt.Sprintf(`Saddle resolves the runtime configuration a deployment needs for a named
environment: the RPC provider, the signing account, the gas limit and the gas
price. Each of them is looked up from an ordered list of sources, and the
first source that yields a value wins:

	1. an environment variable, e.g. PROVIDER, ACCOUNT, GAS, GAS_PRICE
	2. a file, e.g. ~/.ethereum/mainnet-url or ~/.ethereum/mainnet
	3. a literal default or a static http url
	4. an unlocked account of the connected node
	5. a freshly spawned local node (anvil or ganache)

Saddle ships with the following environments: %s.
More can be added as yaml or json files in ~/.saddle/networks/, see
"saddle network add".

Deployed contract addresses are read from
compound-config/networks/<network>.json, see "saddle addresses".`,
		"development, test, mainnet, sx_mainnet, sx_testnet",
	),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(config.Verbose)
		if err != nil {
			return fmt.Errorf("couldn't set up logging: %w", err)
		}
		log = l
		registry, err = loadRegistry(log)
		return err
	},
}

// loadRegistry returns the built-in profiles overridden by the custom ones.
func loadRegistry(log *zap.SugaredLogger) (*networks.Registry, error) {
	reg := networks.NewDefaultRegistry()
	dir := config.ProfileDir
	if dir == "" {
		var err error
		if dir, err = networks.CustomProfilesDir(); err != nil {
			log.Warnw("custom profiles are not loaded", "error", err)
			return reg, nil
		}
	}
	profiles, err := networks.LoadCustomProfiles(dir)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		replaced, err := reg.Add(p)
		if err != nil {
			return nil, err
		}
		log.Debugw("custom profile loaded", "name", p.Name, "replaced", replaced, "dir", dir)
	}
	return reg, nil
}

func sources() *source.Sources {
	return newSources(log)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		appUI.Error("%s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&config.Network, "network", "k", config.DEFAULT_NETWORK, "environment to use, e.g. development, test, mainnet.")
	rootCmd.PersistentFlags().StringVar(&config.ProfileDir, "profiles", "", "directory of custom environment profiles. Default: ~/.saddle/networks")
	rootCmd.PersistentFlags().StringVarP(&config.WorkDir, "workdir", "w", ".", "project directory holding compound-config/")
	rootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", false, "log every source that is tried")
}
