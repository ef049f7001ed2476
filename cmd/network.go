package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tranvictor/saddle/config"
	"github.com/tranvictor/saddle/networks"
)

var (
	NetworkConfig string
	NetworkForce  bool
)

var addNetworkCmd = &cobra.Command{
	Use:   "add",
	Short: "Add environment profiles to the custom profiles directory",
	Long: `--config takes a path to a yaml or json profile file OR an inline json string.
The file should be in the following format:

	networks:
	  staging:
	    alternative_names: [stage]
	    providers:
	      - env: PROVIDER
	      - file: ~/.ethereum/staging-url
	      - http: https://staging.example
	    accounts:
	      - env: ACCOUNT
	      - unlocked: 0
	    gas:
	      - env: GAS
	      - default: "6000000"
	    gas_price:
	      - env: GAS_PRICE
	      - default: "1000000000"
	    options:
	      transactionConfirmationBlocks: 1

Sources are tried top to bottom. Supported sources are env, file, default,
http, unlocked and ephemeral (alias: ganache, anvil).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src := strings.TrimSpace(NetworkConfig)
		if src == "" {
			return fmt.Errorf("--config is required")
		}

		var (
			profiles []networks.Profile
			err      error
		)
		if strings.HasPrefix(src, "{") && strings.HasSuffix(src, "}") {
			profiles, err = networks.ParseProfiles([]byte(src), "--config")
		} else {
			profiles, err = networks.LoadProfiles(src)
		}
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			return fmt.Errorf("no profile found in %s", src)
		}

		for _, p := range profiles {
			for _, name := range append([]string{p.Name}, p.AlternativeNames...) {
				if _, err := registry.GetProfile(name); err != nil {
					continue
				}
				if !NetworkForce {
					return fmt.Errorf("environment with name %s already exists, use --force to replace it", name)
				}
				appUI.Warn("Environment with name %s already exists. It will be replaced.", name)
			}
			if _, err := registry.Add(p); err != nil {
				return err
			}
		}

		dir := config.ProfileDir
		if dir == "" {
			if dir, err = networks.CustomProfilesDir(); err != nil {
				return err
			}
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("couldn't create %s: %w", dir, err)
		}
		data, err := networks.MarshalProfiles(profiles...)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, profiles[0].Name+".yaml")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("couldn't save %s: %w", path, err)
		}
		for _, p := range profiles {
			appUI.Success("Environment %s added and saved to %s.", p.Name, path)
		}
		return nil
	},
}

var listNetworkCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all environments saddle knows",
	Long:  ``,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rows := [][]string{}
		for _, p := range registry.Profiles() {
			rows = append(rows, []string{
				p.Name,
				strings.Join(p.AlternativeNames, ", "),
				p.Providers.String(),
			})
		}
		appUI.Table([]string{"NAME", "ALIASES", "PROVIDERS"}, rows)
		appUI.Info("Use \"saddle network show <name>\" to see every source of an environment.")
	},
}

var showNetworkCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the sources of every parameter of an environment",
	Long:  `Without a name, the environment given by --network is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := config.Network
		if len(args) == 1 {
			name = args[0]
		}
		p, err := registry.GetProfile(name)
		if err != nil {
			return err
		}
		if config.JSONOutput {
			return printJSON(p)
		}

		appUI.Section(fmt.Sprintf("Environment %s", p.Name))
		groups := [][][]string{}
		for _, param := range networks.Parameters {
			group := [][]string{}
			for i, d := range p.List(param) {
				group = append(group, []string{param, fmt.Sprintf("%d", i+1), d.String()})
			}
			groups = append(groups, group)
		}
		appUI.TableWithGroups([]string{"PARAMETER", "#", "SOURCE"}, groups)

		data, err := networks.MarshalProfiles(p)
		if err != nil {
			return err
		}
		appUI.Info("As a profile file:")
		_, err = appUI.Indent().Writer().Write(data)
		return err
	},
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage the environments saddle can resolve",
	Long:  ``,
}

func init() {
	addNetworkCmd.Flags().StringVarP(&NetworkConfig, "config", "c", "", "path to a profile file or an inline json profile document")
	addNetworkCmd.Flags().BoolVarP(&NetworkForce, "force", "f", false, "replace environments that already exist")
	AddOutputFlags(showNetworkCmd)

	networkCmd.AddCommand(listNetworkCmd)
	networkCmd.AddCommand(showNetworkCmd)
	networkCmd.AddCommand(addNetworkCmd)
	rootCmd.AddCommand(networkCmd)
}
