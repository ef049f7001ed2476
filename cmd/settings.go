package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tranvictor/saddle/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the build directory and the contract and test globs",
	Long: `The build directory is read from SADDLE_BUILD and the contract globs from
SADDLE_CONTRACTS (space separated).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := config.LoadSettings(nil)
		if config.JSONOutput {
			return printJSON(s)
		}
		appUI.KeyValue([][2]string{
			{"build", s.BuildDir},
			{"contracts", strings.Join(s.Contracts, " ")},
			{"tests", strings.Join(s.Tests, " ")},
		})
		return nil
	},
}

func init() {
	AddOutputFlags(settingsCmd)
	rootCmd.AddCommand(settingsCmd)
}
