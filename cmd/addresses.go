package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tranvictor/saddle/addrbook"
	"github.com/tranvictor/saddle/config"
)

var addressesCmd = &cobra.Command{
	Use:   "addresses [network]",
	Short: "Show the contracts already deployed to a network",
	Long: `Read compound-config/networks/<network>.json under --workdir and print its
Contracts under their canonical names. PriceFeed is shown as
UniswapAnchoredView and PriceData as OpenOraclePriceData; --rename adds more.

A network without a document has no known deployments.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network := config.Network
		if len(args) == 1 {
			network = args[0]
		}
		renames, err := addrbook.ParseRenames(config.Renames)
		if err != nil {
			return err
		}
		loader := addrbook.NewLoader(config.WorkDir, addrbook.WithRenames(renames), addrbook.WithLogger(log))

		book, err := loader.Load(network)
		if errors.Is(err, addrbook.ErrNotFound) {
			appUI.Warn("No known deployments on %s: %s does not exist.", network, loader.Path(network))
			book = addrbook.Book{}
		} else if err != nil {
			return err
		}

		if config.JSONOutput {
			return printJSON(book)
		}
		rows := [][]string{}
		for _, name := range book.Names() {
			rows = append(rows, []string{name, book[name]})
		}
		if len(rows) > 0 {
			appUI.Table([]string{"CONTRACT", "ADDRESS"}, rows)
		}
		return nil
	},
}

func init() {
	AddOutputFlags(addressesCmd)
	AddRenameFlags(addressesCmd)
	rootCmd.AddCommand(addressesCmd)
}
