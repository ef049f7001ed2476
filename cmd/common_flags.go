package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/tranvictor/saddle/config"
)

func AddOutputFlags(c *cobra.Command) {
	c.Flags().BoolVarP(&config.JSONOutput, "json", "j", false, "print the result as json")
}

func AddResolveFlags(c *cobra.Command) {
	c.Flags().DurationVarP(&config.Timeout, "timeout", "t", config.DEFAULT_TIMEOUT, "give up resolving after this long")
	c.Flags().BoolVar(&config.KeepAlive, "keep-alive", false, "keep spawned nodes running until interrupted")
}

func AddRenameFlags(c *cobra.Command) {
	c.Flags().StringSliceVar(&config.Renames, "rename", nil, "extra contract renames as Old=New, on top of the built-in ones")
}

func printJSON(v any) error {
	enc := json.NewEncoder(appUI.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
