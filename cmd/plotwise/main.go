package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	debug      bool
}

func main() {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "plotwise",
		Short:         "Plotwise: AI listing intelligence for land marketplaces",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("plotwise {{.Version}}\n")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "plotwise.yaml", "path to config file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newMCPCmd(opts),
		newDescribeCmd(opts),
		newRiskCmd(opts),
		newEstimateCmd(opts),
		newVisualizeCmd(opts),
		newPriceCmd(opts),
		newSearchCmd(opts),
		newChatCmd(opts),
		newStatsCmd(opts),
		newVersionCmd(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the plotwise version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "plotwise %s\n", version)
		},
	}
}
