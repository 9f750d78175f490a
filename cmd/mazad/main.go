// Package main is the mazad CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/mazad/internal/cli"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/mazad/config.yaml"

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
	output     string
}

func (o *rootOptions) format() (cli.OutputFormat, error) {
	return cli.ParseOutputFormat(o.output)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "mazad",
		Short: "mazad: marketplace listing search with Arabic and Kurdish query expansion",
		Long: `mazad indexes marketplace listings and searches them with synonym expansion
across Arabic, Kurdish and English, brand and model detection, and typo tolerance.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format: text, compact, or json")

	root.AddCommand(
		newServerCmd(opts),
		newSearchCmd(opts),
		newExpandCmd(opts),
		newIndexCmd(opts),
		newDeleteCmd(opts),
		newSyncCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mazad version %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
