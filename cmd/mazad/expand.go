package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/cli"
)

func newExpandCmd(opts *rootOptions) *cobra.Command {
	var fuzzy bool
	cmd := &cobra.Command{
		Use:   "expand <query>",
		Short: "Show how a query is expanded",
		Long: `Show the normalized form, detected brand, model and category, every synonym
searched for, and the tsquery string for a query. Only the dictionaries are
loaded; the store and index are not opened.`,
		Example: `  mazad expand اوميغا سيماستر
  mazad expand -o json phone
  mazad expand --fuzzy rolx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			expander, err := newExpander(cfg, zap.NewNop())
			if err != nil {
				return fmt.Errorf("load dictionaries: %w", err)
			}
			query := buildSearchQuery(args)
			q := expander.Expand(query)
			if fuzzy {
				q = expander.ExpandFuzzy(query)
			}
			return cli.WriteExpansion(cmd.OutOrStdout(), q, format)
		},
	}
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "also try edit-distance brand and model matching")
	return cmd
}
