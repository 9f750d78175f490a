package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/mazad/internal/cli"
	"github.com/hyperjump/mazad/internal/models"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "index <file.json|->",
		Short: "Add listings from a JSON file",
		Long: `Add listings from a JSON file holding one listing object or an array of them.
Use "-" to read from stdin. Each listing is stored and then indexed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			inputs, err := readListingInputs(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runIndex(cmd, opts, serverURL, inputs, format)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL; when empty the local store and index are opened directly")
	return cmd
}

// readListingInputs decodes a single listing or an array of listings.
func readListingInputs(path string, stdin io.Reader) ([]*models.ListingInput, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no listings in %s", path)
	}

	var inputs []*models.ListingInput
	if data[0] == '[' {
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("parse listings: %w", err)
		}
	} else {
		var one models.ListingInput
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("parse listing: %w", err)
		}
		inputs = append(inputs, &one)
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
	}
	return inputs, nil
}

func runIndex(cmd *cobra.Command, opts *rootOptions, serverURL string, inputs []*models.ListingInput, format cli.OutputFormat) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if serverURL != "" {
		client := newAPIClient(serverURL)
		for _, in := range inputs {
			var created models.Listing
			if err := client.do(ctx, http.MethodPost, "/api/v1/listings", in, &created); err != nil {
				return fmt.Errorf("index %q: %w", in.Title, err)
			}
			if err := cli.WriteListing(out, &created, format); err != nil {
				return err
			}
		}
		return nil
	}

	created, err := withComponents(ctx, opts, func(ctx context.Context, c *Components) ([]*models.Listing, error) {
		var listings []*models.Listing
		for _, in := range inputs {
			l := in.ToListing()
			if err := c.Storage.CreateListing(ctx, l); err != nil {
				return listings, fmt.Errorf("store %q: %w", in.Title, err)
			}
			if err := c.Syncer.SyncListing(ctx, l); err != nil {
				return listings, err
			}
			listings = append(listings, l)
		}
		return listings, nil
	})
	for _, l := range created {
		if werr := cli.WriteListing(out, l, format); werr != nil {
			return werr
		}
	}
	return err
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a listing",
		Long:  "Mark a listing deleted in the store and remove it from the search index.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			ctx := cmd.Context()
			if serverURL != "" {
				client := newAPIClient(serverURL)
				if err := client.do(ctx, http.MethodDelete, client.listingPath(id), nil, nil); err != nil {
					return fmt.Errorf("delete failed: %w", err)
				}
			} else {
				_, err := withComponents(ctx, opts, func(ctx context.Context, c *Components) (struct{}, error) {
					if err := c.Storage.DeleteListing(ctx, id); err != nil {
						return struct{}{}, err
					}
					return struct{}{}, c.Syncer.RemoveListing(ctx, id)
				})
				if err != nil {
					return fmt.Errorf("delete failed: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL; when empty the local store and index are opened directly")
	return cmd
}
