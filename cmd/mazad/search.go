package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/cli"
	"github.com/hyperjump/mazad/internal/models"
)

type searchOptions struct {
	serverURL   string
	limit       int
	offset      int
	fuzzy       bool
	category    string
	saleTypes   []string
	conditions  []string
	cities      []string
	minPrice    float64
	maxPrice    float64
	includeSold bool
	image       string
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	so := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search [flags] <query>",
		Short: "Search listings",
		Long: `Search listings. The query is all remaining arguments joined by spaces, so
multi-word queries work with or without quotes.

Queries are expanded across Arabic, Kurdish and English synonyms, and brands and
models are detected. When nothing matches, fuzzy matching is applied automatically.`,
		Example: `  mazad search ساعة اوميغا
  mazad search --fuzzy rolx daytona
  mazad search --category ساعات --max-price 500 watch
  mazad search --image photo.jpg
  mazad search --server http://localhost:8080 -o json iphone`,
		RunE: func(cmd *cobra.Command, args []string) error {
			queryStr := buildSearchQuery(args)
			if queryStr == "" && so.image == "" {
				return fmt.Errorf("a query or --image is required")
			}
			format, err := opts.format()
			if err != nil {
				return err
			}
			query := so.toQuery(queryStr, cmd)
			if so.image != "" {
				return runImageSearch(cmd, opts, so, format)
			}
			return runSearch(cmd, opts, so, query, format)
		},
	}
	f := cmd.Flags()
	f.StringVar(&so.serverURL, "server", "", "server URL; when empty the local store and index are opened directly")
	f.IntVar(&so.limit, "limit", 10, "number of results")
	f.IntVar(&so.offset, "offset", 0, "results to skip")
	f.BoolVar(&so.fuzzy, "fuzzy", false, "enable fuzzy matching for typo tolerance")
	f.StringVar(&so.category, "category", "", "only this category")
	f.StringSliceVar(&so.saleTypes, "sale-type", nil, "sale types to include (fixed, auction)")
	f.StringSliceVar(&so.conditions, "condition", nil, "conditions to include")
	f.StringSliceVar(&so.cities, "city", nil, "cities to include")
	f.Float64Var(&so.minPrice, "min-price", 0, "minimum price")
	f.Float64Var(&so.maxPrice, "max-price", 0, "maximum price")
	f.BoolVar(&so.includeSold, "include-sold", false, "include sold, paused and inactive listings")
	f.StringVar(&so.image, "image", "", "search by a product photo instead of text")
	return cmd
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func (so *searchOptions) toQuery(q string, cmd *cobra.Command) *models.SearchQuery {
	query := &models.SearchQuery{
		Query:        q,
		Limit:        so.limit,
		Offset:       so.offset,
		FuzzyEnabled: so.fuzzy,
		Category:     so.category,
		SaleTypes:    so.saleTypes,
		Conditions:   so.conditions,
		Cities:       so.cities,
		IncludeSold:  so.includeSold,
	}
	if cmd.Flags().Changed("min-price") {
		v := so.minPrice
		query.MinPrice = &v
	}
	if cmd.Flags().Changed("max-price") {
		v := so.maxPrice
		query.MaxPrice = &v
	}
	return query
}

func runSearch(cmd *cobra.Command, opts *rootOptions, so *searchOptions, query *models.SearchQuery, format cli.OutputFormat) error {
	ctx := cmd.Context()
	var response models.SearchResponse
	if so.serverURL != "" {
		// The server holds the index lock; go through the API.
		if err := newAPIClient(so.serverURL).do(ctx, http.MethodPost, "/api/v1/search", query, &response); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return cli.WriteSearchResults(cmd.OutOrStdout(), &response, format)
	}

	resp, err := withComponents(ctx, opts, func(ctx context.Context, c *Components) (*models.SearchResponse, error) {
		return c.Engine.Search(ctx, query)
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format)
}

func runImageSearch(cmd *cobra.Command, opts *rootOptions, so *searchOptions, format cli.OutputFormat) error {
	ctx := cmd.Context()
	data, err := os.ReadFile(so.image)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	image := base64.StdEncoding.EncodeToString(data)

	var response *models.ImageSearchResponse
	if so.serverURL != "" {
		response = &models.ImageSearchResponse{}
		body := map[string]interface{}{"image": image, "limit": so.limit}
		if err := newAPIClient(so.serverURL).do(ctx, http.MethodPost, "/api/v1/search/image", body, response); err != nil {
			return fmt.Errorf("image search failed: %w", err)
		}
	} else {
		response, err = withComponents(ctx, opts, func(ctx context.Context, c *Components) (*models.ImageSearchResponse, error) {
			return c.Images.Search(ctx, image, so.limit)
		})
		if err != nil {
			return fmt.Errorf("image search failed: %w", err)
		}
	}

	if format == cli.OutputJSON {
		return cli.WriteJSON(cmd.OutOrStdout(), response)
	}
	if a := response.Analysis; a != nil && format == cli.OutputText {
		fmt.Fprintf(cmd.OutOrStdout(), "Image: %s %s %s (%s)\nQuery: %s\n",
			a.Brand, a.Model, a.ItemType, a.Category, response.Query)
	}
	if response.SearchResponse == nil {
		return nil
	}
	return cli.WriteSearchResults(cmd.OutOrStdout(), response.SearchResponse, format)
}

// withComponents opens the local store and index, runs fn and closes them.
func withComponents[T any](ctx context.Context, opts *rootOptions, fn func(context.Context, *Components) (T, error)) (T, error) {
	var zero T
	cfg, logger, err := setup(opts)
	if err != nil {
		return zero, err
	}
	defer logger.Sync()
	if ctx == nil {
		ctx = context.Background()
	}
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Debug("initialize failed", zap.Error(err))
		return zero, err
	}
	defer components.Close()
	return fn(ctx, components)
}
