package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/mazad/internal/cli"
	"github.com/hyperjump/mazad/internal/config"
	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/indexsync"
	"github.com/hyperjump/mazad/internal/storage"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the search index from the listing store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			start := time.Now()
			var result indexsync.BulkResult
			if serverURL != "" {
				if err := newAPIClient(serverURL).do(ctx, http.MethodPost, "/api/v1/sync", nil, &result); err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
			} else {
				var err error
				result, err = withComponents(ctx, opts, func(ctx context.Context, c *Components) (indexsync.BulkResult, error) {
					return c.Syncer.BulkSync(ctx)
				})
				if err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d listings in %d batches (%s)\n",
				result.TotalProcessed, result.TotalBatches, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL; when empty the local store and index are opened directly")
	return cmd
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Listings       int64                  `json:"listings"`
	Categories     int                    `json:"categories"`
	Indexed        *uint64                `json:"indexed,omitempty"`
	Dictionaries   expand.DictionaryStats `json:"dictionaries"`
	UptimeSeconds  int64                  `json:"uptime_seconds,omitempty"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	DiskUsage      *storage.DiskUsage     `json:"disk_usage,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show listing, index and dictionary counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var status *statusResponse
			if serverURL != "" {
				status = &statusResponse{}
				if err := newAPIClient(serverURL).do(ctx, http.MethodGet, "/api/v1/status", nil, status); err != nil {
					return fmt.Errorf("status failed: %w", err)
				}
			} else {
				status, err = localStatus(ctx, opts)
				if err != nil {
					return fmt.Errorf("status failed: %w", err)
				}
			}
			if format == cli.OutputJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), status)
			}
			writeStatusText(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL; when empty the local store and index are opened directly")
	return cmd
}

func localStatus(ctx context.Context, opts *rootOptions) (*statusResponse, error) {
	return withComponents(ctx, opts, func(ctx context.Context, c *Components) (*statusResponse, error) {
		cfg := c.Config
		count, err := c.Storage.CountListings(ctx)
		if err != nil {
			return nil, err
		}
		categories, err := c.Storage.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		status := &statusResponse{
			Listings:     count,
			Categories:   len(categories),
			Dictionaries: c.Expander.Dictionaries().Stats(),
			Config: map[string]interface{}{
				"storage_driver":   cfg.Storage.Driver,
				"bleve_index_path": cfg.Storage.BleveIndexPath,
			},
		}
		if n, err := c.Index.DocCount(); err == nil {
			status.Indexed = &n
		}
		dbPath := cfg.Storage.DatabasePath
		if cfg.Storage.Driver == config.DriverPostgres {
			dbPath = ""
		}
		if usage, err := storage.MeasureDiskUsage(dbPath, cfg.Storage.BleveIndexPath); err == nil {
			total := usage.Total()
			status.DiskUsageBytes = &total
			status.DiskUsage = &usage
		}
		return status, nil
	})
}

func writeStatusText(w io.Writer, s *statusResponse) {
	fmt.Fprintf(w, "Listings:     %d\n", s.Listings)
	fmt.Fprintf(w, "Categories:   %d\n", s.Categories)
	if s.Indexed != nil {
		fmt.Fprintf(w, "Indexed:      %d\n", *s.Indexed)
	}
	d := s.Dictionaries
	fmt.Fprintf(w, "Dictionaries: %d brands, %d models, %d concepts, %d categories\n",
		d.Brands, d.Models, d.Concepts, d.Categories)
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "Disk usage:   %s", formatBytes(*s.DiskUsageBytes))
		if u := s.DiskUsage; u != nil {
			fmt.Fprintf(w, " (database %s, index %s)", formatBytes(u.Database), formatBytes(u.Index))
		}
		fmt.Fprintln(w)
	}
	if s.UptimeSeconds > 0 {
		fmt.Fprintf(w, "Uptime:       %s\n", time.Duration(s.UptimeSeconds)*time.Second)
	}
	if len(s.Config) > 0 {
		keys := make([]string, 0, len(s.Config))
		for k := range s.Config {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "Config:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, s.Config[k])
		}
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
