package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hyperjump/recall/internal/storage"
)

var statusOpts struct {
	server string
	output string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show storage, index and configuration status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusOpts.server, "server", defaultServerURL, "server URL (empty = use direct storage)")
	statusCmd.Flags().StringVarP(&statusOpts.output, "output", "o", "text", "output format: text or json")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(statusOpts.output)
	if err != nil {
		return err
	}
	if statusOpts.server != "" {
		var status map[string]interface{}
		err := newAPIClient(statusOpts.server).do(http.MethodGet, "/api/v1/status", nil, nil, &status)
		if err == nil {
			return WriteStatus(cmd.OutOrStdout(), status, format)
		}
		var unreachable *unreachableError
		if !errors.As(err, &unreachable) {
			return err
		}
	}

	return withComponents(cmd, func(c *Components) error {
		status, err := directStatus(cmd, c)
		if err != nil {
			return err
		}
		return WriteStatus(cmd.OutOrStdout(), status, format)
	})
}

func directStatus(cmd *cobra.Command, c *Components) (map[string]interface{}, error) {
	count, err := c.Storage.CountReminders(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("count reminders: %w", err)
	}
	status := map[string]interface{}{
		"reminders":         count,
		"vector_index_size": c.Vectors.Size(),
	}
	if n, err := c.Content.DocCount(); err == nil {
		status["content_index_size"] = n
	}
	cfg := c.Config
	status["config"] = map[string]interface{}{
		"embedding_provider":   cfg.Embedding.Provider,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"generation_provider":  cfg.Generation.Provider,
		"vector_index_type":    cfg.Vector.IndexType,
		"temporal_resolver":    cfg.Temporal.Resolver,
		"database_path":        cfg.Storage.DatabasePath,
		"bleve_index_path":     cfg.Storage.BleveIndexPath,
		"vector_index_path":    cfg.Storage.VectorIndexPath,
	}
	if usage, total, err := storage.StorageUsage(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.VectorIndexPath); err == nil {
		status["disk_usage_bytes"] = total
		status["disk_usage"] = usage
	}
	return status, nil
}
