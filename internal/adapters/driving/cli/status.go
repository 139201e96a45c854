package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection stats and embedding backend health",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ctx := context.Background()
	stats, err := retrievalService.Stats(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Collection: %s\n\n", stats.Owner)
	cmd.Printf("  Chunks:     %d\n", stats.ChunkCount)
	cmd.Printf("  Model:      %s\n", stats.Model)
	cmd.Printf("  Dimensions: %d\n", stats.Dimensions)
	cmd.Println()

	if embeddingService == nil {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := embeddingService.Ping(pingCtx); err != nil {
		cmd.Printf("Embedding backend: unreachable (%v)\n", err)
		cmd.Println("Queries and ingests fall back to deterministic local vectors.")
		return nil
	}
	cmd.Println("Embedding backend: healthy")
	return nil
}
