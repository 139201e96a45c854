// Package cli implements the command-line interface. Commands talk to
// the core through driving ports; backends are assembled from the TOML
// configuration on first use.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/myai-labs/retrieval/internal/adapters/driven/config/file"
	"github.com/myai-labs/retrieval/internal/adapters/driven/embedding"
	"github.com/myai-labs/retrieval/internal/adapters/driven/embedding/ollama"
	"github.com/myai-labs/retrieval/internal/adapters/driven/embedding/openai"
	filestore "github.com/myai-labs/retrieval/internal/adapters/driven/storage/file"
	"github.com/myai-labs/retrieval/internal/adapters/driven/storage/memory"
	"github.com/myai-labs/retrieval/internal/adapters/driven/storage/sqlite"
	"github.com/myai-labs/retrieval/internal/core/ports/driven"
	"github.com/myai-labs/retrieval/internal/core/ports/driving"
	"github.com/myai-labs/retrieval/internal/core/services"
	"github.com/myai-labs/retrieval/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands. Wired in initServices; tests inject
// their own implementations.
var (
	retrievalService driving.RetrievalService
	embeddingService driven.EmbeddingService
	configStore      *configfile.ConfigStore
	chunkStore       driven.ChunkStore
)

// Persistent flags.
var (
	verboseFlag bool
	configDir   string
	ownerID     string
)

var rootCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Semantic document retrieval from the command line",
	Long: `Ingests documents into per-owner collections, embeds them for
semantic search, and answers natural-language queries against them.
Collections are isolated per owner and survive embedding outages via a
deterministic local fallback.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.retrieval)")
	rootCmd.PersistentFlags().StringVarP(&ownerID, "owner", "o", "default", "owner of the collection to operate on")
}

// Execute runs the root command and releases backend resources.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initServices assembles the storage and embedding backends from
// configuration. Already-wired services (tests) are left alone.
func initServices() error {
	if retrievalService != nil {
		return nil
	}

	store, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	configStore = store
	cfg := store.Config()

	chunks, err := newChunkStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	chunkStore = chunks

	backend, err := newEmbeddingBackend(cfg)
	if err != nil {
		return fmt.Errorf("failed to configure embedding backend: %w", err)
	}
	embeddingService = embedding.NewResilient(backend, embedding.ResilientConfig{
		CallTimeout:       cfg.EmbeddingTimeout(),
		RequestsPerSecond: cfg.Embedding.RateLimit,
	})

	retrievalService = services.NewRetrievalService(embeddingService, chunks, cfg.Params())
	logger.Debug("services wired: storage=%s embedding=%s", cfg.Storage.Backend, cfg.Embedding.Backend)
	return nil
}

func newChunkStore(cfg *configfile.Config) (driven.ChunkStore, error) {
	switch cfg.Storage.Backend {
	case "", "file":
		return filestore.NewChunkStore(cfg.Storage.Dir)
	case "sqlite":
		return sqlite.NewChunkStore(cfg.Storage.Dir)
	case "memory":
		return memory.NewChunkStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newEmbeddingBackend(cfg *configfile.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Backend {
	case "", "none":
		return embedding.NewLocal(cfg.Embedding.Dimensions), nil
	case "openai":
		return openai.New(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "ollama":
		return ollama.New(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Embedding.Backend)
	}
}

// closeServices releases backend resources at exit.
func closeServices() {
	if chunkStore != nil {
		if err := chunkStore.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close chunk store: %v\n", err)
		}
	}
	if embeddingService != nil {
		_ = embeddingService.Close() //nolint:errcheck // Best-effort cleanup
	}
}
