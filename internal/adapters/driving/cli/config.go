package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change the storage and embedding configuration.

Use subcommands to configure specific settings.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configStorageCmd = &cobra.Command{
	Use:   "storage [backend]",
	Short: "Set the storage backend",
	Long: `Set the chunk storage backend.

Available backends:
  file    - One JSON record per chunk under the data directory (default)
  sqlite  - Single SQLite database file
  memory  - In-memory only, lost at exit`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigStorage,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding backend",
	Long:  `Interactively configure the embedding backend for semantic search.`,
	RunE:  runConfigEmbedding,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configStorageCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("configuration not loaded")
	}
	cfg := configStore.Config()

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", cfg.Storage.Backend)
	if cfg.Storage.Dir != "" {
		cmd.Printf("  Dir: %s\n", cfg.Storage.Dir)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Backend: %s\n", cfg.Embedding.Backend)
	if cfg.Embedding.Model != "" {
		cmd.Printf("  Model: %s\n", cfg.Embedding.Model)
	}
	if cfg.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(cfg.Embedding.APIKey))
	}
	cmd.Println()

	cmd.Println("[Retrieval]")
	params := cfg.Params()
	cmd.Printf("  Chunk size: %d\n", params.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", params.ChunkOverlap)
	cmd.Printf("  Min score: %.2f\n", params.MinScore)
	cmd.Printf("  Top K: %d\n", params.TopK)
	cmd.Println()

	cmd.Printf("Config file: %s\n", configStore.Path())
	return nil
}

func runConfigStorage(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("configuration not loaded")
	}

	backend := args[0]
	switch backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q (want file, sqlite or memory)", backend)
	}

	configStore.Config().Storage.Backend = backend
	if err := configStore.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Storage backend set to: %s\n", backend)
	return nil
}

// embeddingBackends lists the configurable backends with their default
// models. Order matters: it is the menu order.
var embeddingBackends = []struct {
	name         string
	description  string
	defaultModel string
	needsAPIKey  bool
}{
	{"none", "Local deterministic vectors (offline, exact-match only)", "", false},
	{"openai", "OpenAI embeddings API", "text-embedding-3-small", true},
	{"ollama", "Local Ollama server", "nomic-embed-text", false},
}

func runConfigEmbedding(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("configuration not loaded")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select Embedding Backend")
	for i, b := range embeddingBackends {
		cmd.Printf("  %d. %s\n", i+1, b.description)
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(embeddingBackends), 1)
	selected := embeddingBackends[idx-1]

	cfg := configStore.Config()
	cfg.Embedding.Backend = selected.name

	if selected.defaultModel != "" {
		cmd.Printf("Enter model name [%s]: ", selected.defaultModel)
		model := readLine(reader)
		if model == "" {
			model = selected.defaultModel
		}
		cfg.Embedding.Model = model
	}

	if selected.needsAPIKey {
		cmd.Print("Enter API key: ")
		apiKey := readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this backend")
		}
		cfg.Embedding.APIKey = apiKey
	}

	if err := configStore.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Embedding backend configured: %s\n", selected.name)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal, falling
// back to a plain line read otherwise.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
