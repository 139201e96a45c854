package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/myai-labs/retrieval/internal/core/domain"
)

// Config holds the full application configuration as loaded from TOML.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// StorageConfig selects and configures the chunk store backend.
type StorageConfig struct {
	// Backend is one of "file", "sqlite" or "memory".
	Backend string `toml:"backend"`
	// Dir overrides the default data directory (~/.retrieval).
	Dir string `toml:"dir"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Backend is one of "openai", "ollama" or "none". With "none" every
	// vector comes from the deterministic local fallback.
	Backend    string `toml:"backend"`
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	// TimeoutSeconds bounds a single embedding call.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// RateLimit is the maximum number of embedding calls per second.
	// Zero disables client-side rate limiting.
	RateLimit float64 `toml:"rate_limit"`
}

// RetrievalConfig tunes chunking and search behaviour.
type RetrievalConfig struct {
	ChunkSize    int     `toml:"chunk_size"`
	ChunkOverlap int     `toml:"chunk_overlap"`
	MinScore     float64 `toml:"min_score"`
	BatchSize    int     `toml:"batch_size"`
	MaxScan      int     `toml:"max_scan"`
	TopK         int     `toml:"top_k"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	params := domain.DefaultParams()
	return &Config{
		Storage: StorageConfig{
			Backend: "file",
		},
		Embedding: EmbeddingConfig{
			Backend:        "none",
			TimeoutSeconds: 10,
		},
		Retrieval: RetrievalConfig{
			ChunkSize:    params.ChunkSize,
			ChunkOverlap: params.ChunkOverlap,
			MinScore:     params.MinScore,
			BatchSize:    params.BatchSize,
			MaxScan:      params.MaxScan,
			TopK:         params.TopK,
		},
	}
}

// Params converts the retrieval section into normalized engine parameters.
func (c *Config) Params() domain.Params {
	p := domain.Params{
		ChunkSize:    c.Retrieval.ChunkSize,
		ChunkOverlap: c.Retrieval.ChunkOverlap,
		MinScore:     c.Retrieval.MinScore,
		BatchSize:    c.Retrieval.BatchSize,
		MaxScan:      c.Retrieval.MaxScan,
		TopK:         c.Retrieval.TopK,
	}
	return p.Normalize()
}

// EmbeddingTimeout returns the configured per-call timeout.
func (c *Config) EmbeddingTimeout() time.Duration {
	if c.Embedding.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Embedding.TimeoutSeconds) * time.Second
}

// ConfigStore loads and persists the TOML configuration file.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
	config   *Config
}

// NewConfigStore creates a TOML-based config store.
// If configDir is empty, defaults to ~/.retrieval/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".retrieval")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Config returns the currently loaded configuration.
func (s *ConfigStore) Config() *Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Load reads configuration from the TOML file. A missing file yields
// the defaults without error.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.config = DefaultConfig()
			return nil
		}
		return err
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.filePath, err)
	}

	s.config = cfg
	return nil
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(s.config)
	if err != nil {
		return err
	}

	// Write with restricted permissions; the file may hold an API key.
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
