// Package config holds the tunables for indexing, chunking, and search
// ranking (chunk ceiling, search weights, watcher timings).
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the complete runtime configuration for a vault's indexer.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking" json:"chunking"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Watch     WatchConfig     `yaml:"watch" json:"watch"`
}

// ChunkingConfig describes the heading-aware token-bounded chunker's
// ceiling. The chunker uses its own chunk.MaxTokensPerChunk constant and
// does not read this value.
type ChunkingConfig struct {
	MaxTokensPerChunk int `yaml:"max_tokens_per_chunk" json:"max_tokens_per_chunk"`
}

// SearchConfig holds the search limits used by the façade. DefaultLimit and
// MaxLimit are read; BM25Weight and VectorWeight (and their MDITGO_*
// overrides) are not read by the ranker, which uses the constants in
// internal/search.
type SearchConfig struct {
	BM25Weight   float64 `yaml:"bm25_weight" json:"bm25_weight"`
	VectorWeight float64 `yaml:"vector_weight" json:"vector_weight"`
	DefaultLimit int     `yaml:"default_limit" json:"default_limit"`
	MaxLimit     int     `yaml:"max_limit" json:"max_limit"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string        `yaml:"provider" json:"provider"`
	Model    string        `yaml:"model" json:"model"`
	BaseURL  string        `yaml:"base_url" json:"base_url"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// WatchConfig controls the filesystem watcher's debounce/batching behavior.
type WatchConfig struct {
	DebounceMS         int  `yaml:"debounce_ms" json:"debounce_ms"`
	ChannelCapacity    int  `yaml:"channel_capacity" json:"channel_capacity"`
	RenamePairWindowMS int  `yaml:"rename_pair_window_ms" json:"rename_pair_window_ms"`
	MaxBatchPaths      int  `yaml:"max_batch_paths" json:"max_batch_paths"`
	Recursive          bool `yaml:"recursive" json:"recursive"`
}

// Default returns mditgo's baseline configuration.
func Default() Config {
	return Config{
		Chunking: ChunkingConfig{
			MaxTokensPerChunk: 1000,
		},
		Search: SearchConfig{
			BM25Weight:   0.3,
			VectorWeight: 0.7,
			DefaultLimit: 20,
			MaxLimit:     100,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
			Timeout:  60 * time.Second,
		},
		Watch: WatchConfig{
			DebounceMS:         250,
			ChannelCapacity:    4096,
			RenamePairWindowMS: 1000,
			MaxBatchPaths:      10000,
			Recursive:          true,
		},
	}
}

// ApplyEnvOverrides mutates cfg in place from MDITGO_* environment variables,
// matching env-var-beats-file precedence.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MDITGO_EMBEDDER_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("MDITGO_EMBEDDER_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("MDITGO_EMBEDDER_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("MDITGO_BM25_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.BM25Weight = f
		}
	}
	if v := os.Getenv("MDITGO_VECTOR_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.VectorWeight = f
		}
	}
}
