package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// ChunkingConfig configures how extracted text is split into chunks.
type ChunkingConfig struct {
	Size    int `yaml:"size" env:"CHUNK_SIZE"`
	Overlap int `yaml:"overlap" env:"CHUNK_OVERLAP"`
}

// EmbedderConfig configures the OpenAI-compatible embeddings client.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model" env:"EMBEDDING_MODEL"`
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig configures the chat-completion client used for generation.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url" env:"OPENAI_BASE_URL"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model" env:"LLM_MODEL"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for the Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" env:"QDRANT_URL"`
	APIKey      string `yaml:"api_key" env:"QDRANT_API_KEY"`
	Collection  string `yaml:"collection" env:"COLLECTION_NAME"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChatConfig bounds the conversation memory.
type ChatConfig struct {
	MaxHistory    int `yaml:"max_history" env:"MAX_HISTORY"`
	ContextWindow int `yaml:"context_window"`
}

// AppConfig is the root application configuration structure. Every component
// receives its slice of it explicitly at construction time; nothing reads
// process-wide state afterwards.
type AppConfig struct {
	Chunking ChunkingConfig `yaml:"chunking"`
	Embedder EmbedderConfig `yaml:"embedder"`
	LLM      LLMConfig      `yaml:"llm"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Chat     ChatConfig     `yaml:"chat"`
}

// Load reads a config from the specified path, then applies environment
// variable overrides. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/finrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/finrag/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	if err := Save(userPath, defaultConfig()); err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "finrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Chunking: ChunkingConfig{Size: 1000, Overlap: 200},
		Embedder: EmbedderConfig{
			Model:     "text-embedding-ada-002",
			Dimension: 1536,
			BatchSize: 32,
		},
		LLM: LLMConfig{
			Model:       "gpt-3.5-turbo",
			Temperature: 0.2,
		},
		Qdrant: QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "company_reports",
		},
		Chat: ChatConfig{MaxHistory: 20, ContextWindow: 5},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunking.Size <= 0 {
		cfg.Chunking.Size = 1000
	}
	if cfg.Chunking.Overlap < 0 {
		cfg.Chunking.Overlap = 0
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-ada-002"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 1536
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.Qdrant.URL == "" {
		cfg.Qdrant.URL = "http://localhost:6333"
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "company_reports"
	}
	if cfg.Qdrant.TimeoutSecs == 0 {
		cfg.Qdrant.TimeoutSecs = 15
	}
	if cfg.Chat.MaxHistory == 0 {
		cfg.Chat.MaxHistory = 20
	}
	if cfg.Chat.ContextWindow == 0 {
		cfg.Chat.ContextWindow = 5
	}
}
