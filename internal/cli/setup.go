package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/oracle"
	"github.com/ssolovyev/veritrail/internal/registry"
)

// loadConfig layers defaults, the YAML config file, and environment
// variables. Flags apply on top in each command.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := viper.GetString("evidence_dir"); v != "" {
		cfg.Store.EvidenceDir = v
	}
	if v := viper.GetString("registry_path"); v != "" {
		cfg.Store.RegistryPath = v
	}
	if v := viper.GetString("oracle_provider"); v != "" {
		cfg.Oracle.Provider = v
	}
	if v := viper.GetString("oracle_model"); v != "" {
		cfg.Oracle.Model = v
	}
	cfg.Output.Verbose = verbose

	return cfg, nil
}

// openStores opens the evidence store and the claim registry.
func openStores(cfg *model.Config) (*evidence.DirStore, *registry.Registry, error) {
	if _, err := os.Stat(cfg.Store.EvidenceDir); err != nil {
		return nil, nil, fmt.Errorf("evidence store %s: %w", cfg.Store.EvidenceDir, err)
	}

	store := evidence.NewDirStore(cfg.Store.EvidenceDir)
	reg, err := registry.Open(cfg.Store.RegistryPath, store)
	if err != nil {
		return nil, nil, err
	}
	return store, reg, nil
}

// buildOracle constructs the configured oracle provider with the API key
// from the environment, then wraps it with rate limiting and response
// caching. Returns nil when no provider is configured.
func buildOracle(cfg *model.Config) (oracle.Provider, error) {
	switch cfg.Oracle.Provider {
	case "":
		return nil, nil
	case "openai":
		cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Oracle.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.Oracle.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Oracle.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Oracle.BaseURL = baseURL
		}
	}

	provider, err := oracle.NewProvider(oracle.FromModel(cfg.Oracle))
	if err != nil || provider == nil {
		return nil, err
	}

	provider = oracle.NewLimited(provider, cfg.Oracle.RequestsPerSecond, cfg.Oracle.Burst)
	return oracle.NewCached(provider, 30*time.Minute), nil
}
