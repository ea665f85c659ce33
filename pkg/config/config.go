package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for fuseline-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3550"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// Engine tunables
	Engine EngineConfig `yaml:"engine"`

	// Datasource loader settings (SQL ingestion adapters)
	Datasource DatasourceConfig `yaml:"datasource"`
}

// EngineConfig holds the inference engine's tunables. The defaults mirror the
// constants in pkg/services; overrides here win when non-zero.
type EngineConfig struct {
	// SampleLimit caps rows scanned per dataset during fingerprinting.
	SampleLimit int `yaml:"sample_limit" env:"ENGINE_SAMPLE_LIMIT" env-default:"2000"`
	// ValidationChunkSize bounds rows processed between cancellation checks
	// in full-data validation.
	ValidationChunkSize int `yaml:"validation_chunk_size" env:"ENGINE_VALIDATION_CHUNK_SIZE" env-default:"5000"`
	// MaxCandidatesPerPair caps ranked candidates per dataset pair.
	MaxCandidatesPerPair int `yaml:"max_candidates_per_pair" env:"ENGINE_MAX_CANDIDATES_PER_PAIR" env-default:"3"`
	// ConfidenceFloor excludes weak candidates from schema classification.
	ConfidenceFloor float64 `yaml:"confidence_floor" env:"ENGINE_CONFIDENCE_FLOOR" env-default:"0.5"`
	// DimensionVocabularyPath points at a YAML file overriding the built-in
	// dimension term vocabulary. Empty uses the compiled-in default.
	DimensionVocabularyPath string `yaml:"dimension_vocabulary_path" env:"ENGINE_DIMENSION_VOCABULARY_PATH" env-default:""`
}

// DatasourceConfig holds SQL loader settings.
type DatasourceConfig struct {
	// LoadRowLimit caps how many rows a table load pulls into a dataset.
	LoadRowLimit int `yaml:"load_row_limit" env:"DATASOURCE_LOAD_ROW_LIMIT" env-default:"100000"`
	// ConnectTimeoutSeconds bounds the initial connection attempt.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" env:"DATASOURCE_CONNECT_TIMEOUT_SECONDS" env-default:"15"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// A missing config.yaml is fine: defaults plus environment carry a full config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}
