package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the solrq service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Solr       SolrConfig       `yaml:"solr"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SolrConfig holds settings for the upstream search engine.
type SolrConfig struct {
	BaseURL     string `yaml:"base_url"`
	Core        string `yaml:"core"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	PageSize    int    `yaml:"page_size"`
	MaxPageSize int    `yaml:"max_page_size"`
	UniqueKey   string `yaml:"unique_key"`
}

// Timeout returns the request timeout.
func (s SolrConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// CheckpointConfig holds export checkpoint storage settings.
// Checkpointing is disabled when Addrs is empty.
type CheckpointConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"`
	EveryDocs        int      `yaml:"every_docs"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a checkpoint store is configured.
func (c CheckpointConfig) Enabled() bool { return len(c.Addrs) > 0 }

// TTL returns how long a checkpoint is kept.
func (c CheckpointConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// Exports stream for as long as the cursor runs.
	if c.HTTP.WriteTimeoutSec < 0 {
		c.HTTP.WriteTimeoutSec = 0
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Solr.TimeoutSec <= 0 {
		c.Solr.TimeoutSec = 30
	}
	if c.Solr.PageSize <= 0 {
		c.Solr.PageSize = 10
	}
	if c.Solr.MaxPageSize <= 0 {
		c.Solr.MaxPageSize = 1000
	}
	if c.Solr.UniqueKey == "" {
		c.Solr.UniqueKey = "id"
	}
	if c.Checkpoint.KeyPrefix == "" {
		c.Checkpoint.KeyPrefix = "solrq:"
	}
	if c.Checkpoint.TTLSec <= 0 {
		c.Checkpoint.TTLSec = 24 * 60 * 60
	}
	if c.Checkpoint.EveryDocs <= 0 {
		c.Checkpoint.EveryDocs = 1000
	}
	if c.Checkpoint.ReadinessTimeout <= 0 {
		c.Checkpoint.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Solr.BaseURL == "" {
		return errors.New("solr.base_url is required")
	}
	u, err := url.Parse(c.Solr.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("solr.base_url must be an absolute http(s) URL, got %q", c.Solr.BaseURL)
	}
	if strings.TrimSpace(c.Solr.Core) == "" {
		return errors.New("solr.core is required")
	}
	if c.Solr.PageSize > c.Solr.MaxPageSize {
		return fmt.Errorf("solr.page_size (%d) must not exceed solr.max_page_size (%d)",
			c.Solr.PageSize, c.Solr.MaxPageSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and go run.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
