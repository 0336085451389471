package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/booksearch/internal/db"
)

// Config holds the booksearch configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Engine  EngineConfig  `yaml:"engine"`
	Export  ExportConfig  `yaml:"export"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// EngineConfig holds Elasticsearch connection and index settings.
type EngineConfig struct {
	Addrs             []string      `yaml:"addrs"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	APIKey            string        `yaml:"api_key"`
	Index             string        `yaml:"index"`
	Shards            int           `yaml:"shards"`
	Replicas          int           `yaml:"replicas"`
	MaxHits           int           `yaml:"max_hits"`
	Refresh           string        `yaml:"refresh"` // true, false, wait_for
	ReadinessTimeout  int           `yaml:"readiness_timeout_sec"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestTimeoutSec int           `yaml:"request_timeout_sec"`
	Breaker           BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for engine calls.
type BreakerConfig struct {
	Disabled     bool    `yaml:"disabled"`
	MaxRequests  uint32  `yaml:"max_requests"`
	IntervalSec  int     `yaml:"interval_sec"`
	TimeoutSec   int     `yaml:"timeout_sec"`
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
}

// ExportConfig holds result export settings.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// RequestTimeout returns the per-call engine timeout.
func (e EngineConfig) RequestTimeout() time.Duration {
	return time.Duration(e.RequestTimeoutSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, substitutes ${VAR} references, applies defaults and validates.
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.Engine.Index == "" {
		c.Engine.Index = "bookdb_index"
	}
	if c.Engine.Shards <= 0 {
		c.Engine.Shards = 1
	}
	if c.Engine.MaxHits <= 0 {
		c.Engine.MaxHits = 10000
	}
	if c.Engine.Refresh == "" {
		c.Engine.Refresh = "wait_for"
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 30
	}
	if c.Engine.RequestTimeoutSec <= 0 {
		c.Engine.RequestTimeoutSec = 10
	}
	if c.Engine.Breaker.MaxRequests == 0 {
		c.Engine.Breaker.MaxRequests = 1
	}
	if c.Engine.Breaker.IntervalSec <= 0 {
		c.Engine.Breaker.IntervalSec = 60
	}
	if c.Engine.Breaker.TimeoutSec <= 0 {
		c.Engine.Breaker.TimeoutSec = 30
	}
	if c.Engine.Breaker.MinRequests == 0 {
		c.Engine.Breaker.MinRequests = 5
	}
	if c.Engine.Breaker.FailureRatio <= 0 {
		c.Engine.Breaker.FailureRatio = 0.6
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}
	c.Auth.APIKeys = dropEmpty(c.Auth.APIKeys)
}

// dropEmpty removes entries left blank by unset ${VAR} references.
func dropEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Engine.Addrs) == 0 {
		return fmt.Errorf("engine.addrs is required")
	}
	for i, addr := range c.Engine.Addrs {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("engine.addrs[%d] is empty", i)
		}
	}
	if !db.IsValidIndexName(c.Engine.Index) {
		return fmt.Errorf("engine.index %q is not a valid index name", c.Engine.Index)
	}
	switch c.Engine.Refresh {
	case "true", "false", "wait_for":
	default:
		return fmt.Errorf("engine.refresh must be \"true\", \"false\" or \"wait_for\", got %q", c.Engine.Refresh)
	}
	if c.Engine.Replicas < 0 {
		return fmt.Errorf("engine.replicas must be non-negative, got %d", c.Engine.Replicas)
	}
	if c.Engine.MaxRetries < 0 {
		return fmt.Errorf("engine.max_retries must be non-negative, got %d", c.Engine.MaxRetries)
	}
	if r := c.Engine.Breaker.FailureRatio; r > 1 {
		return fmt.Errorf("engine.breaker.failure_ratio must be in (0, 1], got %g", r)
	}
	if c.Engine.APIKey != "" && c.Engine.Username != "" {
		return fmt.Errorf("engine.api_key and engine.username are mutually exclusive")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
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
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
