package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vector index drivers.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the quizgen configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Vector     VectorConfig     `yaml:"vector"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// VectorConfig selects and configures the vector index backend.
type VectorConfig struct {
	Driver     string         `yaml:"driver"` // redis, postgres, memory (default: redis)
	Dimensions int            `yaml:"dimensions"`
	Redis      RedisConfig    `yaml:"redis"`
	Postgres   PostgresConfig `yaml:"postgres"`
	Memory     MemoryConfig   `yaml:"memory"`
}

// RedisConfig holds Redis Stack / Redis 8 connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	IndexAlgorithm   string   `yaml:"index_algorithm"` // hnsw or flat
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// PostgresConfig holds pgvector connection settings.
type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Debug bool   `yaml:"debug"`
}

// MemoryConfig holds embedded chromem settings.
type MemoryConfig struct {
	Path     string `yaml:"path"` // empty keeps everything in memory
	Compress bool   `yaml:"compress"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider      string      `yaml:"provider"`
	APIKey        string      `yaml:"api_key"`
	BaseURL       string      `yaml:"base_url"`
	Model         string      `yaml:"model"`
	Dimensions    int         `yaml:"dimensions"`
	TimeoutSec    int         `yaml:"timeout_sec"`
	MaxInputChars int         `yaml:"max_input_chars"`
	Cache         CacheConfig `yaml:"cache"`
}

// CacheConfig holds embedding cache settings. The cache lives in Redis and is
// only available with the redis driver.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	TTLSec  int    `yaml:"ttl_sec"` // 0 = no expiry
	Prefix  string `yaml:"prefix"`
}

// GenerationConfig holds generative model and fan-out settings.
type GenerationConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxTokens  int    `yaml:"max_tokens"`
	Workers    int    `yaml:"workers"` // 0 = sequential
	MaxTotal   int    `yaml:"max_total"`
}

// RetrievalConfig holds semantic context defaults.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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
	if c.HTTP.WriteTimeoutSec <= 0 {
		// generation fans out to the model; keep room for several segments
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}

	if c.Vector.Driver == "" {
		c.Vector.Driver = DriverRedis
	}
	if c.Vector.Dimensions <= 0 {
		c.Vector.Dimensions = c.Embedding.Dimensions
	}
	if c.Vector.Redis.ReadinessTimeout <= 0 {
		c.Vector.Redis.ReadinessTimeout = 10
	}
	if c.Vector.Redis.IndexAlgorithm == "" {
		c.Vector.Redis.IndexAlgorithm = "hnsw"
	}
	if c.Vector.Redis.HNSWM <= 0 {
		c.Vector.Redis.HNSWM = 16
	}
	if c.Vector.Redis.HNSWEFConstruct <= 0 {
		c.Vector.Redis.HNSWEFConstruct = 200
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Embedding.MaxInputChars <= 0 {
		c.Embedding.MaxInputChars = 2000
	}

	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 60
	}
	if c.Generation.Workers < 0 {
		c.Generation.Workers = 0
	}
	if c.Generation.MaxTotal <= 0 {
		c.Generation.MaxTotal = 15
	}

	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Vector.Driver {
	case DriverRedis:
		if len(c.Vector.Redis.Addrs) == 0 {
			return errors.New("vector.redis.addrs is required for the redis driver")
		}
		if a := c.Vector.Redis.IndexAlgorithm; a != "hnsw" && a != "flat" {
			return fmt.Errorf("vector.redis.index_algorithm must be hnsw or flat, got %q", a)
		}
	case DriverPostgres:
		if c.Vector.Postgres.DSN == "" {
			return errors.New("vector.postgres.dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("vector.driver must be one of redis, postgres, memory, got %q", c.Vector.Driver)
	}

	if c.Vector.Dimensions <= 0 {
		return errors.New("vector.dimensions (or embedding.dimensions) must be positive")
	}
	if c.Embedding.Dimensions > 0 && c.Embedding.Dimensions != c.Vector.Dimensions {
		return fmt.Errorf("embedding.dimensions (%d) must match vector.dimensions (%d)",
			c.Embedding.Dimensions, c.Vector.Dimensions)
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding.model is required")
	}
	if c.Embedding.Cache.Enabled && c.Vector.Driver != DriverRedis {
		return fmt.Errorf("embedding.cache requires the redis driver, got %q", c.Vector.Driver)
	}
	if c.Generation.Model == "" {
		return errors.New("generation.model is required")
	}
	if c.Retrieval.TopK > 50 {
		return fmt.Errorf("retrieval.top_k must be at most 50, got %d", c.Retrieval.TopK)
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
