package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the kitfinder API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Search    SearchConfig    `yaml:"search"`
	Video     VideoConfig     `yaml:"video"`
	Options   OptionsConfig   `yaml:"options"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// AuthConfig holds operator API key settings. Empty means open access.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig holds per-IP request limits. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver" validate:"oneof=valkey redis"`
	Addrs            []string `yaml:"addrs" validate:"required,dive,hostname_port"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Collection      string `yaml:"collection"`
	Algorithm       string `yaml:"algorithm" validate:"oneof=hnsw flat"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	RecreateOnStart bool   `yaml:"recreate_on_start"`
}

// Catalog ingest modes.
const (
	IngestIfEmpty = "if_empty"
	IngestAlways  = "always"
	IngestNever   = "never"
)

// CatalogConfig holds the catalog source and ingest policy.
type CatalogConfig struct {
	Path       string `yaml:"path"`
	IngestMode string `yaml:"ingest_mode" validate:"oneof=if_empty always never"`
}

// SearchConfig holds result count limits.
type SearchConfig struct {
	MaxResults     int `yaml:"max_results" validate:"min=1"`
	DefaultResults int `yaml:"default_results" validate:"min=1,ltefield=MaxResults"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// RequestDimensions sends Dimensions to the API. ada-002 rejects the parameter.
	RequestDimensions bool         `yaml:"request_dimensions"`
	BatchSize         int          `yaml:"batch_size"`
	CacheTTLHours     int          `yaml:"cache_ttl_hours"` // 0 = no expiry
	Budget            BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action" validate:"omitempty,oneof=warn reject"`
}

// VideoConfig holds YouTube Data API settings. Empty APIKey disables lookups.
type VideoConfig struct {
	APIKey             string  `yaml:"api_key"`
	BaseURL            string  `yaml:"base_url"`
	RequestsPerSecond  float64 `yaml:"requests_per_second"`
	Burst              int     `yaml:"burst"`
	BreakerFailures    uint32  `yaml:"breaker_failures"`
	BreakerTimeoutSec  int     `yaml:"breaker_timeout_sec"`
	BreakerIntervalSec int     `yaml:"breaker_interval_sec"`
}

// OptionsConfig overrides the enumerated choice sets. Empty lists keep the built-in sets.
type OptionsConfig struct {
	Layouts        []string  `yaml:"layouts"`
	MountingStyles []string  `yaml:"mounting_styles"`
	BudgetTiers    []float64 `yaml:"budget_tiers" validate:"dive,gt=0"`
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

// Parse decodes YAML config bytes, expanding ${VAR} references first.
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-ada-002"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 100
	}
	if c.Embedding.Budget.Action == "" {
		c.Embedding.Budget.Action = "warn"
	}

	if c.Index.Collection == "" {
		c.Index.Collection = "keyboards"
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = "hnsw"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}

	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/catalog.json"
	}
	if c.Catalog.IngestMode == "" {
		c.Catalog.IngestMode = IngestIfEmpty
	}

	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 10
	}
	if c.Search.DefaultResults <= 0 {
		c.Search.DefaultResults = 2
	}

	if c.Video.RequestsPerSecond <= 0 {
		c.Video.RequestsPerSecond = 5
	}
	if c.Video.Burst <= 0 {
		c.Video.Burst = 5
	}
	if c.Video.BreakerFailures == 0 {
		c.Video.BreakerFailures = 5
	}
	if c.Video.BreakerTimeoutSec <= 0 {
		c.Video.BreakerTimeoutSec = 30
	}
	if c.Video.BreakerIntervalSec <= 0 {
		c.Video.BreakerIntervalSec = 60
	}
}

// Validate checks field rules declared in validate tags and reports the
// first violation by its YAML path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var violations validator.ValidationErrors
	if errors.As(err, &violations) {
		return describe(violations[0])
	}
	return err
}

var validate = newValidator()

// newValidator names fields after their yaml keys.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func describe(fe validator.FieldError) error {
	path := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", path)
	case "oneof":
		return fmt.Errorf("%s must be one of %q, got %q", path, strings.Fields(fe.Param()), fmt.Sprint(fe.Value()))
	case "min", "max":
		return fmt.Errorf("%s must be %s %s, got %v", path, bound(fe.Tag()), fe.Param(), fe.Value())
	case "gt":
		return fmt.Errorf("%s must be positive, got %v", path, fe.Value())
	case "ltefield":
		return fmt.Errorf("%s (%v) exceeds %s", path, fe.Value(), sibling(path, fe.Param()))
	case "hostname_port":
		return fmt.Errorf("%s must be host:port, got %q", path, fmt.Sprint(fe.Value()))
	default:
		return fmt.Errorf("%s fails %s=%s", path, fe.Tag(), fe.Param())
	}
}

// sibling turns a Go field name into the YAML path next to path.
func sibling(path, field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i+1] + b.String()
	}
	return b.String()
}

func bound(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package dirs.
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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
