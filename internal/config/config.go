package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/graphtrust/graphtrust/internal/identity"
	"github.com/graphtrust/graphtrust/internal/trust"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultTimeout       = 10 * time.Second
	DefaultWatchInterval = 30 * time.Second
)

// Config is the top-level configuration for the graphtrust CLI.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Oracle  OracleConfig `yaml:"oracle"`
	Scoring trust.Config `yaml:"scoring"`
	Watch   WatchConfig  `yaml:"watch"`
}

// OracleConfig describes the distance-oracle service to query.
type OracleConfig struct {
	// BaseURL is the oracle's base address. A single trailing slash is
	// stripped by the client at construction time.
	BaseURL string `yaml:"base_url"`

	// Timeout applies to each individual request.
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures how the client authenticates to the oracle.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies the authentication mode for the oracle endpoint.
// Secret material is resolved from environment variables, never stored
// in the config file.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields — used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// API key fields — used when Mode == "apikey".
	// Header is the HTTP header name to send the key in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// Bearer token fields — used when Mode == "bearer".
	TokenEnv string `yaml:"token_env"`

	// Basic auth fields — used when Mode == "basic".
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// TLSConfig holds TLS dial options for the oracle endpoint.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// WatchConfig drives the long-running watch mode: the source key whose
// neighborhood is scored and the targets polled every interval.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
	Source   string        `yaml:"source"`
	Targets  []string      `yaml:"targets"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Oracle: OracleConfig{Timeout: DefaultTimeout},
		Watch:  WatchConfig{Interval: DefaultWatchInterval},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle.base_url is required")
	}
	if cfg.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be positive")
	}
	switch cfg.Oracle.Auth.Mode {
	case "mtls", "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("oracle.auth: unknown mode %q", cfg.Oracle.Auth.Mode)
	}
	if cfg.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive")
	}
	if cfg.Watch.Source != "" && !identity.Valid(cfg.Watch.Source) {
		return fmt.Errorf("watch.source: %q is not a 64-hex identity", cfg.Watch.Source)
	}
	for i, target := range cfg.Watch.Targets {
		if !identity.Valid(target) {
			return fmt.Errorf("watch.targets[%d]: %q is not a 64-hex identity", i, target)
		}
	}
	if len(cfg.Watch.Targets) > 0 && cfg.Watch.Source == "" {
		return fmt.Errorf("watch.source is required when targets are set")
	}
	return nil
}
