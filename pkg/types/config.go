package types

import (
	"errors"
	"time"
)

// Config holds backend selection and store tuning loaded from config.yaml.
type Config struct {
	Backend   string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir   string        `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SaveDelay time.Duration `json:"save_delay" yaml:"save_delay" mapstructure:"save_delay"`
	CacheTTL  time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
	LogLevel  string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Rules     []Rule        `json:"rules,omitempty" yaml:"rules,omitempty" mapstructure:"rules"`
}

// Rule is a configured validator expressed as a boolean expression over
// taxonomy metrics (see internal/validate). Rules are advisory unless
// Required is set.
type Rule struct {
	ID       string `json:"id" yaml:"id" mapstructure:"id"`
	Expr     string `json:"expr" yaml:"expr" mapstructure:"expr"`
	Message  string `json:"message" yaml:"message" mapstructure:"message"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
}

// Supported backend names.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Defaults applied when config.yaml leaves a value unset.
const (
	DefaultBackend   = BackendJSON
	DefaultSaveDelay = 2 * time.Second
	DefaultCacheTTL  = 60 * time.Second
	DefaultLogLevel  = "info"
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrSaveDelayInvalid = errors.New("save delay must be positive")
	ErrCacheTTLInvalid  = errors.New("cache TTL must be positive")
	ErrRuleInvalid      = errors.New("rule must have an id and an expression")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendJSON:   true,
	BackendSQLite: true,
	BackendMemory: true,
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.SaveDelay == 0 {
		c.SaveDelay = DefaultSaveDelay
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.SaveDelay <= 0 {
		return ErrSaveDelayInvalid
	}
	if c.CacheTTL <= 0 {
		return ErrCacheTTLInvalid
	}
	for _, r := range c.Rules {
		if r.ID == "" || r.Expr == "" {
			return ErrRuleInvalid
		}
	}
	return nil
}
