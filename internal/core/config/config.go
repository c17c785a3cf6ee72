package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/vietddude/airport-gateway/internal/infra/aviation/provider"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	Cache     CacheConfig      `yaml:"cache"`
	Providers []ProviderConfig `yaml:"providers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// CacheConfig controls the in-process lookup cache.
type CacheConfig struct {
	Disabled bool          `yaml:"disabled"`
	TTL      time.Duration `yaml:"ttl"`
	Size     int           `yaml:"size"`
}

// ProviderConfig describes one upstream airport data provider.
type ProviderConfig struct {
	Name     string `yaml:"name"`
	Schema   string `yaml:"schema"`   // aviationweather, airportdirectory, openaviation
	Priority int    `yaml:"priority"` // lower is tried first
	BaseURL  string `yaml:"base_url"`
	Path     string `yaml:"path"` // overrides the schema default, "{icao}" is substituted

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Retry          RetryConfig          `yaml:"retry"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Bulkhead       BulkheadConfig       `yaml:"bulkhead"`
	Timeouts       TimeoutConfig        `yaml:"timeouts"`
}

type CircuitBreakerConfig struct {
	WindowSize       int           `yaml:"window_size"`
	FailureThreshold float64       `yaml:"failure_threshold"`
	CoolDown         time.Duration `yaml:"cool_down"`
	HalfOpenProbes   int           `yaml:"half_open_probes"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	Multiplier  float64       `yaml:"multiplier"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type RateLimitConfig struct {
	Capacity        int     `yaml:"capacity"`
	RefillPerSecond float64 `yaml:"refill_per_second"`
}

type BulkheadConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type TimeoutConfig struct {
	Connect time.Duration `yaml:"connect"`
	Read    time.Duration `yaml:"read"`
}

// Validate checks the configuration after defaults have been applied.
func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Logging),
		validation.Field(&c.Cache),
		validation.Field(&c.Providers, validation.Required, validation.By(uniqueProviders)),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Min(1), validation.Max(65535)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Size, validation.Min(1)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

func (p ProviderConfig) Validate() error {
	schemas := make([]any, 0)
	for _, name := range provider.SchemaNames() {
		schemas = append(schemas, name)
	}

	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Schema, validation.Required, validation.In(schemas...)),
		validation.Field(&p.Priority, validation.Min(0)),
		validation.Field(&p.BaseURL, validation.Required, is.URL),
		validation.Field(&p.CircuitBreaker),
		validation.Field(&p.Retry),
		validation.Field(&p.RateLimit),
		validation.Field(&p.Bulkhead),
	)
}

func (c CircuitBreakerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.WindowSize, validation.Min(1)),
		validation.Field(&c.FailureThreshold, validation.Min(0.0).Exclusive(), validation.Max(1.0)),
		validation.Field(&c.HalfOpenProbes, validation.Min(1)),
	)
}

func (r RetryConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxAttempts, validation.Min(1)),
		validation.Field(&r.Multiplier, validation.Min(1.0)),
	)
}

func (r RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Capacity, validation.Min(1)),
		validation.Field(&r.RefillPerSecond, validation.Min(0.0).Exclusive()),
	)
}

func (b BulkheadConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.MaxConcurrent, validation.Min(1)),
	)
}

func uniqueProviders(value any) error {
	providers, _ := value.([]ProviderConfig)

	names := make(map[string]bool)
	priorities := make(map[int]string)
	for _, p := range providers {
		if names[p.Name] {
			return fmt.Errorf("duplicate provider name %q", p.Name)
		}
		names[p.Name] = true

		if other, ok := priorities[p.Priority]; ok {
			return fmt.Errorf("providers %q and %q share priority %d", other, p.Name, p.Priority)
		}
		priorities[p.Priority] = p.Name
	}
	return nil
}
