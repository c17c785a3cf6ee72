package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/airport-gateway/internal/infra/aviation/provider"
	"github.com/vietddude/airport-gateway/internal/infra/aviation/resilience"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, applies defaults and validates the result.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 1000
	}

	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Path == "" {
			if schema, ok := provider.LookupSchema(p.Schema); ok {
				p.Path = schema.DefaultPath
			}
		}

		cb := &p.CircuitBreaker
		if cb.WindowSize == 0 {
			cb.WindowSize = resilience.DefaultBreakerConfig.WindowSize
		}
		if cb.FailureThreshold == 0 {
			cb.FailureThreshold = resilience.DefaultBreakerConfig.FailureThreshold
		}
		if cb.CoolDown == 0 {
			cb.CoolDown = resilience.DefaultBreakerConfig.CoolDown
		}
		if cb.HalfOpenProbes == 0 {
			cb.HalfOpenProbes = resilience.DefaultBreakerConfig.HalfOpenProbes
		}

		r := &p.Retry
		if r.MaxAttempts == 0 {
			r.MaxAttempts = resilience.DefaultRetryConfig.MaxAttempts
		}
		if r.BaseDelay == 0 {
			r.BaseDelay = resilience.DefaultRetryConfig.BaseDelay
		}
		if r.Multiplier == 0 {
			r.Multiplier = resilience.DefaultRetryConfig.Multiplier
		}
		if r.MaxDelay == 0 {
			r.MaxDelay = resilience.DefaultRetryConfig.MaxDelay
		}

		if p.RateLimit.Capacity == 0 {
			p.RateLimit.Capacity = 10
		}
		if p.RateLimit.RefillPerSecond == 0 {
			p.RateLimit.RefillPerSecond = 10
		}
		if p.Bulkhead.MaxConcurrent == 0 {
			p.Bulkhead.MaxConcurrent = 10
		}
		if p.Timeouts.Connect == 0 {
			p.Timeouts.Connect = provider.DefaultTimeouts.Connect
		}
		if p.Timeouts.Read == 0 {
			p.Timeouts.Read = provider.DefaultTimeouts.Read
		}
	}
}
