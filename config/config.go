package config

import (
	"github.com/kbukum/objectgraph/logger"
	"github.com/kbukum/objectgraph/observability"
	"github.com/kbukum/objectgraph/validation"
)

// Lifecycle names accepted by ResolutionConfig.DefaultLifecycle.
const (
	LifecycleSession   = "session"
	LifecycleUnique    = "unique"
	LifecycleSingleton = "singleton"
)

// DefaultMaxDepth bounds graph nesting when no limit is configured.
const DefaultMaxDepth = 256

// Config is the complete engine configuration.
type Config struct {
	Name        string                     `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string                     `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production test"`
	Logging     logger.Config              `yaml:"logging" mapstructure:"logging"`
	Resolution  ResolutionConfig           `yaml:"resolution" mapstructure:"resolution"`
	Tracing     observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics     observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ResolutionConfig tunes the build pipeline.
type ResolutionConfig struct {
	// MaxDepth is the deepest dependency nesting a session accepts.
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth" validate:"min=1,max=65536"`
	// DefaultLifecycle applies to instances registered without an explicit lifecycle.
	DefaultLifecycle string `yaml:"default_lifecycle" mapstructure:"default_lifecycle" validate:"oneof=session unique singleton"`
}

// Default returns a configuration with every default applied.
func Default(name string) Config {
	cfg := Config{Name: name}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	if c.Resolution.MaxDepth == 0 {
		c.Resolution.MaxDepth = DefaultMaxDepth
	}
	if c.Resolution.DefaultLifecycle == "" {
		c.Resolution.DefaultLifecycle = LifecycleSession
	}
	applyTelemetryDefaults(&c.Tracing.ServiceName, &c.Tracing.Environment, c)
	applyTelemetryDefaults(&c.Metrics.ServiceName, &c.Metrics.Environment, c)
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
}

func applyTelemetryDefaults(service, env *string, c *Config) {
	if *service == "" {
		*service = c.Name
	}
	if *env == "" {
		*env = c.Environment
	}
}

// Validate checks struct tags and the rules tags cannot express.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("config", validation.ValidateStruct(c))
	v.Merge("logging", c.Logging.Validate())
	v.Custom(!c.Tracing.Enabled || c.Tracing.Endpoint != "", "tracing.endpoint", "is required when tracing is enabled")
	v.Custom(!c.Metrics.Enabled || c.Metrics.Endpoint != "", "metrics.endpoint", "is required when metrics are enabled")
	return v.Validate()
}
