// Package validation validates objectgraph configuration.
//
// Struct tags are checked with go-playground/validator; cross-field rules
// are collected programmatically. Both report an *errors.AppError with code
// INVALID_CONFIGURATION and the offending fields under Details["fields"].
//
//	type ResolutionConfig struct {
//	    MaxDepth int `mapstructure:"max_depth" validate:"min=1,max=4096"`
//	}
//	err := validation.ValidateStruct(cfg)
//
//	v := validation.New()
//	v.OneOf("resolution.default_lifecycle", cfg.DefaultLifecycle, lifecycles)
//	err := v.Validate()
package validation
