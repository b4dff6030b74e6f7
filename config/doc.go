// Package config loads and validates objectgraph engine configuration.
//
// Values come, in increasing priority, from built-in defaults, a YAML file,
// a .env file (loaded into the process environment with godotenv) and
// environment variables prefixed with OBJECTGRAPH_ (nested keys joined with
// underscores, e.g. OBJECTGRAPH_RESOLUTION_MAX_DEPTH).
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load("billing", &cfg); err != nil {
//	    return err
//	}
//	container := di.New(di.WithConfig(cfg))
package config
