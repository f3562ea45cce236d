// Package config handles loading and validating roomdash configuration.
//
// This package manages:
//   - Loading an optional .env file into the process environment
//   - Loading configuration from an optional YAML file
//   - Overriding with environment variables
//   - Validation of required fields
//
// Provider settings are deliberately optional: a missing cloud token or an
// incomplete hub block disables that provider instead of failing startup.
//
// Security Considerations:
//   - Bearer tokens should be supplied through the environment or .env
//   - Tokens are never logged; use Config.Redacted() for diagnostics
//
// Usage:
//
//	_ = config.LoadDotEnv(".env")
//	cfg, err := config.Load(os.Getenv("ROOMDASH_CONFIG"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
