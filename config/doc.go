// Package config provides configuration loading and validation for statikd.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (STATIKD_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with STATIKD_ prefix:
//   - server.port → STATIKD_SERVER_PORT
//   - content.root → STATIKD_CONTENT_ROOT
//   - log.level → STATIKD_LOG_LEVEL
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and shutdown_timeout
//   - Content: root directory, index files, custom 404 page, URI
//     canonicalization, chunk size and charset declaration
//   - Compression: precompressed variant extensions, dynamic compression
//     with level and content-type restrictions
//   - Rewrites: inline rewrite rules plus an optional rules file
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level and format
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Precompressed extensions must be gz, zz, z, br or zst
//   - Log level must be debug, info, warn, or error
package config
