// Package logging provides structured logging for roomdash.
//
// It wraps log/slog so every component logs the same way: JSON in
// production, text when developing, with service and version attached to
// every entry. File output is rotated by lumberjack.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "./logs/roomdash.log"
//	    max_size: 50     # megabytes before rotation
//	    max_backups: 3
//	    max_age: 28      # days
//	    compress: false
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	defer logger.Close()
//	logger.Info("listening", "port", cfg.Server.Port)
//
// Never log bearer tokens or passwords.
package logging
