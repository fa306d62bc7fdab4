// Package config handles configuration loading for the identity admin tooling.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file (chosen by extension)
// with environment variable expansion, then IDENTITY_* environment
// variables override whatever the file set. Without a file, [FromEnv]
// starts from [Default].
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  connection: "${IDENTITY_HOME}/identity.db"
//
// Unset variables expand to the empty string.
//
// # Configuration Sections
//
//	database:
//	  connection: "identity.db"   # path, ":memory:" or Filename=...;Driver=...
//	  driver: "sqlite"            # sqlite (modernc) or sqlite3 (cgo)
//	  busy_timeout: "5s"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	admin:
//	  bcrypt_cost: 10
//	  recovery_codes: 10
//
// # Overrides
//
//   - IDENTITY_DATABASE, IDENTITY_DATABASE_DRIVER, IDENTITY_DATABASE_BUSY_TIMEOUT
//   - IDENTITY_LOG_LEVEL, IDENTITY_LOG_FORMAT
//   - IDENTITY_BCRYPT_COST, IDENTITY_RECOVERY_CODES
//
// # Validation
//
// database.connection is required. Driver, log level, log format, bcrypt
// cost and recovery code count are range checked.
package config
