// Package config loads runtime configuration for poreview.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c/-config or $POREVIEW_CONFIG.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-r string     remote endpoint (Postgres DSN)
//	-k string     remote key (session token signing key)
//	-m bool       apply remote schema migrations on startup
//	-d string     path of the local SQLite store
//	-t duration   remote connectivity probe timeout
//	-s duration   remote session lifetime
//	-b string     S3 bucket for generated documents
//	-g string     S3 region
//	-e string     S3 base endpoint (empty: AWS default)
//	-u string     S3 access key
//	-p string     S3 secret key
//	-l string     log level (debug, info, warn, error)
//	-x string     address to serve Prometheus metrics on (empty: disabled)
//
// The remote backend is used only when both -r and -k are non-empty.
//
// # JSON schema
//
// Durations are strings like "5s" or integer nanoseconds:
//
//	{
//	  "remote_endpoint": "postgres://po:po@db:5432/poreview?sslmode=disable",
//	  "remote_key": "change-me",
//	  "local_db_path": "poreview.db",
//	  "probe_timeout": "5s",
//	  "session_ttl": "24h",
//	  "s3_bucket": "po-files"
//	}
package config
