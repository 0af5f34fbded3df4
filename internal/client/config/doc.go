// Package config loads runtime configuration for the postkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: a dotenv file (-e or -env, otherwise ./.env when present)
//     merged with the process environment, which wins. See parseEnv.
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   backend endpoint (base URL for http, host:port for grpc)
//	-t string   transport: http, grpc or r2
//	-n int      simultaneous uploads per batch
//	-s string   listen address of the local status API (empty disables it)
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds. Absent keys keep earlier values:
//
//	{
//	  "server_endpoint_addr": "https://api.example.co.th",
//	  "transport": "http",
//	  "concurrent_uploads": 3,
//	  "purge_delay": "2s",
//	  "online_check_interval": "3s",
//	  "storage_driver": "sqlite",
//	  "storage_path": "postkeeper.db",
//	  "r2": {"bucket": "media"}
//	}
//
// # Environment
//
// Every field has a POSTKEEPER_* variable, e.g. POSTKEEPER_ACCESS_TOKEN or
// POSTKEEPER_R2_SECRET_ACCESS_KEY. Secrets are expected to come from here
// rather than from JSON or flags.
//
// Primary API
//
//   - type Config                     runtime settings
//   - func LoadConfig() *Config       defaults, env, JSON, then flags
//   - func (*Config) LoadDefaults()   sets sensible defaults
//   - func (*Config) Validate() error rejects unknown enum values
package config
