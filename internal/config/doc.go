// Package config loads and validates application configuration from
// defaults, an optional YAML file and environment variables. Environment
// variables use the GOALBREAKER_ prefix with "." replaced by "_", e.g.
// GOALBREAKER_RATE_LIMIT_PER_MINUTE. The legacy names DATABASE_URL,
// GEMINI_API_KEY and FRONTEND_URL are honoured as well.
package config
