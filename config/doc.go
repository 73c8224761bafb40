// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, the news provider list, circuit breaker and retry
// tuning, and metrics options.
package config
