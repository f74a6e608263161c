// Package config holds the environment-driven configuration for the
// identity service. Every struct carries cleanenv tags so a single
// cleanenv.ReadEnv call populates the whole tree, with godotenv loading
// a local .env file first during development.
package config
