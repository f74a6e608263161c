package config

import "fmt"

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string `env:"IDENTITY_PG_HOST" env-default:""`
	Port     uint16 `env:"IDENTITY_PG_PORT" env-default:"5432"`
	Database string `env:"IDENTITY_PG_DATABASE" env-default:"identity_db"`
	User     string `env:"IDENTITY_PG_USER" env-default:"identity"`
	Password string `env:"IDENTITY_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"IDENTITY_PG_SCHEMA" env-default:"public"`
}

// Configured reports whether a database host has been provided. When it
// has not, the service falls back to the file-backed user store.
func (d DatabaseConfig) Configured() bool {
	return d.Host != ""
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// FileStoreConfig holds settings for the file-backed user store used
// when no database is configured.
type FileStoreConfig struct {
	DataDir string `env:"IDENTITY_DATA_DIR" env-default:"./data"`
}
