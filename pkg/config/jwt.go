package config

import (
	"time"

	"github.com/sosodev/duration"
)

// JWTConfig holds JWT authentication configuration
type JWTConfig struct {
	Secret            string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Algorithm         string `env:"JWT_ALGORITHM" env-default:"HS256"`
	AccessTokenExpiry string `env:"ACCESS_TOKEN_EXPIRY" env-default:"60m"`
	Issuer            string `env:"JWT_ISSUER" env-default:"identity-service"`
}

// ParseAccessTokenExpiry parses the access token expiry duration
func (j JWTConfig) ParseAccessTokenExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.AccessTokenExpiry)
}

// parseDurationISO8601 tries to parse duration as ISO8601 first, then Go duration
func parseDurationISO8601(s string) (time.Duration, error) {
	isoDuration, err := duration.Parse(s)
	if err == nil {
		return isoDuration.ToTimeDuration(), nil
	}

	return time.ParseDuration(s)
}
