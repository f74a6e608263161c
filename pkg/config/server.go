package config

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `env:"APP_HOST" env-default:"localhost"`
	Port uint16 `env:"APP_PORT" env-default:"8080"`
}

// CORSConfig holds cross-origin settings for browser clients
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	MaxAge         int      `env:"CORS_MAX_AGE" env-default:"300"`
}

// RateLimitConfig bounds request rates on the credential-sensitive
// endpoints (register, resend, login).
type RateLimitConfig struct {
	Enabled   bool    `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Burst     int     `env:"RATE_LIMIT_BURST" env-default:"20"`
	PerSecond float64 `env:"RATE_LIMIT_PER_SECOND" env-default:"1"`
	BucketTTL string  `env:"RATE_LIMIT_BUCKET_TTL" env-default:"10m"`
}

// VerificationConfig controls email verification code issuance.
// DebugCodes must never be enabled outside local development: it
// returns pending codes in resend responses.
type VerificationConfig struct {
	CodeLength   int    `env:"VERIFICATION_CODE_LENGTH" env-default:"6"`
	CodeLifetime string `env:"VERIFICATION_CODE_LIFETIME" env-default:"30m"`
	DebugCodes   bool   `env:"VERIFICATION_DEBUG_CODES" env-default:"false"`
}
