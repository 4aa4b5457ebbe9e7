package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo MongoConfig
	Redis RedisConfig
	JWT   JWTConfig
	OTP   OTPConfig
	SMTP  SMTPConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=commerce"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type JWTConfig struct {
	// Access and refresh tokens are signed with distinct secrets so one
	// leaked key cannot forge the other family.
	AccessSecret      string `env:"JWT_ACCESS_SECRET"`
	RefreshSecret     string `env:"JWT_REFRESH_SECRET"`
	AccessTTLSeconds  int    `env:"ACCESS_TOKEN_TTL_SECONDS,  default=900"`
	RefreshTTLSeconds int    `env:"REFRESH_TOKEN_TTL_SECONDS, default=1209600"`
}

type OTPConfig struct {
	ExpiryMinutes int `env:"OTP_EXPIRY_MINUTES, default=15"`
	MaxAttempts   int `env:"OTP_MAX_ATTEMPTS,   default=5"`
}

type SMTPConfig struct {
	Host               string `env:"SMTP_HOST"`
	Port               int    `env:"SMTP_PORT, default=587"`
	Username           string `env:"SMTP_USERNAME"`
	Password           string `env:"SMTP_PASSWORD"`
	From               string `env:"SMTP_FROM"`
	TLSMode            string `env:"SMTP_TLS_MODE, default=starttls"`
	SendTimeoutSeconds int    `env:"EMAIL_SEND_TIMEOUT_SECONDS, default=5"`
}

func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLSeconds) * time.Second
}

func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLSeconds) * time.Second
}

func (c OTPConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryMinutes) * time.Minute
}

func (c SMTPConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
