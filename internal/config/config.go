// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	minSecretLength = 32
	minBcryptCost   = 4
	maxBcryptCost   = 14
)

// Config is built once at startup and passed explicitly to the components
// that need it.
type Config struct {
	Port            string        `env:"PORT"             envDefault:"8080"`
	LogLevel        slog.Level    `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN    string `env:"DATABASE_DSN"    envDefault:"passgate.db"`

	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL"   envDefault:"1h"`
	OTPTTL     time.Duration `env:"OTP_TTL"     envDefault:"10m"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	Email Email
	S3    S3

	WalletCountryCode string `env:"WALLET_COUNTRY_CODE" envDefault:"234"`
	MaxUploadBytes    int64  `env:"MAX_UPLOAD_BYTES"    envDefault:"5242880"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Email configures SMTP delivery. An empty Host selects the log mailer.
type Email struct {
	Host     string        `env:"EMAIL_HOST"`
	Port     int           `env:"EMAIL_PORT"    envDefault:"587"`
	User     string        `env:"EMAIL_USER"`
	Password string        `env:"EMAIL_PASS"`
	From     string        `env:"EMAIL_FROM"`
	Timeout  time.Duration `env:"EMAIL_TIMEOUT" envDefault:"15s"`
}

// S3 configures the profile picture bucket. An empty Bucket disables uploads.
type S3 struct {
	Bucket        string `env:"S3_BUCKET"`
	Region        string `env:"S3_REGION"          envDefault:"us-east-1"`
	Endpoint      string `env:"S3_ENDPOINT"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
}

// Load reads the optional dotenv files, then parses the environment. Values
// already present in the environment win over the files.
func Load(dotenvFiles ...string) (Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports configuration that would make the server unsafe or
// unable to start.
func (c Config) Validate() error {
	var errs []error
	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(c.JWTSecret) < minSecretLength:
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	if c.DatabaseDriver != DriverSQLite && c.DatabaseDriver != DriverPostgres {
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DatabaseDriver))
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", minBcryptCost, maxBcryptCost))
	}
	if c.TokenTTL <= 0 || c.OTPTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL and OTP_TTL must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Email.Host != "" && c.Email.From == "" {
		errs = append(errs, errors.New("EMAIL_FROM is required when EMAIL_HOST is set"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
