package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every externally configurable setting of the API server.
type Config struct {
	Port     string `envconfig:"PORT" default:"5006"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// DatabaseURL wins over the individual DB_* settings when set.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"shipit"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`

	RedisURL string `envconfig:"REDIS_URL"`

	// JWTSecret has no default. Without it wallet tokens are neither issued
	// nor accepted.
	JWTSecret         string `envconfig:"JWT_SECRET"`
	RequireWalletAuth bool   `envconfig:"REQUIRE_WALLET_AUTH" default:"false"`

	UploadDir      string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	BaseURL        string `envconfig:"BASE_URL" default:"http://localhost:5006"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`

	AWSRegion          string `envconfig:"AWS_REGION"`
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	AWSS3Bucket        string `envconfig:"AWS_S3_BUCKET"`

	EthRPCURL             string        `envconfig:"ETH_RPC_URL"`
	EscrowContractAddress string        `envconfig:"ESCROW_CONTRACT_ADDRESS"`
	ReconcileInterval     time.Duration `envconfig:"RECONCILE_INTERVAL" default:"1m"`
	AVAXPerINR            float64       `envconfig:"AVAX_PER_INR" default:"0.0003"`

	EmailFrom     string `envconfig:"EMAIL_FROM"`
	EmailPassword string `envconfig:"EMAIL_PASSWORD"`
	SMTPHost      string `envconfig:"SMTP_HOST"`
	SMTPPort      string `envconfig:"SMTP_PORT"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine in containers where the environment is injected.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot run with.
func (c *Config) Validate() error {
	if c.RequireWalletAuth && c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set when REQUIRE_WALLET_AUTH is enabled")
	}
	return nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

// S3Enabled reports whether AWS credentials are complete enough to use S3.
func (c *Config) S3Enabled() bool {
	return c.AWSRegion != "" && c.AWSAccessKeyID != "" && c.AWSSecretAccessKey != ""
}

// ChainEnabled reports whether the escrow contract can be read.
func (c *Config) ChainEnabled() bool {
	return c.EthRPCURL != "" && c.EscrowContractAddress != ""
}
