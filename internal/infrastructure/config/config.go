package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/backoffice/admin-api/internal/core/domain"
)

const (
	// MinSecretBytes is the shortest signing secret accepted for HS256.
	MinSecretBytes = 32
	// MinBootstrapPasswordBytes applies to the seeded admin password.
	MinBootstrapPasswordBytes = 12
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth     AuthConfig
	Throttle ThrottleConfig
	Cleanup  CleanupConfig

	Mongo MongoConfig
	Redis RedisConfig
	S3    S3Config
}

type AuthConfig struct {
	JWTSecret             string        `env:"JWT_SECRET, required"`
	TokenTTL              time.Duration `env:"TOKEN_TTL,               default=24h"`
	BcryptCost            int           `env:"BCRYPT_COST,             default=10"`
	DefaultRole           string        `env:"DEFAULT_ROLE,            default=viewer"`
	AllowOpenRegistration bool          `env:"ALLOW_OPEN_REGISTRATION, default=false"`

	// BootstrapAdminEmail and BootstrapAdminPassword seed an admin at
	// startup when set. Both or neither.
	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// HasBootstrapAdmin reports whether an admin should be seeded at startup.
func (a AuthConfig) HasBootstrapAdmin() bool {
	return a.BootstrapAdminEmail != ""
}

type ThrottleConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=5"`
	Window      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

type CleanupConfig struct {
	Workers int `env:"CLEANUP_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=backoffice"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type S3Config struct {
	Bucket    string `env:"S3_BUCKET,     default=product-images"`
	Region    string `env:"S3_REGION,     default=us-east-1"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	PathStyle bool   `env:"S3_PATH_STYLE, default=false"`
	PublicURL string `env:"S3_PUBLIC_URL"`
}

// IsProduction reports whether ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < MinSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretBytes))
	}
	if !domain.ValidRole(c.Auth.DefaultRole) {
		errs = append(errs, fmt.Errorf("DEFAULT_ROLE %q is not a known role", c.Auth.DefaultRole))
	}
	if (c.Auth.BootstrapAdminEmail == "") != (c.Auth.BootstrapAdminPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}
	if c.Auth.BootstrapAdminPassword != "" && len(c.Auth.BootstrapAdminPassword) < MinBootstrapPasswordBytes {
		errs = append(errs, fmt.Errorf("BOOTSTRAP_ADMIN_PASSWORD must be at least %d bytes", MinBootstrapPasswordBytes))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Throttle.MaxAttempts <= 0 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be positive"))
	}
	if c.Throttle.Window <= 0 {
		errs = append(errs, errors.New("LOGIN_WINDOW must be positive"))
	}
	if c.S3.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET must not be empty"))
	}
	return errors.Join(errs...)
}
