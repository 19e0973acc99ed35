package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

const minSecretLength = 32

type Config struct {
	Server      ServerConfig      `env:",prefix=SERVER_"`
	Postgres    PostgresConfig    `env:",prefix=POSTGRES_"`
	Redis       RedisConfig       `env:",prefix=REDIS_"`
	JWT         JWTConfig         `env:",prefix=JWT_"`
	Security    SecurityConfig    `env:",prefix="`
	CORS        CORSConfig        `env:",prefix=CORS_"`
	Google      GoogleConfig      `env:",prefix=GOOGLE_"`
	URLs        URLConfig         `env:",prefix="`
	Catalog     CatalogConfig     `env:",prefix=CATALOG_"`
	Events      EventsConfig      `env:",prefix=RABBITMQ_"`
	Maintenance MaintenanceConfig `env:",prefix=TOKEN_"`
	Env         string            `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=4000"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=grocery"`
	Password string `env:"PASSWORD,default=grocery_password"`
	DBName   string `env:"DB,default=grocery_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
	Migrate  bool   `env:"MIGRATE,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret             string   `env:"SECRET,required"`
	RefreshSecret      string   `env:"REFRESH_SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=2d"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=30d"`
}

type SecurityConfig struct {
	BCryptCost          int      `env:"BCRYPT_COST,default=10"`
	RateLimitRequests   int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow     Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	AllowedEmailDomains []string `env:"ALLOWED_EMAIL_DOMAINS,default=gmail.com,hotmail.com,outlook.com"`
	CookieSecure        bool     `env:"COOKIE_SECURE,default=false"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// GoogleConfig holds OAuth client credentials. An empty ClientID disables Google login.
type GoogleConfig struct {
	ClientID     string `env:"CLIENT_ID,default="`
	ClientSecret string `env:"CLIENT_SECRET,default="`
}

type URLConfig struct {
	BackendURL  string `env:"BACKEND_URL,default=http://localhost:4000"`
	FrontendURL string `env:"FRONTEND_URL,default=http://localhost:3000"`
}

type CatalogConfig struct {
	CacheTTL Duration `env:"CACHE_TTL,default=30s"`
}

// EventsConfig configures the order event publisher. An empty URL disables it.
type EventsConfig struct {
	URL        string `env:"URL,default="`
	OrderQueue string `env:"ORDER_QUEUE,default=order.placed"`
}

type MaintenanceConfig struct {
	CleanupInterval Duration `env:"CLEANUP_INTERVAL,default=1h"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Enabled reports whether Google login is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != ""
}

// GoogleCallbackURL is the redirect URL registered with Google.
func (u URLConfig) GoogleCallbackURL() string {
	return strings.TrimRight(u.BackendURL, "/") + "/api/auth/google/callback"
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < minSecretLength {
		return errors.New("JWT_SECRET must be at least 32 characters long")
	}
	if len(c.JWT.RefreshSecret) < minSecretLength {
		return errors.New("JWT_REFRESH_SECRET must be at least 32 characters long")
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return errors.New("JWT_REFRESH_SECRET must differ from JWT_SECRET")
	}
	if c.Google.Enabled() && c.Google.ClientSecret == "" {
		return errors.New("GOOGLE_CLIENT_SECRET is required when GOOGLE_CLIENT_ID is set")
	}
	return nil
}
