package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported store drivers
const (
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type StoreConfig struct {
	Driver    string
	TableName string
	Region    string
	Endpoint  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type AuthConfig struct {
	UserPoolID      string
	Region          string
	JWKSURL         string
	Issuer          string
	RequiredScope   string
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	PublicPaths     []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("STORE_DRIVER", StoreDriverDynamoDB)
	viper.SetDefault("PRODUCTS_TABLE_NAME", "Products")
	viper.SetDefault("AWS_REGION", "us-east-2")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("JWKS_CACHE_TTL", "1h")
	viper.SetDefault("JWKS_REFRESH_INTERVAL", "5m")
	viper.SetDefault("AUTH_PUBLIC_PATHS", "/hello,/health")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	region := viper.GetString("AWS_REGION")

	// ENDPOINT is the name the local DynamoDB setup has always used
	endpoint := viper.GetString("DYNAMODB_ENDPOINT")
	if endpoint == "" {
		endpoint = viper.GetString("ENDPOINT")
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(viper.GetString("STORE_DRIVER")),
			TableName: viper.GetString("PRODUCTS_TABLE_NAME"),
			Region:    region,
			Endpoint:  endpoint,
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Auth: AuthConfig{
			UserPoolID:      viper.GetString("COGNITO_USER_POOL_ID"),
			Region:          region,
			JWKSURL:         viper.GetString("JWKS_URL"),
			Issuer:          viper.GetString("AUTH_ISSUER"),
			RequiredScope:   viper.GetString("AUTH_REQUIRED_SCOPE"),
			CacheTTL:        viper.GetDuration("JWKS_CACHE_TTL"),
			RefreshInterval: viper.GetDuration("JWKS_REFRESH_INTERVAL"),
			PublicPaths:     splitList(viper.GetString("AUTH_PUBLIC_PATHS")),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  viper.GetBool("RATE_LIMIT_ENABLED"),
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}
}

// Validate reports configuration that would leave the service unable to
// persist products or verify tokens.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Store.TableName) == "" {
		errs = append(errs, errors.New("PRODUCTS_TABLE_NAME must not be empty"))
	}

	switch c.Store.Driver {
	case StoreDriverDynamoDB, StoreDriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver))
	}

	if c.Auth.JWKSURL == "" && c.Auth.UserPoolID == "" {
		errs = append(errs, errors.New("either JWKS_URL or COGNITO_USER_POOL_ID must be set"))
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rate limit requires positive RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW"))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

// KeySetURL returns the JWKS discovery endpoint for the configured user pool
func (a AuthConfig) KeySetURL() string {
	if a.JWKSURL != "" {
		return a.JWKSURL
	}
	return a.PoolIssuer() + "/.well-known/jwks.json"
}

// ExpectedIssuer returns the iss claim tokens must carry. Empty disables the check.
func (a AuthConfig) ExpectedIssuer() string {
	if a.Issuer != "" {
		return a.Issuer
	}
	if a.UserPoolID == "" {
		return ""
	}
	return a.PoolIssuer()
}

// PoolIssuer is the Cognito issuer URL of the user pool
func (a AuthConfig) PoolIssuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", a.Region, a.UserPoolID)
}

// Addr returns host:port for the Redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
