package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFresh(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFresh(t)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, StoreDriverDynamoDB, cfg.Store.Driver)
	assert.Equal(t, "Products", cfg.Store.TableName)
	assert.Equal(t, "us-east-2", cfg.Store.Region)
	assert.Equal(t, time.Hour, cfg.Auth.CacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.Auth.RefreshInterval)
	assert.Equal(t, []string{"/hello", "/health"}, cfg.Auth.PublicPaths)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PRODUCTS_TABLE_NAME", "products-test")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("ENDPOINT", "http://localhost:8000")
	t.Setenv("COGNITO_USER_POOL_ID", "us-east-2_abc123")
	t.Setenv("AUTH_PUBLIC_PATHS", " /hello , /status ,")
	t.Setenv("STORE_DRIVER", "Postgres")

	cfg := loadFresh(t)

	assert.Equal(t, "products-test", cfg.Store.TableName)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "http://localhost:8000", cfg.Store.Endpoint)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, []string{"/hello", "/status"}, cfg.Auth.PublicPaths)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DynamoEndpointTakesPrecedence(t *testing.T) {
	t.Setenv("ENDPOINT", "http://legacy:8000")
	t.Setenv("DYNAMODB_ENDPOINT", "http://dynamo:8000")

	cfg := loadFresh(t)

	assert.Equal(t, "http://dynamo:8000", cfg.Store.Endpoint)
}

func TestAuthConfig_DerivesCognitoURLs(t *testing.T) {
	a := AuthConfig{UserPoolID: "us-east-2_pool", Region: "us-east-2"}

	assert.Equal(t, "https://cognito-idp.us-east-2.amazonaws.com/us-east-2_pool/.well-known/jwks.json", a.KeySetURL())
	assert.Equal(t, "https://cognito-idp.us-east-2.amazonaws.com/us-east-2_pool", a.ExpectedIssuer())
}

func TestAuthConfig_ExplicitValuesWin(t *testing.T) {
	a := AuthConfig{
		UserPoolID: "pool",
		Region:     "eu-west-1",
		JWKSURL:    "http://keys.local/jwks.json",
		Issuer:     "http://issuer.local",
	}

	assert.Equal(t, "http://keys.local/jwks.json", a.KeySetURL())
	assert.Equal(t, "http://issuer.local", a.ExpectedIssuer())

	// No pool and no explicit issuer means the issuer is not checked
	assert.Empty(t, AuthConfig{JWKSURL: "http://keys.local"}.ExpectedIssuer())
}

func TestValidate_RejectsIncompleteConfig(t *testing.T) {
	cfg := &Config{
		Store: StoreConfig{Driver: "cassandra", TableName: "  "},
		RateLimit: RateLimitConfig{
			Enabled: true,
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRODUCTS_TABLE_NAME")
	assert.Contains(t, err.Error(), "cassandra")
	assert.Contains(t, err.Error(), "JWKS_URL")
	assert.Contains(t, err.Error(), "RATE_LIMIT_REQUESTS")
}
