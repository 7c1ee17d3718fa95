package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"product-api/internal/auth"
	"product-api/internal/config"
	"product-api/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	saves map[string][]domain.Product
}

func (m *memoryStore) Save(ctx context.Context, tableName string, product *domain.Product) error {
	m.saves[tableName] = append(m.saves[tableName], *product)
	return nil
}

func (m *memoryStore) count() int {
	n := 0
	for _, products := range m.saves {
		n += len(products)
	}
	return n
}

type tokenVerifier map[string]*auth.Claims

func (v tokenVerifier) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, auth.ErrInvalidToken
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test"},
		Store:  config.StoreConfig{Driver: config.StoreDriverDynamoDB, TableName: "Products"},
		Auth:   config.AuthConfig{PublicPaths: []string{"/hello", "/health"}},
	}
}

func testDeps() (Dependencies, *memoryStore) {
	store := &memoryStore{saves: map[string][]domain.Product{}}
	return Dependencies{
		Store: store,
		Verifier: tokenVerifier{
			"writer": {ClientID: "client-1", Scope: "products/write"},
			"reader": {ClientID: "client-2", Scope: "products/read"},
		},
	}, store
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const widget = `{"name":"widget","imageURL":"https://example.com/widget.jpg"}`

func TestRouter_HelloIsPublic(t *testing.T) {
	deps, _ := testDeps()
	router := NewRouter(testConfig(), zap.NewNop(), deps)

	for _, token := range []string{"", "garbage"} {
		w := do(router, http.MethodGet, "/hello", token, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"hello"}`, w.Body.String())
	}

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", "", "").Code)
}

func TestRouter_ProductsRequireToken(t *testing.T) {
	deps, store := testDeps()
	router := NewRouter(testConfig(), zap.NewNop(), deps)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodPost, "/products", "", widget).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodPost, "/products", "forged", widget).Code)
	assert.Equal(t, 0, store.count())
}

func TestRouter_CreateProduct(t *testing.T) {
	deps, store := testDeps()
	router := NewRouter(testConfig(), zap.NewNop(), deps)

	w := do(router, http.MethodPost, "/products", "writer", widget)

	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, store.saves["Products"], 1)
	assert.Equal(t, got, store.saves["Products"][0])
	assert.NotEmpty(t, got.ID)
}

func TestRouter_RequiredScope(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.RequiredScope = "products/write"
	deps, store := testDeps()
	router := NewRouter(cfg, zap.NewNop(), deps)

	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/products", "reader", widget).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/products", "writer", widget).Code)
	assert.Equal(t, 1, store.count())
}

func TestRouter_RateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute}
	deps, store := testDeps()
	deps.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer deps.Redis.Close()
	router := NewRouter(cfg, zap.NewNop(), deps)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/products", "writer", widget).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodPost, "/products", "writer", widget).Code)

	// Budget is per client
	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/products", "reader", widget).Code)
	assert.Equal(t, 3, store.count())
}

type failingStore struct{}

func (failingStore) Save(ctx context.Context, tableName string, product *domain.Product) error {
	return errors.New("connection reset")
}

func TestRouter_StoreFailureIsServerError(t *testing.T) {
	deps, _ := testDeps()
	deps.Store = failingStore{}
	router := NewRouter(testConfig(), zap.NewNop(), deps)

	w := do(router, http.MethodPost, "/products", "writer", widget)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestNewServer(t *testing.T) {
	deps, _ := testDeps()
	srv := NewServer(testConfig(), zap.NewNop(), deps)

	assert.Equal(t, ":0", srv.Addr)
	assert.NoError(t, srv.Close())
}
