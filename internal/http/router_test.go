package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendora/storefront-api/internal/account"
	"github.com/trendora/storefront-api/internal/auth"
	"github.com/trendora/storefront-api/internal/config"
	"github.com/trendora/storefront-api/internal/logging"
	"github.com/trendora/storefront-api/internal/product"
	"github.com/trendora/storefront-api/internal/user"
)

// stubAccountService satisfies account.AccountService with canned data
type stubAccountService struct{}

func (stubAccountService) CreateAccount(ctx context.Context, name, email, password string) (*user.User, error) {
	return &user.User{ID: uuid.New(), Name: name, Email: email}, nil
}

func (stubAccountService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (stubAccountService) Authenticate(ctx context.Context, email, password string) (*auth.Tokens, error) {
	return &auth.Tokens{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", ExpiresIn: 900}, nil
}

func (stubAccountService) RefreshAccessToken(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	return nil, auth.ErrInvalidToken
}

func (stubAccountService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return nil
}

func (stubAccountService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (stubAccountService) GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return &user.User{ID: id, Name: "Ann", Email: "ann@x.com"}, nil
}

type stubLimiter struct{}

func (stubLimiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	return false, nil
}

func (stubLimiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	return nil
}

type stubCatalog struct{}

func (stubCatalog) List(ctx context.Context) ([]*product.Product, error) {
	return []*product.Product{}, nil
}

func (stubCatalog) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (stubCatalog) ListBestsellers(ctx context.Context) ([]*product.Product, error) {
	return []*product.Product{}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.PasetoService) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Env = "prod" // no swagger route in tests
	cfg.Server.TrustedOrigins = []string{"http://localhost:5173"}

	logger := logging.NewLogger(true)
	pasetoService, err := auth.NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	accountHandler := account.NewHandler(stubAccountService{}, stubLimiter{}, logger)
	productHandler := product.NewHandler(stubCatalog{}, logger)
	authMiddleware := auth.NewMiddleware(pasetoService)

	return NewRouter(cfg, accountHandler, productHandler, authMiddleware, logger), pasetoService
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "api is running")
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRouter_AccountRoutesWired(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(`{"email":"ann@x.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_MeRequiresAuth(t *testing.T) {
	router, pasetoService := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := pasetoService.CreateToken(uuid.New(), "ann@x.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_LogoutAllRequiresAuth(t *testing.T) {
	router, pasetoService := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/user/logout-all", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := pasetoService.CreateToken(uuid.New(), "ann@x.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/user/logout-all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProductRoutesWired(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/product/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/product/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
