package account

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendora/storefront-api/internal/auth"
	"github.com/trendora/storefront-api/internal/logging"
	"github.com/trendora/storefront-api/internal/user"
)

// fakeService scripts the account service outcomes per test
type fakeService struct {
	createUser *user.User
	createErr  error

	exists    bool
	existsErr error

	authTokens *auth.Tokens
	authErr    error

	refreshTokens *auth.Tokens
	refreshErr    error

	revokeErr    error
	revokeAllErr error

	profile    *user.User
	profileErr error
}

func (f *fakeService) CreateAccount(ctx context.Context, name, email, password string) (*user.User, error) {
	return f.createUser, f.createErr
}

func (f *fakeService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeService) Authenticate(ctx context.Context, email, password string) (*auth.Tokens, error) {
	return f.authTokens, f.authErr
}

func (f *fakeService) RefreshAccessToken(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	return f.refreshTokens, f.refreshErr
}

func (f *fakeService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return f.revokeErr
}

func (f *fakeService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	return f.revokeAllErr
}

func (f *fakeService) GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return f.profile, f.profileErr
}

// fakeLimiter optionally reports the limit as exceeded, or fails
type fakeLimiter struct {
	exceeded bool
	checkErr error
}

func (f *fakeLimiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	return f.exceeded, f.checkErr
}

func (f *fakeLimiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	return nil
}

func newTestHandler(svc AccountService) *Handler {
	return NewHandler(svc, &fakeLimiter{}, logging.NewLogger(true))
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestCreate_Success(t *testing.T) {
	h := newTestHandler(&fakeService{
		createUser: &user.User{ID: uuid.New(), Name: "Ann", Email: "ann@x.com"},
	})

	rec := postJSON(t, h.Create, "/api/user/", CreateRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody[MessageResponse](t, rec)
	assert.Equal(t, "User created successfully", body.Message)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	h := newTestHandler(&fakeService{createErr: user.ErrDuplicateEmail})

	rec := postJSON(t, h.Create, "/api/user/", CreateRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[MessageResponse](t, rec)
	assert.Equal(t, "User already exists", body.Message)
}

func TestCreate_ValidationError(t *testing.T) {
	h := newTestHandler(&fakeService{createErr: ErrPasswordTooShort})

	rec := postJSON(t, h.Create, "/api/user/", CreateRequest{Name: "Ann", Email: "ann@x.com", Password: "123"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[MessageResponse](t, rec)
	assert.Equal(t, ErrPasswordTooShort.Error(), body.Message)
}

func TestCreate_InternalErrorHidesDetail(t *testing.T) {
	h := newTestHandler(&fakeService{createErr: assert.AnError})

	rec := postJSON(t, h.Create, "/api/user/", CreateRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[MessageResponse](t, rec)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestCreate_RateLimited(t *testing.T) {
	h := NewHandler(&fakeService{}, &fakeLimiter{exceeded: true}, logging.NewLogger(true))

	rec := postJSON(t, h.Create, "/api/user/", CreateRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

// A limiter outage must not block account creation
func TestCreate_LimiterErrorFailsOpen(t *testing.T) {
	h := NewHandler(&fakeService{
		createUser: &user.User{ID: uuid.New(), Name: "Ann", Email: "ann@x.com"},
	}, &fakeLimiter{checkErr: assert.AnError}, logging.NewLogger(true))

	rec := postJSON(t, h.Create, "/api/user/", CreateRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCheck_ReportsExistence(t *testing.T) {
	for _, exists := range []bool{true, false} {
		h := newTestHandler(&fakeService{exists: exists})

		rec := postJSON(t, h.Check, "/api/user/check", CheckRequest{Email: "ann@x.com"})

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[CheckResponse](t, rec)
		assert.Equal(t, exists, body.Exists)
	}
}

func TestCheck_StoreError(t *testing.T) {
	h := newTestHandler(&fakeService{existsErr: assert.AnError})

	rec := postJSON(t, h.Check, "/api/user/check", CheckRequest{Email: "ann@x.com"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	h := newTestHandler(&fakeService{
		authTokens: &auth.Tokens{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresIn:    900,
		},
	})

	rec := postJSON(t, h.Login, "/api/user/login", LoginRequest{Email: "ann@x.com", Password: "secret1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[LoginResponse](t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "Login successful", body.Message)
	assert.Equal(t, "access", body.AccessToken)
	assert.Equal(t, "refresh", body.RefreshToken)
}

func TestLogin_UnknownEmail(t *testing.T) {
	h := newTestHandler(&fakeService{authErr: ErrUnknownEmail})

	rec := postJSON(t, h.Login, "/api/user/login", LoginRequest{Email: "bob@x.com", Password: "x"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[LoginResponse](t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Invalid email", body.Message)
	assert.Empty(t, body.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newTestHandler(&fakeService{authErr: ErrWrongPassword})

	rec := postJSON(t, h.Login, "/api/user/login", LoginRequest{Email: "ann@x.com", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody[LoginResponse](t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Invalid password", body.Message)
}

func TestLogin_InternalError(t *testing.T) {
	h := newTestHandler(&fakeService{authErr: assert.AnError})

	rec := postJSON(t, h.Login, "/api/user/login", LoginRequest{Email: "ann@x.com", Password: "secret1"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[LoginResponse](t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestRefresh_RequiresToken(t *testing.T) {
	h := newTestHandler(&fakeService{})

	rec := postJSON(t, h.Refresh, "/api/user/refresh", RefreshRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh_InvalidToken(t *testing.T) {
	h := newTestHandler(&fakeService{refreshErr: auth.ErrRefreshTokenExpired})

	rec := postJSON(t, h.Refresh, "/api/user/refresh", RefreshRequest{RefreshToken: "stale"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	h := newTestHandler(&fakeService{revokeErr: assert.AnError})

	rec := postJSON(t, h.Logout, "/api/user/logout", RefreshRequest{RefreshToken: "whatever"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutAll_RevokesSessions(t *testing.T) {
	h := newTestHandler(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/user/logout-all", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDContextKey, uuid.New())
	rec := httptest.NewRecorder()
	h.LogoutAll(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[MessageResponse](t, rec)
	assert.Equal(t, "logged out everywhere", body.Message)
}

func TestLogoutAll_MissingIdentity(t *testing.T) {
	h := newTestHandler(&fakeService{})

	rec := httptest.NewRecorder()
	h.LogoutAll(rec, httptest.NewRequest(http.MethodPost, "/api/user/logout-all", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAll_ServiceError(t *testing.T) {
	h := newTestHandler(&fakeService{revokeAllErr: assert.AnError})

	req := httptest.NewRequest(http.MethodPost, "/api/user/logout-all", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDContextKey, uuid.New())
	rec := httptest.NewRecorder()
	h.LogoutAll(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMe_ReturnsProfile(t *testing.T) {
	userID := uuid.New()
	h := newTestHandler(&fakeService{
		profile: &user.User{ID: userID, Name: "Ann", Email: "ann@x.com"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDContextKey, userID)
	rec := httptest.NewRecorder()
	h.Me(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[ProfileResponse](t, rec)
	assert.Equal(t, userID, body.ID)
	assert.Equal(t, "Ann", body.Name)
}

func TestMe_MissingIdentity(t *testing.T) {
	h := newTestHandler(&fakeService{})

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
