package account

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/trendora/storefront-api/internal/auth"
	"github.com/trendora/storefront-api/internal/httputil"
	"github.com/trendora/storefront-api/internal/logging"
	"github.com/trendora/storefront-api/internal/user"
)

// AccountService is the service surface the handler needs
type AccountService interface {
	CreateAccount(ctx context.Context, name, email, password string) (*user.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	Authenticate(ctx context.Context, email, password string) (*auth.Tokens, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*auth.Tokens, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
	GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// RateLimiter is the per-IP limiter surface the handler needs
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
}

// Handler contains HTTP handlers for the account endpoints
type Handler struct {
	service     AccountService
	rateLimiter RateLimiter
	logger      *logging.Logger
}

func NewHandler(service AccountService, rateLimiter RateLimiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// CreateRequest represents the account creation request body
type CreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CheckRequest represents the email existence check request body
type CheckRequest struct {
	Email string `json:"email"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// MessageResponse is the body shape of the create route
type MessageResponse struct {
	Message string `json:"message"`
}

// CheckResponse is the body shape of the check route
type CheckResponse struct {
	Exists bool `json:"exists"`
}

// LoginResponse is the body shape of the login route. Token fields are
// present on success only.
type LoginResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// ProfileResponse is the body shape of the me route
type ProfileResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Create handles account creation
// @Summary      Create a new account
// @Description  Create a new storefront account with name, email and password
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body CreateRequest true "Account details"
// @Success      201 {object} MessageResponse
// @Failure      400 {object} MessageResponse "Validation failure or email already taken"
// @Failure      429 {object} httputil.ErrorResponse
// @Failure      500 {object} MessageResponse
// @Router       /api/user/ [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create request body", "error", err.Error())
		httputil.RespondJSON(w, MessageResponse{Message: "invalid request body"}, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, err := h.service.CreateAccount(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("account creation failed: email already exists")
			httputil.RespondJSON(w, MessageResponse{Message: "User already exists"}, http.StatusBadRequest)
			return
		}
		if isValidationError(err) {
			logger.Warn("account creation failed: validation error", "error", err.Error())
			httputil.RespondJSON(w, MessageResponse{Message: err.Error()}, http.StatusBadRequest)
			return
		}
		// Detail stays in the server log; the body gets a generic message
		logger.Error("account creation failed: internal error", "error", err.Error())
		httputil.RespondJSON(w, MessageResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	logger.Info("account created", "user_id", newUser.ID)

	httputil.RespondJSON(w, MessageResponse{Message: "User created successfully"}, http.StatusCreated)
}

// Check handles the email existence pre-check
// @Summary      Check if an email is registered
// @Description  Pure existence lookup used by the signup form before submission
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body CheckRequest true "Email to check"
// @Success      200 {object} CheckResponse
// @Failure      500 {object} MessageResponse
// @Router       /api/user/check [post]
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid check request body", "error", err.Error())
		httputil.RespondJSON(w, MessageResponse{Message: "invalid request body"}, http.StatusBadRequest)
		return
	}

	exists, err := h.service.CheckEmailExists(r.Context(), req.Email)
	if err != nil {
		logger.Error("email check failed: internal error", "error", err.Error())
		httputil.RespondJSON(w, MessageResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, CheckResponse{Exists: exists}, http.StatusOK)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password; returns tokens on success
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      404 {object} LoginResponse "Unknown email"
// @Failure      401 {object} LoginResponse "Wrong password"
// @Failure      429 {object} httputil.ErrorResponse
// @Failure      500 {object} LoginResponse
// @Router       /api/user/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondJSON(w, LoginResponse{Success: false, Message: "invalid request body"}, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	tokens, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUnknownEmail) {
			logger.Warn("login failed: unknown email")
			httputil.RespondJSON(w, LoginResponse{Success: false, Message: "Invalid email"}, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrWrongPassword) {
			logger.Warn("login failed: wrong password")
			httputil.RespondJSON(w, LoginResponse{Success: false, Message: "Invalid password"}, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondJSON(w, LoginResponse{Success: false, Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in")

	httputil.RespondJSON(w, LoginResponse{
		Success:      true,
		Message:      "Login successful",
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		ExpiresIn:    tokens.ExpiresIn,
	}, http.StatusOK)
}

// Refresh handles access token refresh
// @Summary      Refresh access token
// @Description  Use a refresh token to get a new token pair
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token"
// @Success      200 {object} auth.Tokens
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/user/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		logger.Warn("refresh token missing from request body")
		httputil.RespondError(w, "refresh token required", http.StatusBadRequest)
		return
	}

	tokens, err := h.service.RefreshAccessToken(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrRefreshTokenRevoked) || errors.Is(err, auth.ErrRefreshTokenExpired) {
			logger.Warn("token refresh failed: invalid or expired token", "error", err.Error())
			httputil.RespondError(w, "invalid or expired refresh token", http.StatusUnauthorized)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("access token refreshed")

	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// Logout revokes the supplied refresh token
// @Summary      User logout
// @Description  Revoke a refresh token so it cannot mint new access tokens
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Refresh token"
// @Success      200 {object} MessageResponse
// @Router       /api/user/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		if err := h.service.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
			logger.Warn("failed to revoke refresh token", "error", err)
			// Logout still succeeds from the client's point of view
		}
	}

	httputil.RespondJSON(w, MessageResponse{Message: "logged out"}, http.StatusOK)
}

// LogoutAll revokes every refresh token of the authenticated user
// @Summary      Logout everywhere
// @Description  Revoke all refresh tokens issued to the authenticated user
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/user/logout-all [post]
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.RevokeAllSessions(r.Context(), userID); err != nil {
		logger.Error("failed to revoke user sessions", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to log out everywhere", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("all sessions revoked", "user_id", userID)

	httputil.RespondJSON(w, MessageResponse{Message: "logged out everywhere"}, http.StatusOK)
}

// Me returns the authenticated user's profile
// @Summary      Current account
// @Description  Return the profile of the authenticated user
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/user/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ProfileResponse{
		ID:    profile.ID,
		Name:  profile.Name,
		Email: profile.Email,
	}, http.StatusOK)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrInvalidEmailFormat) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrPasswordTooShort)
}

// getClientIP extracts the client IP, trusting RemoteAddr as set by the
// RealIP middleware
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
