package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/trendora/storefront-api/internal/account"
	"github.com/trendora/storefront-api/internal/auth"
	"github.com/trendora/storefront-api/internal/config"
	"github.com/trendora/storefront-api/internal/httputil"
	"github.com/trendora/storefront-api/internal/logging"
	"github.com/trendora/storefront-api/internal/product"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	accountHandler *account.Handler,
	productHandler *product.Handler,
	authMiddleware *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Account routes (public)
	r.Route("/api/user", func(r chi.Router) {
		r.Post("/", accountHandler.Create)
		r.Post("/check", accountHandler.Check)
		r.Post("/login", accountHandler.Login)
		r.Post("/refresh", accountHandler.Refresh)
		r.Post("/logout", accountHandler.Logout)

		// Identity-bearing routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/me", accountHandler.Me)
			r.Post("/logout-all", accountHandler.LogoutAll)
		})
	})

	// Product catalog (public, read-only)
	r.Route("/api/product", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Get("/bestsellers", productHandler.Bestsellers)
		r.Get("/{id}", productHandler.Get)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
