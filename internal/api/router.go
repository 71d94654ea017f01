package api

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/rohits-web03/sharegate/docs"
	"github.com/rohits-web03/sharegate/internal/api/handlers"
	"github.com/rohits-web03/sharegate/internal/api/middleware"
	"github.com/rohits-web03/sharegate/internal/config"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Shares *handlers.ShareHandler
	Auth   *handlers.AuthHandler
	Health http.HandlerFunc
}

func SetupRouter(cfg *config.Config, h Handlers, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(cfg.JWTSecret)

	// ---------- PUBLIC ROUTES ----------
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	mux.HandleFunc("POST /api/v1/auth/sign-up", h.Auth.RegisterUser)
	mux.HandleFunc("POST /api/v1/auth/login", h.Auth.LoginUser)
	mux.HandleFunc("GET /api/v1/auth/google/login", h.Auth.HandleGoogleLogin)
	mux.HandleFunc("GET /api/v1/auth/google/callback", h.Auth.HandleGoogleCallback)

	mux.HandleFunc("GET /api/v1/shares/public", h.Shares.ListPublicShares)
	mux.HandleFunc("GET /api/v1/shares/{shareId}", h.Shares.GetShare)
	mux.HandleFunc("POST /api/v1/shares/{shareId}/download", h.Shares.DownloadShare)
	mux.HandleFunc("GET /api/v1/shares/{shareId}/qr", h.Shares.ShareQRCode)

	// ---------- PROTECTED ROUTES ----------
	mux.Handle("POST /api/v1/auth/logout", auth(http.HandlerFunc(h.Auth.Logout)))
	mux.Handle("POST /api/v1/shares", auth(http.HandlerFunc(h.Shares.CreateShare)))
	mux.Handle("GET /api/v1/shares", auth(http.HandlerFunc(h.Shares.ListMyShares)))
	mux.Handle("DELETE /api/v1/shares/{id}", auth(http.HandlerFunc(h.Shares.DeleteShare)))

	log.Debug().Msg("router initialized")
	handler := cors.New(cfg.CorsConfig).Handler(mux)
	return middleware.Logger(log)(handler)
}
