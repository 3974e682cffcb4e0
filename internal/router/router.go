package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juicy-pos/api/internal/config"
	"github.com/juicy-pos/api/internal/database"
	"github.com/juicy-pos/api/internal/enum"
	"github.com/juicy-pos/api/internal/handler"
	mw "github.com/juicy-pos/api/internal/middleware"
	"github.com/juicy-pos/api/internal/service"
	"github.com/juicy-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	r.Route("/auth", authHandler.RegisterRoutes)

	// WebSocket order feed (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	newStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newStore)
	publicService := service.NewPublicOrderService(pool, queries, newStore)

	// Public QR ordering routes, rate limited per client IP
	publicLimiter, err := mw.PublicRateLimit(cfg.PublicRateLimit)
	if err != nil {
		log.Fatalf("invalid PUBLIC_RATE_LIMIT %q: %v", cfg.PublicRateLimit, err)
	}
	publicHandler := handler.NewPublicHandler(publicService, queries, hub)
	r.Route("/public", func(r chi.Router) {
		r.Use(publicLimiter)
		publicHandler.RegisterRoutes(r)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		orderHandler := handler.NewOrderHandler(orderService, queries, hub)
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r)
			r.With(mw.RequireRole(enum.UserRoleAdmin)).Delete("/{id}", orderHandler.Delete)
		})

		tableHandler := handler.NewTableHandler(queries)
		r.Route("/tables", func(r chi.Router) {
			tableHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				r.Post("/", tableHandler.Create)
				r.Put("/{id}", tableHandler.Update)
				r.Put("/{id}/status", tableHandler.UpdateStatus)
				r.Delete("/{id}", tableHandler.Delete)
			})
		})
	})

	return r
}
