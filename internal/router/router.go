package router

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/comedor-system/api/internal/config"
	"github.com/comedor-system/api/internal/database"
	"github.com/comedor-system/api/internal/enum"
	"github.com/comedor-system/api/internal/handler"
	mw "github.com/comedor-system/api/internal/middleware"
	"github.com/comedor-system/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// API routes live under /api; anything else falls through to the
// static frontend shell.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
		authHandler.RegisterRoutes(r)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))

			// User management (administrators only)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdministrador))
				userHandler := handler.NewUserHandler(queries)
				r.Route("/users", userHandler.RegisterRoutes)
			})

			// Dishes
			dishHandler := handler.NewDishHandler(queries)
			r.Route("/dishes", func(r chi.Router) {
				r.Get("/", dishHandler.List)

				// Menu changes are administrator-only
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.UserRoleAdministrador))
					r.Post("/", dishHandler.Create)
					r.Delete("/{id}", dishHandler.Delete)
				})
			})

			// Orders
			newOrderStore := func(db database.DBTX) service.OrderStore {
				return database.New(db)
			}
			orderService := service.NewOrderService(pool, newOrderStore)
			orderHandler := handler.NewOrderHandler(orderService, queries)
			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.Create)
				r.Get("/", orderHandler.List)

				// Status changes come from the kitchen
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.UserRoleCocina, enum.UserRoleAdministrador))
					r.Patch("/{id}", orderHandler.UpdateStatus)
				})
			})

			// Payments
			newPaymentStore := func(db database.DBTX) service.PaymentStore {
				return database.New(db)
			}
			paymentService := service.NewPaymentService(pool, newPaymentStore)
			paymentHandler := handler.NewPaymentHandler(paymentService, queries)
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", paymentHandler.List)

				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.UserRoleCobrador, enum.UserRoleAdministrador))
					r.Post("/", paymentHandler.Settle)
				})
			})
		})
	})

	// Everything outside /api serves the static frontend. Unknown
	// frontend paths get the SPA shell so client-side routing works.
	fileServer := http.FileServer(http.Dir(cfg.StaticDir))
	indexPath := filepath.Join(cfg.StaticDir, "index.html")

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
			return
		}
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if req.URL.Path != "/" && fileExists(cfg.StaticDir, req.URL.Path) {
			fileServer.ServeHTTP(w, req)
			return
		}
		http.ServeFile(w, req, indexPath)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusMethodNotAllowed)
			w.Write([]byte(`{"error":"method not allowed"}`))
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	log.Println("Router initialized with all handlers")
	return r
}

func fileExists(dir, urlPath string) bool {
	clean := filepath.Clean("/" + urlPath)
	full := filepath.Join(dir, clean)
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}
