package router

import (
	"net/http"
	"os"

	"library-catalog/internal/config"
	"library-catalog/internal/handlers"
	"library-catalog/internal/middleware"
	"library-catalog/internal/models"
	"library-catalog/internal/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// SetupRouter wires the API routes and wraps the whole server, static files
// included, in the global middleware chain.
func SetupRouter(cfg config.Config, catalog *services.CatalogService, authService *services.AuthService, logger zerolog.Logger) http.Handler {
	authHandler := handlers.NewAuthHandler(authService, logger)
	userHandler := handlers.NewUserHandler(authService, logger)
	bookHandler := handlers.NewBookHandler(catalog, logger)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequestValidation())
	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Authentication(authService, logger))
	protected.HandleFunc("/me", authHandler.Me).Methods("GET")

	users := protected.PathPrefix("/users").Subrouter()
	users.Use(middleware.RequireRole(string(models.RoleAdmin)))
	users.HandleFunc("", userHandler.GetUsers).Methods("GET")
	users.HandleFunc("/{username}", userHandler.UpdateUser).Methods("PATCH")
	users.HandleFunc("/{username}", userHandler.DeleteUser).Methods("DELETE")

	protected.HandleFunc("/books", bookHandler.ListBooks).Methods("GET")
	protected.HandleFunc("/books", bookHandler.CreateBook).Methods("POST")
	protected.HandleFunc("/books/search", bookHandler.SearchBooks).Methods("GET")
	protected.HandleFunc("/books/raw", bookHandler.RawXML).Methods("GET")
	protected.HandleFunc("/books/xpath", bookHandler.XPathQuery).Methods("GET")
	protected.HandleFunc("/books-xml", bookHandler.RawXML).Methods("GET")
	protected.HandleFunc("/books-xsd", bookHandler.Schema).Methods("GET")
	protected.HandleFunc("/books/{id}", bookHandler.GetBook).Methods("GET")
	protected.HandleFunc("/books/{id}", bookHandler.UpdateBook).Methods("PUT")
	protected.HandleFunc("/books/{id}", bookHandler.DeleteBook).Methods("DELETE")

	root := http.NewServeMux()
	root.Handle("/api/", r)
	root.Handle("/health", r)
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		root.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
		logger.Info().Str("dir", cfg.StaticDir).Msg("Serving static client")
	} else {
		root.Handle("/", r)
	}

	chain := []func(http.Handler) http.Handler{
		middleware.ErrorHandling(logger),
		middleware.PerformanceMonitoring(logger),
		middleware.RequestLogging(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.CORSOrigins),
	}
	if cfg.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
		chain = append(chain, rateLimiter.Middleware())
	}

	var handler http.Handler = root
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not_found","message":"API Not Found"}`))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"error":"method_not_allowed","message":"Method not allowed"}`))
}
