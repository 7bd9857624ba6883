package core

import (
	"fmt"
	"net/http"
	"time"

	m "riskgate/internal/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// requestTimeout must outlive the synchronous login path, which makes two
// upstream calls with a 10 s budget each.
const requestTimeout = 25 * time.Second

// StartHTTPServer serves one service's routes on its own port. Blocks until
// the listener fails.
func StartHTTPServer(name string, port int, allowedOrigins []string, routes chi.Router) {
	r := chi.NewRouter()

	r.Use(middleware.Timeout(requestTimeout))
	r.Use(m.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Mount("/", routes)

	zap.L().Info("HTTP server starting",
		zap.String("service", name),
		zap.Int("port", port))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil {
		zap.L().Error("HTTP server stopped",
			zap.String("service", name),
			zap.Error(err))
	}
}
