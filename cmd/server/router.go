package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goalbreaker/goalbreaker-api/internal/api"
	apiMiddleware "github.com/goalbreaker/goalbreaker-api/internal/api/middleware"
	"github.com/goalbreaker/goalbreaker-api/internal/api/shared"
	"github.com/goalbreaker/goalbreaker-api/internal/observability"
)

// corsMaxAge is how long browsers may cache a preflight response, in seconds.
const corsMaxAge = 300

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() (http.Handler, error) {
	r := chi.NewRouter()

	httpMetrics, err := observability.NewHTTPMiddleware(app.telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics middleware: %w", err)
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", shared.TraceIDHeader},
		ExposedHeaders:   []string{shared.TraceIDHeader, "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}))
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(httpMetrics)
	r.Use(middleware.Timeout(app.requestTimeout()))

	api.NewGoalHandler(app.goalService, app.logger).Routes(r)

	return r, nil
}

// requestTimeout bounds a whole request. A breakdown may run every attempt
// at the full upstream timeout plus the linear backoff between them.
func (app *application) requestTimeout() time.Duration {
	llm := app.config.LLM
	n := llm.MaxAttempts
	backoff := time.Duration(n*(n-1)/2) * llm.BackoffUnit
	return time.Duration(n)*llm.RequestTimeout + backoff + 10*time.Second
}
