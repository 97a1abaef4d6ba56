package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Amar2502/portfolio-backend/config"
	"github.com/Amar2502/portfolio-backend/database"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(db database.Database, svc Services, c map[string]string) (Server, error) {
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port)

	startupTime := time.Now()

	router := newRouter(db, svc, withConfig(c), withStartupTime(startupTime), withRequestLogging(true))

	server := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadTimeout:       config.GetSeconds(c, "READ_TIMEOUT_SECONDS", 180*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 180*time.Second),
		IdleTimeout:       config.GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 180*time.Second),
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
	logRequests bool
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withRequestLogging(enabled bool) func(*router) {
	return func(r *router) {
		r.logRequests = enabled
	}
}

func newRouter(db database.Database, svc Services, opts ...func(*router)) *chi.Mux {
	router := router{startupTime: time.Now()}
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.RealIP)
	chiRouter.Use(LogInternalServerErrors)

	acceptedOrigins := config.GetStrings(router.config, "ACCEPTED_ORIGINS")
	if len(acceptedOrigins) == 0 {
		acceptedOrigins = []string{"*"}
	}
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(corsMiddleware(acceptedOrigins))

	gate := newAdminGate(
		config.GetString(router.config, "ADMIN_KEY", ""),
		config.GetString(router.config, "ADMIN_TOKEN_SECRET", ""),
		time.Duration(config.GetInt(router.config, "ADMIN_TOKEN_TTL_MINUTES", 120))*time.Minute,
	)
	handlers := initializeHandlers(db, svc, gate)
	health := newHealthHandler(db, router.startupTime)

	setupRoutes(chiRouter, handlers, health, router.logRequests)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefulCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefulCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
