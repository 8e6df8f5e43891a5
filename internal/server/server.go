// Package server wires the HTTP routes over the domain operations.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codehornets/julep/internal/config"
	"github.com/codehornets/julep/internal/handlers"
	"github.com/codehornets/julep/internal/logger"
	"github.com/codehornets/julep/internal/queries/agents"
	"github.com/codehornets/julep/internal/queries/developers"
	"github.com/codehornets/julep/internal/queries/docs"
	"github.com/codehornets/julep/internal/queries/entries"
	"github.com/codehornets/julep/internal/queries/sessions"
	"github.com/codehornets/julep/internal/queries/users"
	"github.com/codehornets/julep/internal/store"
)

// Server hosts the HTTP API over a single backing store.
type Server struct {
	Router *gin.Engine
	store  *store.Store
	config *config.Config
	http   *http.Server
}

// New builds a server with all routes registered.
func New(cfg *config.Config, st *store.Store) *Server {
	router := gin.Default()

	s := &Server{
		Router: router,
		store:  st,
		config: cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	corsConfig := cors.Config{
		AllowOrigins:     s.config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Developer-Id"},
		AllowCredentials: true,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	s.Router.Use(cors.New(corsConfig))

	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ex := s.store.Executor()
	agentStore := agents.New(ex)
	developerStore := developers.New(ex)
	userStore := users.New(ex)
	sessionStore := sessions.New(ex)
	entryStore := entries.New(ex)
	docStore := docs.New(ex)

	api := s.Router.Group("/api/v1")
	{
		api.GET("/health", s.healthCheckHandler)

		api.POST("/developers", handlers.CreateDeveloperHandler(developerStore))
		api.GET("/developers/self", handlers.GetDeveloperHandler(developerStore))

		api.POST("/agents/:agent_id", handlers.CreateOrUpdateAgentHandler(agentStore))
		api.GET("/agents", handlers.ListAgentsHandler(agentStore))
		api.GET("/agents/:agent_id", handlers.GetAgentHandler(agentStore))
		api.DELETE("/agents/:agent_id", handlers.DeleteAgentHandler(agentStore))

		api.POST("/users/:user_id", handlers.CreateOrUpdateUserHandler(userStore))
		api.PATCH("/users/:user_id", handlers.PatchUserHandler(userStore))
		api.GET("/users", handlers.ListUsersHandler(userStore))
		api.GET("/users/:user_id", handlers.GetUserHandler(userStore))

		api.POST("/sessions", handlers.CreateSessionHandler(sessionStore))
		api.POST("/sessions/:session_id", handlers.CreateOrReplaceSessionHandler(sessionStore))
		api.PATCH("/sessions/:session_id", handlers.PatchSessionHandler(sessionStore))
		api.GET("/sessions/:session_id", handlers.GetSessionHandler(sessionStore))

		api.POST("/sessions/:session_id/entries", handlers.CreateEntriesHandler(entryStore))
		api.GET("/sessions/:session_id/entries", handlers.ListEntriesHandler(entryStore))
		api.POST("/sessions/:session_id/relations", handlers.AddEntryRelationsHandler(entryStore))

		api.POST("/docs/search", handlers.SearchDocsHandler(docStore))
	}
}

// healthCheckHandler reports liveness plus the store's reachability.
func (s *Server) healthCheckHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.store.Health(ctx); err != nil {
		status["status"] = "unhealthy"
		status["postgres"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	status["postgres"] = "ok"
	c.JSON(http.StatusOK, status)
}

// Start blocks serving HTTP until the listener fails or Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	logger.Logger.Info().Str("addr", addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
