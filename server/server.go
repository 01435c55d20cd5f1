// Package server exposes the adapter over an Anthropic-compatible HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richinex/ollamabridge/adapter"
	"github.com/richinex/ollamabridge/internal/logger"
	"github.com/richinex/ollamabridge/storage"
	"go.uber.org/zap"
)

// Server serves /v1/messages backed by one adapter.
type Server struct {
	server  *http.Server
	logger  *zap.Logger
	adapter *adapter.Adapter
	store   storage.ExchangeStore
	runtime string
}

// Options configures a Server.
type Options struct {
	Addr    string
	Runtime string                // runtime name recorded with exchanges
	Store   storage.ExchangeStore // nil disables the exchange log
	Logger  *zap.Logger
}

// New creates a Server. Call Start to listen.
func New(a *adapter.Adapter, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		logger:  log,
		adapter: a,
		store:   opts.Store,
		runtime: opts.Runtime,
	}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinLogger(s.logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"model":  s.adapter.Model().ID,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	v1 := router.Group("/v1")
	v1.POST("/messages", s.createMessage)
	v1.GET("/models", s.listModels)
	v1.GET("/exchanges", s.listExchanges)
	v1.GET("/exchanges/:id", s.getExchange)

	router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, errNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	return router
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("model", s.adapter.Model().ID))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
