package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/renderinc/brewblog/internal/logger"
	"github.com/renderinc/brewblog/internal/search"
	"github.com/renderinc/brewblog/internal/storage"
)

// Server is the JSON API over the catalog.
type Server struct {
	store  *storage.Store
	logger logger.Logger
	engine *gin.Engine
}

func NewServer(store *storage.Store, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{store: store, logger: log}
	s.engine = s.setupRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(corsMiddleware())
	router.Use(loggingMiddleware(s.logger))
	router.Use(metricsMiddleware())

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	breweries := router.Group("/breweries")
	{
		breweries.GET("", s.handleListBreweries)
		breweries.GET("/search", s.searchHandler("brewery", "/breweries"))
		breweries.GET("/:id", s.handleGetBrewery)
		breweries.POST("", s.handleCreateBrewery)
	}

	beers := router.Group("/beers")
	{
		beers.GET("", s.handleListBeers)
		beers.GET("/search", s.searchHandler("beer", "/beers"))
		beers.POST("", s.handleCreateBeer)
	}

	drinkers := router.Group("/drinkers")
	{
		drinkers.GET("", s.handleListDrinkers)
		drinkers.GET("/search", s.searchHandler("drinker", "/drinkers"))
		drinkers.GET("/:id", s.handleGetDrinker)
		drinkers.POST("", s.handleCreateDrinker)
		drinkers.PUT("/:id", s.handleUpdateDrinker)
		drinkers.POST("/:id/edit", s.handleUpdateDrinker)
		drinkers.DELETE("/:id", s.handleDeleteDrinker)
		drinkers.POST("/:id/delete", s.handleDeleteDrinker)
	}

	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	statuses, err := s.store.IndexStatuses(c.Request.Context())
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"search_available": search.Enabled(s.store.Gateway()),
		"types":            statuses,
	})
}
