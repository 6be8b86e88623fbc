// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/config"
	"github.com/vardan-naturals/storefront/internal/domain/cart"
	"github.com/vardan-naturals/storefront/internal/domain/pricesync"
	"github.com/vardan-naturals/storefront/internal/domain/pricing"
	"github.com/vardan-naturals/storefront/internal/interfaces/http/handlers"
	"github.com/vardan-naturals/storefront/internal/interfaces/http/middleware"
	"github.com/vardan-naturals/storefront/internal/interfaces/http/routes"
	"github.com/vardan-naturals/storefront/internal/pkg/auth"
	"github.com/vardan-naturals/storefront/internal/pkg/site"
)

// HealthCheck reports whether a backing service is reachable
type HealthCheck func() error

// Dependencies are the services the HTTP server is built on
type Dependencies struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Storage cart.Storage
	Prices  *pricing.Table
	Sale    *pricing.SaleConfig
	// Redis is optional and enables rate limiting
	Redis  *redis.Client
	Health map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     *logrus.Logger
	deps       Dependencies
	gin        *gin.Engine
	httpServer *http.Server
	pages      *handlers.PageHandler
	stopLive   func()
	startedAt  time.Time
}

// NewServer creates a new HTTP server instance with its routes in place
func NewServer(deps Dependencies) *Server {
	s := &Server{
		config:    deps.Config,
		logger:    deps.Logger,
		deps:      deps,
		startedAt: time.Now(),
	}

	// Set Gin mode based on environment
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.gin = gin.New()
	if err := s.gin.SetTrustedProxies(s.config.Security.TrustedProxies); err != nil {
		s.logger.WithError(err).Warn("Invalid trusted proxies, trusting none")
		s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.logger.Infof("🚀 HTTP Server starting on port %s", s.config.Server.Port)
	s.logger.Infof("🛍️ Storefront: http://localhost:%s/", s.config.Server.Port)
	s.logger.Infof("📊 Health Check: http://localhost:%s/health", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("🛑 Shutting down HTTP server...")

	if s.stopLive != nil {
		s.stopLive()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	s.logger.Info("✅ HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.logger))
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.RateLimit(s.config, s.deps.Redis, s.logger))
	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodySize))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

// setupRoutes wires the handlers
func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	syncer := pricesync.New(s.deps.Prices, s.deps.Sale, s.logger.WithField("component", "pricesync"))
	dir := site.New(s.config.Site.Dir)

	settings := cart.CheckoutSettings{
		ShopName:    s.config.Checkout.ShopName,
		PhoneNumber: s.config.Checkout.PhoneNumber,
	}
	sessions := handlers.NewCartSessions(s.deps.Storage, s.config.Storage.CartKey, settings, s.config.Security.SecureCookies, s.logger)

	tokens := auth.NewJWTManager(s.config)
	h := routes.Handlers{
		Auth:   handlers.NewAuthHandler(s.config.Admin, auth.NewPasswordManager(0), tokens, s.logger),
		Cart:   handlers.NewCartHandler(sessions, s.config.Checkout.ClearDelay, s.logger),
		Prices: handlers.NewPriceHandler(s.deps.Prices, syncer, dir, s.config.Site.IndexPage, s.logger),
		Tokens: tokens,
	}

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, h)

	// Everything else is the storefront itself
	s.pages = handlers.NewPageHandler(dir, syncer, sessions, s.config.Site.IndexPage, s.logger)
	s.gin.NoRoute(s.pages.Serve)
	s.stopLive = syncer.EnableLiveUpdates(s.pages.Invalidate)
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	for name, check := range s.deps.Health {
		if err := check(); err != nil {
			s.logger.WithError(err).WithField("service", name).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  name + " ping failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
		"storage":     s.config.Storage.Driver,
	})
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	if s.deps.Prices == nil || s.deps.Prices.Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "price table not loaded",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).String(),
		"products":  s.deps.Prices.Len(),
	})
}
