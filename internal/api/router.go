// Package api wires together the HTTP routes for the catalog service.
//
// The public surface is mounted under /resources; every list and lookup
// endpoint is readable without authentication, matching the read-only nature
// of the catalog. System endpoints (/health, /ready, /version) live at the
// root. Prometheus metrics are deliberately not routed here; they are served
// on a side port by cmd/server so they never face public ingress.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spiget/spiget-api/internal/api/resources"
	"github.com/spiget/spiget-api/internal/cache"
	"github.com/spiget/spiget-api/internal/config"
	"github.com/spiget/spiget-api/internal/db"
	"github.com/spiget/spiget-api/internal/db/repositories"
	"github.com/spiget/spiget-api/internal/jobs"
	"github.com/spiget/spiget-api/internal/middleware"
	"github.com/spiget/spiget-api/internal/upstream"
)

// Version is the build version, overridable at link time.
var Version = "0.1.0"

// pendingSampleInterval is how often the update-request queue depth is
// published as a gauge.
const pendingSampleInterval = time.Minute

// BackgroundServices holds background jobs and resources that must be stopped
// during graceful shutdown. cmd/server calls Shutdown() after the HTTP server
// has drained.
type BackgroundServices struct {
	pendingSampler *jobs.PendingRequestsSampler
	enrichCache    cache.Cache
}

// Shutdown stops all background goroutines and closes the cache connection.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.pendingSampler != nil {
		bg.pendingSampler.Stop()
	}
	if bg.enrichCache != nil {
		if err := bg.enrichCache.Close(); err != nil {
			slog.Warn("failed to close enrichment cache", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg *config.Config, handle *db.Handle) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Catalog reads go to the replica when one is configured; the intake
	// queue always writes to the primary.
	reader := handle.Reader()
	resourceRepo := repositories.NewResourceRepository(reader)
	authorRepo := repositories.NewAuthorRepository(reader)
	reviewRepo := repositories.NewReviewRepository(reader)
	updateRepo := repositories.NewUpdateRepository(reader)
	versionRepo := repositories.NewVersionRepository(reader)
	updateRequestRepo := repositories.NewUpdateRequestRepository(handle.Primary())

	enrichCache := newEnrichmentCache(cfg)
	origin := upstream.NewClient(cfg.Upstream, cfg.Server.UserAgent)

	handler := resources.NewHandler(cfg,
		resourceRepo, authorRepo, reviewRepo, updateRepo, versionRepo,
		updateRequestRepo, origin, enrichCache)

	pendingSampler := jobs.NewPendingRequestsSampler(updateRequestRepo, pendingSampleInterval)
	pendingSampler.Start(context.Background())

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeaders())

	router.GET("/health", healthCheckHandler(handle))
	router.GET("/ready", readinessHandler(handle))
	router.GET("/version", versionHandler(cfg))

	handler.Register(router.Group("/resources"))

	bg := &BackgroundServices{
		pendingSampler: pendingSampler,
		enrichCache:    enrichCache,
	}

	return router, bg
}

// newEnrichmentCache builds the configured cache, degrading to the noop
// implementation when Redis is disabled or unreachable. A dead cache is an
// operational annoyance, not a startup failure.
func newEnrichmentCache(cfg *config.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return cache.NewNoop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := cache.NewRedis(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
	if err != nil {
		slog.Warn("enrichment cache unavailable, continuing without it", "addr", cfg.Cache.Addr, "error", err)
		return cache.NewNoop()
	}
	slog.Info("enrichment cache connected", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	return c
}

// healthCheckHandler reports liveness, including primary database
// connectivity.
func healthCheckHandler(handle *db.Handle) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := handle.Primary().Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler reports whether the node should receive traffic. Both
// pools must answer; a node whose read replica is down would serve errors on
// most of its endpoints.
func readinessHandler(handle *db.Handle) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := handle.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready": false,
				"error": "database not ready",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ready": true,
			"time":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler reports the build version and node role.
func versionHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version": Version,
			"mode":    cfg.Server.Mode,
		})
	}
}

// LoggerMiddleware emits one structured log line per request.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", rawQuery),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS for the configured origins. The catalog is a
// public read API, so the default configuration allows every origin.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Requested-With")
			c.Header("Access-Control-Expose-Headers", "X-Page-Index, X-Page-Size, X-Page-Count, X-Total-Count, X-Spiget-File-Source")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
