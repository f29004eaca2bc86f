// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, auth,
// metrics, idempotency, rate limiting, CORS and security headers.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-lesson-tutor/docs"
	"github.com/tbourn/go-lesson-tutor/internal/config"
	"github.com/tbourn/go-lesson-tutor/internal/http/handlers"
	"github.com/tbourn/go-lesson-tutor/internal/http/middleware"
	"github.com/tbourn/go-lesson-tutor/internal/sysutil"
)

// maxBodyBytes caps request bodies; chat messages are a few KiB at most.
const maxBodyBytes = 1 << 20

// Deps are the services the routes are bound to.
type Deps struct {
	DB       *gorm.DB
	Tutor    handlers.TutorService
	Courses  handlers.CourseService
	Profiles handlers.ProfileService
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. JWT auth (when a secret is configured), so later steps see the user
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS, security headers and compression
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key", middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	if cfg.JWTSecret != "" {
		r.Use(middleware.JWTAuth(middleware.AuthOptions{
			Secret: cfg.JWTSecret,
			Skip:   func(c *gin.Context) bool { return !isAPIPath(c.Request.URL.Path, apiBase) },
		}))
	}

	r.Use(middleware.Metrics())

	idem := handlers.NewDBIdempotencyStore(deps.DB, cfg.IdempotencyTTL)
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.Exists))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.Tutor, deps.Courses, deps.Profiles, idem)

	api := groupWithPrefix(r, apiBase)
	{
		api.POST("/chat", h.PostChat)
		api.GET("/chat/messages", h.ListChatMessages)

		api.GET("/courses/:courseId", h.GetCourse)
		api.GET("/courses/:courseId/overview", h.GetCourseOverview)
		api.POST("/courses/:courseId/enroll", h.EnrollCourse)
		api.GET("/courses/:courseId/progress", h.GetProgress)

		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.PutProfile)
		api.POST("/profile/sessions", h.RecordSession)
	}
}

// corsConfig allows any origin when none are configured. Credentials are
// never allowed: the API authenticates with bearer tokens, not cookies.
func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{"X-Request-ID", "ETag", "Retry-After", "Idempotency-Replayed", "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}

// health reports liveness plus database reachability.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "version": sysutil.Version()})
	}
}

// isAPIPath reports whether path is served by the API group.
func isAPIPath(path, base string) bool {
	if base == "" || base == "/" {
		return path != "/health" && path != "/metrics" && !strings.HasPrefix(path, "/swagger/")
	}
	return path == base || strings.HasPrefix(path, base+"/")
}

// limitBody caps the request body at maxBytes; reads past it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
