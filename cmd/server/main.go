// Command server runs the lesson tutor HTTP API.
//
// @title          Lesson Tutor API
// @version        1.0
// @description    Course-aware tutoring chat backed by hosted assistants, with lesson progress tracking and learner profiles.
// @BasePath       /api
// @schemes        http https
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-lesson-tutor/internal/cache"
	"github.com/tbourn/go-lesson-tutor/internal/catalog"
	"github.com/tbourn/go-lesson-tutor/internal/config"
	"github.com/tbourn/go-lesson-tutor/internal/events"
	httpapi "github.com/tbourn/go-lesson-tutor/internal/http"
	"github.com/tbourn/go-lesson-tutor/internal/llm"
	"github.com/tbourn/go-lesson-tutor/internal/observability"
	"github.com/tbourn/go-lesson-tutor/internal/repo"
	"github.com/tbourn/go-lesson-tutor/internal/services"
	"github.com/tbourn/go-lesson-tutor/internal/sysutil"
)

const (
	shutdownTimeout = 20 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Logger = observability.NewLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.Version())
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if cfg.SeedPath != "" {
		courses, err := catalog.Load(cfg.SeedPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SeedPath).Msg("load course catalog")
		}
		if err := catalog.Apply(ctx, db, courses); err != nil {
			log.Fatal().Err(err).Msg("apply course catalog")
		}
		log.Info().Int("courses", len(courses)).Msg("course catalog applied")
	}

	profileCache, closeCache := newProfileCache(cfg.Cache)
	defer closeCache()
	publisher, closeEvents := newPublisher(cfg.Events)
	defer closeEvents()

	assistants, err := llm.NewOpenAIAssistants(cfg.Assistant.APIKey, cfg.Assistant.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("assistant client")
	}
	unlock, err := services.NewUnlockMatcher(cfg.Assistant.UnlockPattern)
	if err != nil {
		log.Fatal().Err(err).Msg("unlock pattern")
	}

	profiles := services.NewProfileService(db, profileCache, publisher)
	courses := services.NewCourseService(db)
	tutor := services.NewTutorService(db, assistants, profiles, courses, publisher)
	tutor.Unlock = unlock
	tutor.DefaultAssistantID = cfg.Assistant.DefaultAssistantID
	tutor.MaxMessageRunes = cfg.Assistant.MaxMessageRunes
	tutor.Poll = services.PollConfig{
		Interval:    cfg.Assistant.PollInterval,
		MaxAttempts: cfg.Assistant.PollMaxAttempts,
		Budget:      cfg.Assistant.PollBudget,
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Tutor:    tutor,
		Courses:  courses,
		Profiles: profiles,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go purgeIdempotency(ctx, db, purgeInterval)

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", sysutil.Version()).
			Str("db_driver", cfg.DBDriver).
			Bool("auth", cfg.JWTSecret != "").
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newProfileCache returns Redis when an address is configured, otherwise the
// in-process cache. The returned func releases the connection.
func newProfileCache(cfg config.CacheConfig) (cache.ProfileCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.ProfileTTL), func() {}
	}
	rc, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.ProfileTTL)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-process profile cache")
		return cache.NewMemory(cfg.ProfileTTL), func() {}
	}
	return rc, func() { _ = rc.Close() }
}

// newPublisher connects to NATS when a URL is configured. Analytics events
// are best effort, so a failed connection degrades to a no-op publisher.
func newPublisher(cfg config.EventsConfig) (events.Publisher, func()) {
	if cfg.NATSURL == "" {
		return events.Nop{}, func() {}
	}
	nc, err := events.ConnectNATS(cfg.NATSURL, cfg.SubjectPrefix, "lesson-tutor")
	if err != nil {
		log.Warn().Err(err).Msg("nats unavailable, events disabled")
		return events.Nop{}, func() {}
	}
	return nc, nc.Close
}

// purgeIdempotency deletes expired stored responses until ctx ends.
func purgeIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency records")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("purged idempotency records")
			}
		}
	}
}
