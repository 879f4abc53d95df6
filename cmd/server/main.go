package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"timetable-service/internal/app"
	"timetable-service/internal/cache"
	"timetable-service/internal/config"
	"timetable-service/internal/logging"
	"timetable-service/internal/schedule"
	"timetable-service/internal/server"
	"timetable-service/internal/timegrid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := app.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	var timetableCache cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			logger.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			timetableCache = rc
		}
	}

	appInstance := &app.App{
		Repo:     repo,
		Cache:    timetableCache,
		Grid:     timegrid.Default(),
		Rules:    schedule.DefaultRules(),
		LabLabel: cfg.DefaultLabLabel,
		Calendar: app.NewGoogleCalendarConfig(cfg),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(app.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Authorization", "Content-Type", "X-Google-Token"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(app.RateLimiter(cfg.RateLimitPerMin))

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", appInstance.GoogleOAuth2CallbackHandler)

	router.Use(app.AuthMiddleware(cfg.JWTSecret, cfg.Tokens()))
	appInstance.RegisterRoutes(router)

	return server.Run(ctx, router, cfg.AppPort, logger)
}
