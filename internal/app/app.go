package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/config"
	"github.com/referrio/core/internal/database"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/modules/portalsession"
	"github.com/referrio/core/internal/modules/presence"
	"github.com/referrio/core/internal/pkg/clock"
	pkgcron "github.com/referrio/core/internal/pkg/cron"
	jwtpkg "github.com/referrio/core/internal/pkg/jwt"
	pkgredis "github.com/referrio/core/internal/pkg/redis"
	"github.com/referrio/core/internal/tenant"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	docs     *mongo.Database
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
	sessions *portalsession.Manager
}

// New initializes the application: config → MySQL → Mongo → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	db, err := database.Connect(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	docs, err := database.ConnectMongo(cfg)
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Tenant(tenant.EnvironmentFromConfig(cfg)))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", tenant.HeaderKey},
		AllowCredentials: true,
	}
	if cfg.IsProd() {
		patterns := append([]string{"*." + cfg.Domain.Root, cfg.Domain.Root}, cfg.AllowedOrigins...)
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	clk := clock.System()
	registry := presence.NewRegistry(clk)
	sessions := portalsession.NewManager(db, rc, registry, clk, logger, cfg.Session)

	ctx, cancel := context.WithCancel(context.Background())

	sched := pkgcron.New()
	registerCronJobs(sched, db, registry, sessions, logger)
	go sched.Start(ctx)

	app := &App{
		cfg:      cfg,
		router:   router,
		db:       db,
		docs:     docs,
		logger:   logger,
		cancel:   cancel,
		sched:    sched,
		sessions: sessions,
	}
	app.registerRoutes(rc, registry)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines.
func (a *App) Shutdown() {
	a.cancel()
	a.sessions.Shutdown()
}
