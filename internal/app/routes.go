package app

import (
	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/access"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/modules/auth"
	"github.com/referrio/core/internal/modules/billing"
	"github.com/referrio/core/internal/modules/portalsession"
	"github.com/referrio/core/internal/modules/presence"
	"github.com/referrio/core/internal/modules/referral"
	"github.com/referrio/core/internal/modules/settings"
	"github.com/referrio/core/internal/modules/source"
	"github.com/referrio/core/internal/pkg/botcheck"
	"github.com/referrio/core/internal/pkg/export"
	"github.com/referrio/core/internal/pkg/mail"
	pkgredis "github.com/referrio/core/internal/pkg/redis"
	"github.com/referrio/core/internal/pkg/response"
)

func (a *App) registerRoutes(rc *pkgredis.Client, registry *presence.Registry) {
	r := a.router
	db := a.db
	cfg := a.cfg
	logger := a.logger

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(rc.Raw()))
	api.Use(middleware.Idempotence(rc.Raw()))

	checker := access.NewChecker(access.NewStaffDirectory(db), cfg.AdminEmail)
	bot := botcheck.New(cfg.BotCheck, logger)
	mailer := mail.New(cfg.Mail)

	uploader, err := export.NewUploader(cfg.Export)
	if err != nil {
		logger.Warn("export archive disabled: " + err.Error())
	}

	// The protected chain: valid session, then authorization against the
	// agency the Host header resolved to, then a usable subscription.
	billingSvc := billing.NewService(db)
	protected := []gin.HandlerFunc{
		middleware.RequireSession(db),
		middleware.RequireAgencyAccess(checker, logger),
		billing.RequireActiveSubscription(billingSvc, db),
	}

	authSvc := auth.NewService(db, checker, cfg.SessionTTL())
	auth.NewHandler(authSvc, bot, cfg.IsProd()).RegisterRoutes(api, db)

	referralSvc := referral.NewService(a.docs)
	exporter := referral.NewExporter(referralSvc, uploader, logger)
	referral.NewHandler(referralSvc, db, bot, mailer, exporter, cfg.Domain.Root, logger).
		RegisterRoutes(api, protected...)

	source.NewHandler(source.NewService(a.docs), db).RegisterRoutes(api, protected...)
	settings.NewHandler(settings.NewService(db), db).RegisterRoutes(api, protected...)

	presence.NewHandler(registry).RegisterRoutes(api, protected...)
	portalsession.NewHandler(a.sessions).RegisterRoutes(api, protected...)

	billing.NewHandler(billingSvc, cfg.Billing.WebhookSecret, logger).RegisterRoutes(api)
}
