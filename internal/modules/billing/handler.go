package billing

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/models"
	"github.com/referrio/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "X-Pay-Signature"

type Handler struct {
	svc    *Service
	secret string
	log    *zap.Logger
}

func NewHandler(svc *Service, secret string, log *zap.Logger) *Handler {
	return &Handler{svc: svc, secret: secret, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/billing/webhook", h.webhook)
}

func (h *Handler) webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}

	if err := VerifySignature(h.secret, c.GetHeader(SignatureHeader), body, time.Now()); err != nil {
		h.log.Warn("webhook rejected", zap.Error(err), zap.String("ip", c.ClientIP()))
		response.BadRequest(c, err.Error())
		return
	}

	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		response.BadRequest(c, "malformed event")
		return
	}

	if err := h.svc.Apply(&evt); err != nil {
		h.log.Error("webhook apply failed", zap.String("event", evt.Type), zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"received": true})
}

// RequireActiveSubscription gates staff portal routes on a usable (active or
// trialing) subscription for the resolved agency. Agencies with no mirrored
// subscription yet are let through; the webhook will catch them up.
func RequireActiveSubscription(svc *Service, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := middleware.CurrentAgencyID(c)

		var agency models.AgencyModel
		if err := db.Select("id").Where("slug = ?", slug).First(&agency).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.Next()
				return
			}
			response.InternalError(c, err)
			return
		}

		sub, err := svc.SubscriptionFor(agency.ID)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if sub != nil && !sub.IsUsable() {
			response.PaymentRequired(c, "subscription inactive")
			return
		}
		c.Next()
	}
}
