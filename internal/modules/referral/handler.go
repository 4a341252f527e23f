package referral

import (
	"errors"
	"math"

	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/models"
	"github.com/referrio/core/internal/pkg/botcheck"
	"github.com/referrio/core/internal/pkg/mail"
	"github.com/referrio/core/internal/pkg/response"
	"github.com/referrio/core/internal/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	svc        *Service
	db         *gorm.DB
	bot        *botcheck.Client
	mailer     *mail.Sender
	exporter   *Exporter
	rootDomain string
	log        *zap.Logger
}

func NewHandler(svc *Service, db *gorm.DB, bot *botcheck.Client, mailer *mail.Sender, exporter *Exporter, rootDomain string, log *zap.Logger) *Handler {
	return &Handler{svc: svc, db: db, bot: bot, mailer: mailer, exporter: exporter, rootDomain: rootDomain, log: log}
}

// RegisterRoutes mounts the public intake endpoint and the protected staff
// CRUD surface. protectedMW is the Tenant→Session→Access chain.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, protectedMW ...gin.HandlerFunc) {
	rg.POST("/intake/referrals", h.intake)

	r := rg.Group("/referrals", protectedMW...)
	r.GET("", h.list)
	r.GET("/export", h.export)
	r.GET("/:id", h.get)
	r.PATCH("/:id", h.update)
	r.DELETE("/:id", h.delete)
}

// intake is the public referral form submission for the agency subdomain.
func (h *Handler) intake(c *gin.Context) {
	agencyID := middleware.CurrentAgencyID(c)
	if agencyID == tenant.Default {
		response.NotFoundMsg(c, "agency not found")
		return
	}

	var dto IntakeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !h.bot.Verify(c.Request.Context(), dto.BotToken, c.ClientIP()) {
		response.ForbiddenMsg(c, "verification failed")
		return
	}

	settings, agency := h.agencyIntakeSettings(agencyID)
	if agency == nil {
		response.NotFoundMsg(c, "agency not found")
		return
	}
	if settings != nil && !settings.IntakeEnabled {
		response.ForbiddenMsg(c, "intake is closed for this agency")
		return
	}

	r, err := h.svc.Create(c.Request.Context(), agency.ID, &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	if settings != nil && settings.NotifyEmail != "" {
		go h.notifyNewReferral(agency, settings.NotifyEmail, r)
	}
	response.Created(c, r)
}

func (h *Handler) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = 20
	}

	agencyID := h.scopedAgencyID(c)
	items, total, err := h.svc.List(c.Request.Context(), agencyID, q.Status, q.Page, q.Size)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	totalPage := int(math.Ceil(float64(total) / float64(q.Size)))
	response.Paged(c, items, response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	})
}

func (h *Handler) get(c *gin.Context) {
	r, err := h.svc.GetByID(c.Request.Context(), h.scopedAgencyID(c), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.OK(c, r)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	r, err := h.svc.Update(c.Request.Context(), h.scopedAgencyID(c), c.Param("id"), &dto)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.OK(c, r)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), h.scopedAgencyID(c), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	response.NoContent(c)
}

// scopedAgencyID maps the resolved subdomain slug to the agency row id used
// in document queries. Unknown slugs scope to an id that matches nothing.
func (h *Handler) scopedAgencyID(c *gin.Context) string {
	slug := middleware.CurrentAgencyID(c)
	var agency models.AgencyModel
	if err := h.db.Select("id").Where("slug = ?", slug).First(&agency).Error; err != nil {
		return slug
	}
	return agency.ID
}

func (h *Handler) agencyIntakeSettings(slug string) (*models.AgencySettingsModel, *models.AgencyModel) {
	var agency models.AgencyModel
	if err := h.db.Where("slug = ? AND active = ?", slug, true).First(&agency).Error; err != nil {
		return nil, nil
	}
	var settings models.AgencySettingsModel
	if err := h.db.Where("agency_id = ?", agency.ID).First(&settings).Error; err != nil {
		return nil, &agency
	}
	return &settings, &agency
}

func (h *Handler) notifyNewReferral(agency *models.AgencyModel, to string, r *Referral) {
	subject, html, text, err := mail.RenderNewReferral(mail.NewReferralData{
		PatientName: r.PatientName,
		AgencyName:  agency.Name,
		SourceName:  r.SourceName,
		Status:      r.Status,
		ReceivedAt:  r.CreatedAt.Format("Jan 2, 2006 15:04 MST"),
		PortalURL:   "https://" + agency.Slug + "." + h.rootDomain + "/portal/referrals/" + r.ID.Hex(),
	})
	if err != nil {
		h.log.Warn("render referral mail failed", zap.Error(err))
		return
	}
	if err := h.mailer.Send(mail.Message{To: []string{to}, Subject: subject, HTML: html, Text: text}); err != nil {
		h.log.Warn("send referral mail failed", zap.Error(err))
	}
}

func (h *Handler) renderError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c)
		return
	}
	response.InternalError(c, err)
}
