// Package settings exposes per-agency portal settings.
package settings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/models"
	"github.com/referrio/core/internal/pkg/response"
	"gorm.io/gorm"
)

type UpdateDTO struct {
	NotifyEmail   *string `json:"notify_email"   binding:"omitempty,email"`
	IntakeEnabled *bool   `json:"intake_enabled"`
	IntakeBanner  *string `json:"intake_banner"`
	Timezone      *string `json:"timezone"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Get returns the agency's settings, creating a default row on first read.
func (s *Service) Get(agencyID string) (*models.AgencySettingsModel, error) {
	var settings models.AgencySettingsModel
	err := s.db.Where("agency_id = ?", agencyID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.AgencySettingsModel{AgencyID: agencyID, IntakeEnabled: true}
		if err := s.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Service) Update(agencyID string, dto *UpdateDTO) (*models.AgencySettingsModel, error) {
	settings, err := s.Get(agencyID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.NotifyEmail != nil {
		updates["notify_email"] = *dto.NotifyEmail
	}
	if dto.IntakeEnabled != nil {
		updates["intake_enabled"] = *dto.IntakeEnabled
	}
	if dto.IntakeBanner != nil {
		updates["intake_banner"] = *dto.IntakeBanner
	}
	if dto.Timezone != nil {
		updates["timezone"] = *dto.Timezone
	}
	if len(updates) == 0 {
		return settings, nil
	}
	return settings, s.db.Model(settings).Updates(updates).Error
}

type Handler struct {
	svc *Service
	db  *gorm.DB
}

func NewHandler(svc *Service, db *gorm.DB) *Handler {
	return &Handler{svc: svc, db: db}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, protectedMW ...gin.HandlerFunc) {
	g := rg.Group("/settings", protectedMW...)
	g.GET("", h.get)
	g.PATCH("", h.update)
}

func (h *Handler) get(c *gin.Context) {
	settings, err := h.svc.Get(h.scopedAgencyID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, settings)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	settings, err := h.svc.Update(h.scopedAgencyID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, settings)
}

func (h *Handler) scopedAgencyID(c *gin.Context) string {
	slug := middleware.CurrentAgencyID(c)
	var agency models.AgencyModel
	if err := h.db.Select("id").Where("slug = ?", slug).First(&agency).Error; err != nil {
		return slug
	}
	return agency.ID
}
