package source

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/models"
	"github.com/referrio/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
	db  *gorm.DB
}

func NewHandler(svc *Service, db *gorm.DB) *Handler {
	return &Handler{svc: svc, db: db}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, protectedMW ...gin.HandlerFunc) {
	s := rg.Group("/sources", protectedMW...)
	s.GET("", h.list)
	s.POST("", h.create)
	s.GET("/:id", h.get)
	s.PATCH("/:id", h.update)
	s.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), h.scopedAgencyID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	src, err := h.svc.Create(c.Request.Context(), h.scopedAgencyID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, src)
}

func (h *Handler) get(c *gin.Context) {
	src, err := h.svc.GetByID(c.Request.Context(), h.scopedAgencyID(c), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.OK(c, src)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	src, err := h.svc.Update(c.Request.Context(), h.scopedAgencyID(c), c.Param("id"), &dto)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.OK(c, src)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), h.scopedAgencyID(c), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) scopedAgencyID(c *gin.Context) string {
	slug := middleware.CurrentAgencyID(c)
	var agency models.AgencyModel
	if err := h.db.Select("id").Where("slug = ?", slug).First(&agency).Error; err != nil {
		return slug
	}
	return agency.ID
}

func (h *Handler) renderError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c)
		return
	}
	response.InternalError(c, err)
}
