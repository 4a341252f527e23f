package presence

import (
	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/pkg/response"
	"github.com/referrio/core/internal/tenant"
)

type pingDTO struct {
	DisplayName string `json:"displayName"`
}

type Handler struct {
	reg *Registry
}

func NewHandler(reg *Registry) *Handler {
	return &Handler{reg: reg}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, protectedMW ...gin.HandlerFunc) {
	p := rg.Group("/presence", protectedMW...)
	p.POST("/ping", h.ping)
	p.GET("/online", h.online)
}

// ping marks the signed-in identity online for the resolved agency. The
// default agency carries no presence.
func (h *Handler) ping(c *gin.Context) {
	agencyID := middleware.CurrentAgencyID(c)
	if agencyID == tenant.Default {
		response.NoContent(c)
		return
	}

	var dto pingDTO
	_ = c.ShouldBindJSON(&dto)

	rec := middleware.CurrentSession(c)
	record := h.reg.Mark(agencyID, rec.Email, dto.DisplayName, c.ClientIP())
	response.OK(c, record)
}

func (h *Handler) online(c *gin.Context) {
	response.OK(c, h.reg.Online(middleware.CurrentAgencyID(c)))
}
