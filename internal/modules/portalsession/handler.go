package portalsession

import (
	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/activity"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/pkg/response"
)

type signalDTO struct {
	Signal string `json:"signal" binding:"required"`
	Path   string `json:"path"   binding:"required"`
}

type stateResponse struct {
	State            activity.State `json:"state"`
	RemainingSeconds int            `json:"remainingSeconds,omitempty"`
	Redirect         string         `json:"redirect,omitempty"`
}

type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, protectedMW ...gin.HandlerFunc) {
	s := rg.Group("/portal/session", protectedMW...)
	s.POST("/signal", h.signal)
	s.GET("/state", h.state)
	s.POST("/stay", h.stay)
	s.POST("/end", h.end)
}

// signal reports one user-interaction event from the portal client.
func (h *Handler) signal(c *gin.Context) {
	var dto signalDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	e := h.mgr.ensure(middleware.CurrentSession(c))
	e.tracker.Observe(c.Request.Context(), activity.Signal(dto.Signal), dto.Path)
	response.NoContent(c)
}

// state is polled by the portal client to drive the warning dialog and the
// forced redirect.
func (h *Handler) state(c *gin.Context) {
	e := h.mgr.ensure(middleware.CurrentSession(c))

	resp := stateResponse{
		State:            e.machine.State(),
		RemainingSeconds: e.machine.RemainingSeconds(),
	}
	if resp.State == activity.StateLoggingOut {
		reason := e.getReason()
		if reason == "" {
			reason = "timeout"
		}
		resp.Redirect = "/login?reason=" + reason
	}
	response.OK(c, resp)
}

// stay is the warning dialog's "stay logged in" action.
func (h *Handler) stay(c *gin.Context) {
	e := h.mgr.ensure(middleware.CurrentSession(c))
	e.machine.StayLoggedIn(c.Request.Context())
	response.OK(c, stateResponse{State: e.machine.State()})
}

// end is the warning dialog's "log out now" action.
func (h *Handler) end(c *gin.Context) {
	e := h.mgr.ensure(middleware.CurrentSession(c))
	e.machine.LogOutNow(c.Request.Context())
	response.OK(c, stateResponse{
		State:    activity.StateLoggingOut,
		Redirect: "/login?reason=manual",
	})
}
