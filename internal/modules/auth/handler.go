package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/middleware"
	"github.com/referrio/core/internal/pkg/botcheck"
	"github.com/referrio/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Handler struct {
	svc    *Service
	bot    *botcheck.Client
	secure bool
	ttl    time.Duration
}

func NewHandler(svc *Service, bot *botcheck.Client, secureCookies bool) *Handler {
	return &Handler{svc: svc, bot: bot, secure: secureCookies, ttl: svc.ttl}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB) {
	a := rg.Group("/auth")

	a.POST("/login", h.login)
	a.POST("/logout", middleware.OptionalSession(db), h.logout)
	a.GET("/session", middleware.OptionalSession(db), h.session)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !h.bot.Verify(c.Request.Context(), dto.BotToken, c.ClientIP()) {
		response.ForbiddenMsg(c, "verification failed")
		return
	}

	agencyID := middleware.CurrentAgencyID(c)
	token, _, err := h.svc.Login(c.Request.Context(), dto.Email, dto.Password, agencyID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, errStaffNotFound), errors.Is(err, errWrongPassword):
			response.ForbiddenMsg(c, "invalid email or password")
		case errors.Is(err, errNotMemberOfAgency):
			response.ForbiddenMsg(c, "no access to this agency")
		default:
			response.InternalError(c, err)
		}
		return
	}

	h.setSessionCookie(c, token, int(h.ttl.Seconds()))
	response.OK(c, loginResponse{Token: token, Email: dto.Email, Agency: agencyID})
}

// logout accepts ?reason=timeout from the timeout machinery. It succeeds even
// without a live session: clearing the cookie is always safe.
func (h *Handler) logout(c *gin.Context) {
	reason := c.Query("reason")
	if rec := middleware.CurrentSession(c); rec != nil {
		if err := h.svc.Logout(rec.Email, rec.SessionID, reason); err != nil {
			response.InternalError(c, err)
			return
		}
	}
	h.setSessionCookie(c, "", -1)
	response.OK(c, gin.H{"ok": 1})
}

func (h *Handler) session(c *gin.Context) {
	rec := middleware.CurrentSession(c)
	if rec == nil {
		response.OK(c, gin.H{"session": nil})
		return
	}
	response.OK(c, sessionResponse{Email: rec.Email, AgencyID: rec.AgencyID})
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.secure, true)
}
