package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/access"
	"github.com/referrio/core/internal/pkg/jwt"
	"github.com/referrio/core/internal/pkg/response"
	sessionpkg "github.com/referrio/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ContextKeySession = "session_record"

	// SessionCookie is the cookie carrying the signed session token.
	SessionCookie = "referrio_session"
)

// SessionRecord is the verified identity attached to a request.
type SessionRecord struct {
	Email     string `json:"email"`
	AgencyID  string `json:"agencyId"`
	SessionID string `json:"-"`
}

// VerifySession validates the ambient session token and returns the record,
// or nil when the token is absent, malformed, expired, or revoked. It never
// returns an error: callers treat nil uniformly as "not authenticated".
func VerifySession(db *gorm.DB, c *gin.Context) *SessionRecord {
	token := extractToken(c)
	if token == "" {
		return nil
	}
	claims, err := jwt.Parse(token)
	if err != nil {
		return nil
	}
	active, err := sessionpkg.IsActive(db, claims.Email, claims.SessionID)
	if err != nil || !active {
		return nil
	}
	return &SessionRecord{
		Email:     claims.Email,
		AgencyID:  claims.AgencyID,
		SessionID: claims.SessionID,
	}
}

// RequireSession aborts 401 unless a valid session is present. On success the
// record is attached to context and the session row is touched.
func RequireSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := VerifySession(db, c)
		if rec == nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeySession, rec)
		sessionpkg.Touch(db, rec.Email, rec.SessionID)
		c.Next()
	}
}

// OptionalSession attaches the record if present but never blocks.
func OptionalSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rec := VerifySession(db, c); rec != nil {
			c.Set(ContextKeySession, rec)
			sessionpkg.Touch(db, rec.Email, rec.SessionID)
		}
		c.Next()
	}
}

// RequireAgencyAccess chains the authorization check: the session identity
// must be allowed on the agency the request resolved to. Must run after
// Tenant and RequireSession.
func RequireAgencyAccess(checker *access.Checker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := CurrentSession(c)
		email := ""
		if rec != nil {
			email = rec.Email
		}
		agencyID := CurrentAgencyID(c)

		ok, err := checker.Verify(c.Request.Context(), email, agencyID)
		if err != nil {
			log.Warn("membership lookup failed",
				zap.String("email", email),
				zap.String("agency", agencyID),
				zap.Error(err),
			)
		}
		if !ok {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// CurrentSession extracts the verified session record from context.
func CurrentSession(c *gin.Context) *SessionRecord {
	v, _ := c.Get(ContextKeySession)
	rec, _ := v.(*SessionRecord)
	return rec
}

// IsAuthenticated reports whether the request carries a valid session.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentSession(c) != nil
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return NormalizeToken(cookie)
	}
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
