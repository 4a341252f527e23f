package session

import (
	"strings"
	"time"

	"github.com/referrio/core/internal/models"
	jwtpkg "github.com/referrio/core/internal/pkg/jwt"
	"gorm.io/gorm"
)

const DefaultTTL = 12 * time.Hour

// Issue creates a DB session row and signs a JWT bound to it.
func Issue(db *gorm.DB, email, agencyID, ip, ua string, ttl time.Duration) (string, *models.UserSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	s := &models.UserSession{
		StaffEmail: strings.ToLower(strings.TrimSpace(email)),
		AgencyID:   agencyID,
		IP:         strings.TrimSpace(ip),
		UA:         strings.TrimSpace(ua),
		ExpiresAt:  now.Add(ttl),
	}
	if err := db.Create(s).Error; err != nil {
		return "", nil, err
	}

	token, err := jwtpkg.Sign(s.StaffEmail, agencyID, s.ID, ttl)
	if err != nil {
		_ = db.Delete(s).Error
		return "", nil, err
	}
	return token, s, nil
}

// IsActive reports whether the session row is still valid.
func IsActive(db *gorm.DB, email, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}

	var count int64
	err := db.Model(&models.UserSession{}).
		Where("id = ? AND staff_email = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, email, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Touch bumps updated_at on a live session (best effort).
func Touch(db *gorm.DB, email, sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	_ = db.Model(&models.UserSession{}).
		Where("id = ? AND staff_email = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, email, time.Now()).
		Update("updated_at", time.Now()).Error
}

// Revoke ends a session, recording why ("logout", "timeout", "manual").
func Revoke(db *gorm.DB, email, sessionID, reason string) error {
	now := time.Now()
	res := db.Model(&models.UserSession{}).
		Where("id = ? AND staff_email = ? AND revoked_at IS NULL", sessionID, email).
		Updates(map[string]interface{}{"revoked_at": &now, "end_reason": reason})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RevokeAllExcept ends every other live session for the identity.
func RevokeAllExcept(db *gorm.DB, email, keepSessionID string) error {
	now := time.Now()
	query := db.Model(&models.UserSession{}).
		Where("staff_email = ? AND revoked_at IS NULL", email)
	if strings.TrimSpace(keepSessionID) != "" {
		query = query.Where("id <> ?", keepSessionID)
	}
	return query.Updates(map[string]interface{}{"revoked_at": &now, "end_reason": "revoked"}).Error
}

// PruneExpired hard-deletes rows whose expiry passed more than grace ago.
func PruneExpired(db *gorm.DB, grace time.Duration) (int64, error) {
	res := db.Unscoped().
		Where("expires_at < ?", time.Now().Add(-grace)).
		Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}
