package auth

import (
	"context"
	"errors"
	"time"

	"github.com/referrio/core/internal/access"
	"github.com/referrio/core/internal/models"
	sessionpkg "github.com/referrio/core/internal/pkg/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	checker *access.Checker
	ttl     time.Duration
}

func NewService(db *gorm.DB, checker *access.Checker, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = sessionpkg.DefaultTTL
	}
	return &Service{db: db, checker: checker, ttl: ttl}
}

// Login verifies credentials and agency access, then issues a session bound
// to the agency the request resolved to.
func (s *Service) Login(ctx context.Context, email, password, agencyID, ip, ua string) (string, *models.UserSession, error) {
	var staff models.StaffModel
	if err := s.db.Select("id, email, password").
		Where("email = ?", email).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			time.Sleep(3 * time.Second)
			return "", nil, errStaffNotFound
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(password)); err != nil {
		time.Sleep(3 * time.Second)
		return "", nil, errWrongPassword
	}

	allowed, err := s.checker.Verify(ctx, staff.Email, agencyID)
	if err != nil {
		return "", nil, err
	}
	if !allowed {
		return "", nil, errNotMemberOfAgency
	}

	now := time.Now()
	_ = s.db.Model(&staff).
		Updates(map[string]interface{}{"last_login_time": &now, "last_login_ip": ip}).Error

	return sessionpkg.Issue(s.db, staff.Email, agencyID, ip, ua, s.ttl)
}

// Logout revokes the session row; reason distinguishes explicit logout from
// inactivity timeout.
func (s *Service) Logout(email, sessionID, reason string) error {
	if reason == "" {
		reason = "logout"
	}
	err := sessionpkg.Revoke(s.db, email, sessionID, reason)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Already revoked; logout is idempotent.
		return nil
	}
	return err
}
