package models

import "time"

// UserSession tracks signed-in staff sessions for revocation and device
// management. The JWT carries the row id as its sid claim.
type UserSession struct {
	Base
	StaffEmail string     `json:"staff_email" gorm:"index;not null"`
	AgencyID   string     `json:"agency_id"   gorm:"index;not null"`
	IP         string     `json:"ip"`
	UA         string     `json:"ua"          gorm:"type:text"`
	ExpiresAt  time.Time  `json:"expires_at"  gorm:"index;not null"`
	RevokedAt  *time.Time `json:"revoked_at"  gorm:"index"`
	EndReason  string     `json:"end_reason"`
}

func (UserSession) TableName() string { return "user_sessions" }
