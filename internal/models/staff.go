package models

import "time"

// StaffModel is a portal user identified by email. Agency access is granted
// through StaffMembership rows, not a column here, so one account can work
// across multiple agencies.
type StaffModel struct {
	Base
	Email         string     `json:"email"           gorm:"uniqueIndex;not null"`
	Name          string     `json:"name"`
	Password      string     `json:"-"               gorm:"not null"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
}

func (StaffModel) TableName() string { return "staff" }

// StaffMembership links a staff email to an agency it may access.
type StaffMembership struct {
	Base
	StaffEmail string `json:"staff_email" gorm:"index;not null"`
	AgencyID   string `json:"agency_id"   gorm:"index;not null"`
	Role       string `json:"role"        gorm:"default:member"`
}

func (StaffMembership) TableName() string { return "staff_memberships" }
