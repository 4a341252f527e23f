package models

// AgencyModel is a subscribing agency (tenant), addressed by subdomain slug.
type AgencyModel struct {
	Base
	Name    string `json:"name"    gorm:"not null"`
	Slug    string `json:"slug"    gorm:"uniqueIndex;not null"`
	Active  bool   `json:"active"  gorm:"default:true"`
	OwnerID string `json:"-"       gorm:"index"`
}

func (AgencyModel) TableName() string { return "agencies" }

// AgencySettingsModel holds per-agency portal settings.
type AgencySettingsModel struct {
	Base
	AgencyID      string `json:"-"              gorm:"uniqueIndex;not null"`
	NotifyEmail   string `json:"notify_email"`
	IntakeEnabled bool   `json:"intake_enabled" gorm:"default:true"`
	IntakeBanner  string `json:"intake_banner"  gorm:"type:text"`
	Timezone      string `json:"timezone"`
}

func (AgencySettingsModel) TableName() string { return "agency_settings" }
