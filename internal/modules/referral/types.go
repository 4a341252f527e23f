package referral

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Referral statuses, in rough lifecycle order.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusAdmitted  = "admitted"
	StatusDeclined  = "declined"
	StatusClosed    = "closed"
)

func validStatus(s string) bool {
	switch s {
	case StatusNew, StatusContacted, StatusAdmitted, StatusDeclined, StatusClosed:
		return true
	}
	return false
}

// Referral is an inbound patient referral document. Every query against the
// collection is scoped by agencyId.
type Referral struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"      json:"id"`
	AgencyID     string             `bson:"agencyId"           json:"-"`
	PatientName  string             `bson:"patientName"        json:"patientName"`
	PatientPhone string             `bson:"patientPhone"       json:"patientPhone,omitempty"`
	PatientEmail string             `bson:"patientEmail"       json:"patientEmail,omitempty"`
	Insurance    string             `bson:"insurance"          json:"insurance,omitempty"`
	CareNeeds    string             `bson:"careNeeds"          json:"careNeeds,omitempty"`
	SourceID     string             `bson:"sourceId,omitempty" json:"sourceId,omitempty"`
	SourceName   string             `bson:"sourceName"         json:"sourceName,omitempty"`
	Status       string             `bson:"status"             json:"status"`
	Notes        string             `bson:"notes"              json:"notes,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"          json:"created"`
	UpdatedAt    time.Time          `bson:"updatedAt"          json:"modified"`
}

// IntakeDTO is the public intake form payload.
type IntakeDTO struct {
	PatientName  string `json:"patientName"  binding:"required"`
	PatientPhone string `json:"patientPhone"`
	PatientEmail string `json:"patientEmail" binding:"omitempty,email"`
	Insurance    string `json:"insurance"`
	CareNeeds    string `json:"careNeeds"`
	SourceID     string `json:"sourceId"`
	SourceName   string `json:"sourceName"`
	Notes        string `json:"notes"`
	BotToken     string `json:"botToken"`
}

// UpdateDTO patches staff-editable fields.
type UpdateDTO struct {
	Status   *string `json:"status"`
	Notes    *string `json:"notes"`
	SourceID *string `json:"sourceId"`
}

type listQuery struct {
	Page   int    `form:"page"`
	Size   int    `form:"size"`
	Status string `form:"status"`
}
