package access

import (
	"context"

	"gorm.io/gorm"
)

// StaffDirectory resolves memberships from the staff_memberships table,
// joining agencies for the subdomain slug.
type StaffDirectory struct {
	db *gorm.DB
}

func NewStaffDirectory(db *gorm.DB) *StaffDirectory {
	return &StaffDirectory{db: db}
}

func (d *StaffDirectory) Memberships(ctx context.Context, email string) ([]Membership, error) {
	var rows []struct {
		AgencyID string
		Slug     string
	}
	err := d.db.WithContext(ctx).
		Table("staff_memberships").
		Select("staff_memberships.agency_id, agencies.slug").
		Joins("LEFT JOIN agencies ON agencies.id = staff_memberships.agency_id AND agencies.deleted_at IS NULL").
		Where("staff_memberships.staff_email = ? AND staff_memberships.deleted_at IS NULL", email).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Membership, 0, len(rows))
	for _, r := range rows {
		out = append(out, Membership{AgencyID: r.AgencyID, Slug: r.Slug})
	}
	return out, nil
}
