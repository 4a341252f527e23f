// Package access decides whether an authenticated identity may act on an
// agency. The rules are evaluated per request with no caching.
package access

import (
	"context"
	"strings"

	"github.com/referrio/core/internal/tenant"
)

// Membership is one agency an identity belongs to, matched by id or slug.
type Membership struct {
	AgencyID string
	Slug     string
}

// Directory looks up agency memberships for an email. The production
// implementation reads the staff directory; tests inject fakes.
type Directory interface {
	Memberships(ctx context.Context, email string) ([]Membership, error)
}

// Checker applies the authorization rule chain.
type Checker struct {
	dir        Directory
	adminEmail string
}

// NewChecker builds a Checker. adminEmail is the configured super admin with
// unconditional cross-agency access; empty disables the admin rule.
func NewChecker(dir Directory, adminEmail string) *Checker {
	return &Checker{dir: dir, adminEmail: strings.ToLower(strings.TrimSpace(adminEmail))}
}

// Verify reports whether email may act on agencyID. Rules in order, first
// match wins:
//  1. no email: deny
//  2. super admin: allow, any agency
//  3. default agency: deny (reserved for the super admin)
//  4. membership lookup: allow iff agencyID matches a membership id or slug
//
// Directory failures deny and surface the error for logging.
func (c *Checker) Verify(ctx context.Context, email, agencyID string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	if c.adminEmail != "" && email == c.adminEmail {
		return true, nil
	}
	if agencyID == tenant.Default {
		return false, nil
	}

	memberships, err := c.dir.Memberships(ctx, email)
	if err != nil {
		return false, err
	}
	for _, m := range memberships {
		if agencyID == m.AgencyID || agencyID == m.Slug {
			return true, nil
		}
	}
	return false, nil
}
