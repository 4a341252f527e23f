package access

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/referrio/core/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	memberships map[string][]Membership
	err         error
	calls       int
}

func (d *fakeDirectory) Memberships(ctx context.Context, email string) ([]Membership, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.memberships[email], nil
}

func TestVerifyNoEmailDenied(t *testing.T) {
	dir := &fakeDirectory{}
	checker := NewChecker(dir, "admin@referrio.com")

	for _, email := range []string{"", "   "} {
		ok, err := checker.Verify(context.Background(), email, "sunrise")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Zero(t, dir.calls, "directory must not be consulted without an email")
}

func TestVerifySuperAdminAllowedEverywhere(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("directory down")}
	checker := NewChecker(dir, "Admin@Referrio.com")

	for _, agency := range []string{"sunrise", "lakeside", tenant.Default} {
		ok, err := checker.Verify(context.Background(), "ADMIN@referrio.com", agency)
		require.NoError(t, err)
		assert.True(t, ok, "agency %q", agency)
	}
	assert.Zero(t, dir.calls, "admin rule short-circuits the lookup")
}

func TestVerifyDefaultAgencyDenied(t *testing.T) {
	dir := &fakeDirectory{memberships: map[string][]Membership{
		"staff@sunrise.org": {{AgencyID: "a-1", Slug: "sunrise"}},
	}}
	checker := NewChecker(dir, "admin@referrio.com")

	ok, err := checker.Verify(context.Background(), "staff@sunrise.org", tenant.Default)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, dir.calls)
}

func TestVerifyMembershipMatch(t *testing.T) {
	dir := &fakeDirectory{memberships: map[string][]Membership{
		"staff@sunrise.org": {
			{AgencyID: "a-1", Slug: "sunrise"},
			{AgencyID: "a-2", Slug: "lakeside"},
		},
	}}
	checker := NewChecker(dir, "")

	cases := []struct {
		agency string
		want   bool
	}{
		{"a-1", true},
		{"a-2", true},
		{"sunrise", true},
		{"lakeside", true},
		{"a-3", false},
		{"riverbend", false},
	}
	for _, tc := range cases {
		ok, err := checker.Verify(context.Background(), "staff@sunrise.org", tc.agency)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "agency %q", tc.agency)
	}

	// Unknown identity has no memberships at all.
	ok, err := checker.Verify(context.Background(), "stranger@other.org", "sunrise")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyMembershipSets(t *testing.T) {
	// The membership rule must hold for any mix of id and slug matches.
	for n := 0; n < 8; n++ {
		memberships := make([]Membership, 0, n)
		for i := 0; i < n; i++ {
			memberships = append(memberships, Membership{
				AgencyID: fmt.Sprintf("agency-%d", i),
				Slug:     fmt.Sprintf("slug-%d", i),
			})
		}
		dir := &fakeDirectory{memberships: map[string][]Membership{
			"staff@x.org": memberships,
		}}
		checker := NewChecker(dir, "")

		for i := 0; i < n; i++ {
			ok, err := checker.Verify(context.Background(), "staff@x.org", fmt.Sprintf("agency-%d", i))
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = checker.Verify(context.Background(), "staff@x.org", fmt.Sprintf("slug-%d", i))
			require.NoError(t, err)
			assert.True(t, ok)
		}

		ok, err := checker.Verify(context.Background(), "staff@x.org", fmt.Sprintf("agency-%d", n))
		require.NoError(t, err)
		assert.False(t, ok, "n=%d", n)
	}
}

func TestVerifyDirectoryErrorDenies(t *testing.T) {
	dirErr := errors.New("connection refused")
	checker := NewChecker(&fakeDirectory{err: dirErr}, "admin@referrio.com")

	ok, err := checker.Verify(context.Background(), "staff@sunrise.org", "sunrise")
	assert.False(t, ok, "lookup failure must fail closed")
	assert.ErrorIs(t, err, dirErr)
}
