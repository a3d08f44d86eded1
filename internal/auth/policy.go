package auth

import (
	"github.com/jobportal/profile-sync/internal/domain"
	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

// Policy is a route's access requirement.
type Policy struct {
	// Roles restricts the route to these roles. Empty means any authenticated role.
	Roles []domain.Role
	// Ownership requires the caller to own the target record unless they are an admin.
	Ownership bool
}

var (
	// Authenticated admits any verified, unexpired identity.
	Authenticated = Policy{}
	// OwnerOrAdmin admits the record's owner or an admin.
	OwnerOrAdmin = Policy{Ownership: true}
	// AdminOnly admits admins.
	AdminOnly = Policy{Roles: []domain.Role{domain.RoleAdmin}}
)

// Check is the one capability test every route goes through. Admins bypass ownership but
// never a role restriction.
func Check(identity domain.Identity, policy Policy, targetOwnerID string) error {
	if len(policy.Roles) > 0 && !identity.Role.In(policy.Roles...) {
		return apperrors.NewForbidden("insufficient role")
	}
	if policy.Ownership && !identity.CanActOn(targetOwnerID) {
		return apperrors.NewForbidden("not the owner of this profile")
	}
	return nil
}
