package security

import "github.com/frahmantamala/employee-management/internal"

var ErrOwnRecordOnly = internal.NewForbiddenError("You can only view your own details", internal.ErrCodeOwnRecordOnly)

// KnownRoles lists the roles a user can hold.
var KnownRoles = []string{internal.RoleAdmin, internal.RoleManager, internal.RoleEmployee}

func IsKnownRole(role string) bool {
	role = internal.NormalizeRole(role)
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeRoles upper-cases, strips prefixes and removes duplicates keeping first-seen order.
func NormalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		n := internal.NormalizeRole(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func PrincipalFromClaims(claims *Claims) *internal.Principal {
	return &internal.Principal{
		Email: claims.Subject,
		Roles: NormalizeRoles(claims.Roles),
	}
}

// CanViewEmployee lets ADMIN and MANAGER read any employee, everyone else only their own record.
// Emails are stored case-sensitively, so the match is exact.
func CanViewEmployee(p *internal.Principal, employeeEmail string) error {
	if p == nil {
		return internal.ErrUnauthenticated
	}
	if p.HasAnyRole(internal.RoleAdmin, internal.RoleManager) {
		return nil
	}
	if p.Email == employeeEmail {
		return nil
	}
	return ErrOwnRecordOnly
}
