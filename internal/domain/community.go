package domain

import "context"

// Role is a principal's standing in a community. Volunteers are members.
type Role string

const (
	RoleNone   Role = "none"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a stored role code to a Role. Unknown codes map to RoleNone.
func ParseRole(code string) Role {
	switch Role(code) {
	case RoleAdmin:
		return RoleAdmin
	case RoleMember:
		return RoleMember
	default:
		return RoleNone
	}
}

// MembershipRepository answers role queries against community membership storage.
// GetRole returns RoleNone (and no error) when the user has no membership.
type MembershipRepository interface {
	GetRole(ctx context.Context, communityID, userID string) (Role, error)
}

// AccessGate decides what a principal may do on an event.
//
// CanManage is true only for admins of the owning community. CanCheckIn is true
// for admins and members.
type AccessGate interface {
	CanManage(ctx context.Context, principalID string, event *Event) (bool, error)
	CanCheckIn(ctx context.Context, principalID string, event *Event) (bool, error)
}
